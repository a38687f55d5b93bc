package game

// BoardSizeForLevel returns the side length of the board played at level.
// Level 1 is 3x3, level 7 is 9x9.
func BoardSizeForLevel(level int) int {
	return level + 2
}

// WinCondition returns how many consecutive marks win on an n x n board.
func WinCondition(n int) int {
	return min(n, MaxWinLength)
}

// ValidLevel reports whether level is playable.
func ValidLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}
