package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inner struct {
	Secret string `yaml:"secret" validate:"required"`
}

type sample struct {
	Type     string `json:"type" validate:"required,oneof=move new_game"`
	Position []int  `json:"position,omitempty" validate:"omitempty,len=2,dive,min=0"`
	Auth     inner  `yaml:"auth"`
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		in   sample
		want string
	}{
		{
			name: "Unknown type",
			in:   sample{Type: "rematch", Auth: inner{Secret: "x"}},
			want: "type: oneof=move new_game",
		},
		{
			name: "Bad position length",
			in:   sample{Type: "move", Position: []int{1}, Auth: inner{Secret: "x"}},
			want: "position: len=2",
		},
		{
			name: "Negative coordinate",
			in:   sample{Type: "move", Position: []int{0, -1}, Auth: inner{Secret: "x"}},
			want: "position[1]: min=0",
		},
		{
			name: "Nested yaml field",
			in:   sample{Type: "move"},
			want: "auth.secret: required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := GetValidator().Struct(tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.want, Describe(err))
		})
	}
}

func TestDescribe_OtherError(t *testing.T) {
	assert.Equal(t, "boom", Describe(errors.New("boom")))
}
