package response

import "github.com/gin-gonic/gin"

// NewErrorResponse is the body of every failed request.
func NewErrorResponse(code int, message string) Response {
	return NewResponse(false, code, map[string]any{
		"message": message,
	})
}

// AbortWithError stops the handler chain with an error body.
func AbortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, NewErrorResponse(code, message))
}
