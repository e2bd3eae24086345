package respond

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"notesum-backend/internal/failure"
)

// Failure answers with the status and user-visible message for a classified error.
// Invalid-input details are echoed back since they describe the caller's own request.
func Failure(c *gin.Context, err error) {
	kind := failure.KindOf(err)
	var details any
	var fe *failure.Error
	if kind == failure.InvalidInput && errors.As(err, &fe) && fe.Detail != "" {
		details = gin.H{"reason": fe.Detail}
	}
	if c.GetString("errorCause") == "" {
		c.Set("errorCause", err.Error())
	}
	Error(c, failure.HTTPStatus(err), strings.ToUpper(string(kind)), failure.UserMessage(err), details)
}
