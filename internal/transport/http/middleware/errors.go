package middleware

import (
	"github.com/gin-gonic/gin"

	"powerfolio/internal/core/apperr"
	resp "powerfolio/internal/transport/http/response"
)

func abortWith(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	msg := ""
	if ae := apperr.As(err); ae != nil {
		msg = ae.Msg
	}
	resp.Abort(c, code, msg)
}

func abortStatus(c *gin.Context, code int) { resp.Abort(c, code, "") }
