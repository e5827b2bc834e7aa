package response

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ragvault/internal/platform/apierr"
	"github.com/yungbote/ragvault/internal/platform/ctxutil"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

// RespondAPIError writes err in the error envelope. Upstream and internal
// failures are logged here and replaced by a generic message.
func RespondAPIError(c *gin.Context, log *logger.Logger, err error) {
	ae := apierr.Classify(err)
	if ae == nil {
		ae = apierr.New(http.StatusInternalServerError, apierr.CodeInternal, errors.New("unknown error"))
	}

	switch ae.Status {
	case http.StatusUnauthorized:
		c.Header("WWW-Authenticate", `Bearer realm="ragvault"`)
	case http.StatusTooManyRequests:
		secs := int((ae.RetryAfter + 999_999_999) / 1_000_000_000)
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", strconv.Itoa(secs))
	}

	if ae.Status >= 500 && log != nil {
		fields := []interface{}{"status", ae.Status, "code", ae.Code, "error", ae.Err}
		fields = append(fields, ctxutil.GetTraceData(c.Request.Context()).LogFields()...)
		log.Error("request failed", fields...)
	}

	c.AbortWithStatusJSON(ae.Status, ErrorEnvelope{
		Error: APIError{
			Message: ae.PublicMessage(),
			Code:    ae.Code,
		},
	})
}
