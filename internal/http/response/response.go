package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ecoscan-backend/internal/domain"
	"github.com/yungbote/ecoscan-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError is for routes outside the scan contract (unknown routes, bad methods).
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError answers with the status and code carried by an apierr.Error.
func RespondAPIError(c *gin.Context, err error) {
	status, code := apierr.From(err)
	RespondError(c, status, code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondScan always answers 200; success or failure lives in the envelope.
func RespondScan(c *gin.Context, resp domain.ScanResponse) {
	c.JSON(http.StatusOK, resp)
}
