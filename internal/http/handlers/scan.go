package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ecoscan-backend/internal/domain"
	"github.com/yungbote/ecoscan-backend/internal/http/middleware"
	"github.com/yungbote/ecoscan-backend/internal/http/response"
	"github.com/yungbote/ecoscan-backend/internal/modules/scan"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

// Scanner is the part of the scan service the handler needs.
type Scanner interface {
	Scan(ctx context.Context, rawImage string) domain.ScanResponse
}

type ScanHandler struct {
	log          *logger.Logger
	scanner      Scanner
	maxBodyBytes int64
}

// NewScanHandler limits request bodies to what a base64 image of maxImageBytes can
// occupy, plus headroom for the JSON envelope and a data-URL prefix.
func NewScanHandler(log *logger.Logger, scanner Scanner, maxImageBytes int64) *ScanHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = scan.DefaultMaxImageBytes
	}
	return &ScanHandler{
		log:          log.With("handler", "ScanHandler"),
		scanner:      scanner,
		maxBodyBytes: maxImageBytes*4/3 + 1<<20,
	}
}

type scanRequest struct {
	Image string `json:"image"`
}

// POST /api/scan
// body: { "image": "<base64 or data URL>" }
func (h *ScanHandler) Scan(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respond(c, domain.ScanFailure(scan.ErrImageTooLarge.Error()))
			return
		}
		// Anything unreadable counts as no image.
		req.Image = ""
	}

	h.respond(c, h.scanner.Scan(c.Request.Context(), req.Image))
}

func (h *ScanHandler) respond(c *gin.Context, resp domain.ScanResponse) {
	c.Set(middleware.ContextKeyScanOutcome, outcomeLabel(resp))
	response.RespondScan(c, resp)
}

func outcomeLabel(resp domain.ScanResponse) string {
	switch {
	case !resp.Success:
		return "failure"
	case resp.Note != "":
		return "sample"
	default:
		return "success"
	}
}
