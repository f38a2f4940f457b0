package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ecoscan-backend/internal/http/response"
)

// ProviderInfo reports which classifier backs the scan endpoint.
type ProviderInfo interface {
	ProviderName() string
	ProviderConfigured() bool
}

type HealthHandler struct {
	version  string
	provider ProviderInfo
}

func NewHealthHandler(version string, provider ProviderInfo) *HealthHandler {
	return &HealthHandler{version: version, provider: provider}
}

// GET /healthcheck
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /api/status
// Scans still succeed with sample data when the provider is unconfigured, so this is
// informational rather than a readiness gate.
func (h *HealthHandler) Status(c *gin.Context) {
	out := gin.H{"status": "ok", "version": h.version}
	if h.provider != nil {
		out["provider"] = h.provider.ProviderName()
		out["provider_configured"] = h.provider.ProviderConfigured()
	}
	response.RespondOK(c, out)
}
