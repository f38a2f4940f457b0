package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/ecoscan-backend/internal/http/response"
	"github.com/yungbote/ecoscan-backend/internal/modules/scan"
)

type TopicsHandler struct {
	catalog *scan.Catalog
}

func NewTopicsHandler(catalog *scan.Catalog) *TopicsHandler {
	if catalog == nil {
		catalog = scan.DefaultCatalog()
	}
	return &TopicsHandler{catalog: catalog}
}

type topicView struct {
	Key  string `json:"key"`
	Fact string `json:"fact"`
	Tip  string `json:"tip"`
}

// GET /api/topics
func (h *TopicsHandler) List(c *gin.Context) {
	topics := h.catalog.Topics()
	out := make([]topicView, 0, len(topics))
	for _, t := range topics {
		out = append(out, topicView{Key: t.Key, Fact: t.Fact, Tip: t.Tip})
	}
	response.RespondOK(c, gin.H{
		"topics":   out,
		"keywords": h.catalog.Keywords(),
	})
}
