package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/ecoscan-backend/internal/http/handlers"
	httpMW "github.com/yungbote/ecoscan-backend/internal/http/middleware"
	"github.com/yungbote/ecoscan-backend/internal/http/response"
	"github.com/yungbote/ecoscan-backend/internal/observability"
	"github.com/yungbote/ecoscan-backend/internal/platform/apierr"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	ServiceName string
	Tracing     bool

	ScanHandler   *httpH.ScanHandler
	PageHandler   *httpH.PageHandler
	TopicsHandler *httpH.TopicsHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Page
	if cfg.PageHandler != nil {
		r.SetHTMLTemplate(httpH.PageTemplates())
		r.StaticFS("/static", httpH.StaticFS())
		r.GET("/", cfg.PageHandler.Home)
	}

	api := r.Group("/api")
	{
		if cfg.ScanHandler != nil {
			api.POST("/scan", cfg.ScanHandler.Scan)
		}
		if cfg.TopicsHandler != nil {
			api.GET("/topics", cfg.TopicsHandler.List)
		}
		if cfg.HealthHandler != nil {
			api.GET("/status", cfg.HealthHandler.Status)
		}
	}

	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) {
		response.RespondAPIError(c, apierr.New(http.StatusNotFound, "not_found", errors.New("route not found")))
	})
	r.NoMethod(func(c *gin.Context) {
		response.RespondAPIError(c, apierr.New(http.StatusMethodNotAllowed, "method_not_allowed", errors.New("method not allowed")))
	})
	return r
}
