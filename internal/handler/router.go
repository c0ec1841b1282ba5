package handler

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"vacation-approval/internal/middleware"
)

//go:embed openapi.json
var openAPIDocument []byte

// AuthConfig /api/v1 的鉴权参数，Secret 为空时不鉴权
type AuthConfig struct {
	Secret string
	Issuer string
}

// NewRouter 注册全部路由
func NewRouter(h *VacationHandler, auth AuthConfig, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ZapLogger(logger), middleware.Recovery(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openAPIDocument)
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/openapi.json")))

	api := r.Group("/api/v1")
	if auth.Secret != "" {
		api.Use(middleware.JWTAuth(auth.Secret, auth.Issuer))
	}

	vacations := api.Group("/vacations")
	vacations.POST("/validate", h.Validate)
	vacations.GET("/duration", h.Duration)

	return r
}
