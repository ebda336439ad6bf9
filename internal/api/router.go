package api

import (
	"RosterSync/internal/config"
	"RosterSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RegisterRoutes 注册全部管理接口
func RegisterRoutes(r gin.IRouter, svcs *service.Services, logger *logrus.Logger, cfg *config.Config) {
	importHandler := NewImportHandler(svcs.Import, logger, cfg.Import)
	r.GET("/api/providers", importHandler.ListProviders)
	r.POST("/api/imports/:provider", importHandler.RunImport)
	r.POST("/api/seed/:provider", importHandler.Seed)

	reviewHandler := NewReviewHandler(svcs.Review, logger)
	r.GET("/api/review", reviewHandler.ListPending)
	r.GET("/api/review/count", reviewHandler.CountPending)
	r.POST("/api/review/:id/approve", reviewHandler.Approve)
	r.POST("/api/review/:id/reject", reviewHandler.Reject)
	r.POST("/api/review/:id/skip", reviewHandler.Skip)
}
