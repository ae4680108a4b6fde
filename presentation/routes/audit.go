package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/nemaks/recordstore/presentation/controllers/audit"
	"github.com/nemaks/recordstore/presentation/middlewares"
)

func AuditRoutes(router *gin.RouterGroup, controller audit.AuditController) {
	router.POST("/audit/events", controller.LogEvent)
	router.POST("/audit/events/batch", controller.BatchLogEvents)
	router.GET("/audit/logs", middlewares.ETagMiddleware(), controller.GetLogs)
}
