package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/nemaks/recordstore/presentation/controllers/search"
)

func SearchRoutes(router *gin.RouterGroup, controller search.SearchController) {
	router.GET("/search/messages", controller.SearchMessages)
	router.POST("/search/index", controller.IndexMessage)
}
