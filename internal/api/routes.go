package api

import (
	"net/http"

	"github.com/albertelmo/goodlift-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	recordService service.RecordService,
	summaryService service.SummaryService,
	typeCatalog service.TypeCatalog,
) {
	recordHandler := NewRecordHandler(recordService)
	summaryHandler := NewSummaryHandler(summaryService)
	typeHandler := NewTypeHandler(typeCatalog)

	router.Use(RequestIDMiddleware())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		recordGroup := protected.Group("/records")
		{
			recordGroup.POST("", recordHandler.CreateRecord)
			recordGroup.POST("/batch", recordHandler.CreateRecordBatch)
			recordGroup.GET("", recordHandler.ListRecords)
			// Registered before /:id so "order" is not parsed as a record id.
			recordGroup.PUT("/order", recordHandler.ReorderRecords)
			recordGroup.GET("/:id", recordHandler.GetRecord)
			recordGroup.PATCH("/:id", recordHandler.UpdateRecord)
			recordGroup.DELETE("/:id", recordHandler.DeleteRecord)
			recordGroup.PATCH("/:id/completion", recordHandler.SetRecordCompletion)
			recordGroup.PATCH("/:id/sets/:setId/completion", recordHandler.SetSetCompletion)
		}

		summaryGroup := protected.Group("/summary")
		{
			summaryGroup.GET("/calendar", summaryHandler.GetCalendarSummary)
			summaryGroup.GET("/daily", summaryHandler.GetDailyStatus)
		}

		typeGroup := protected.Group("/workout-types")
		{
			typeGroup.GET("", typeHandler.ListWorkoutTypes)
			typeGroup.GET("/:id", typeHandler.GetWorkoutType)
		}
	}
}
