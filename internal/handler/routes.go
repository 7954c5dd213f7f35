package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes sets up all API routes
func SetupRoutes(
	router *gin.Engine,
	billHandler *BillHandler,
	rentalHandler *RentalHandler,
) {
	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", HealthCheck)

		// Bill routes
		bills := v1.Group("/bills")
		{
			bills.POST("/create-for-room", billHandler.CreateBill)
			bills.POST("/preview-for-building", billHandler.PreviewBills)
			bills.POST("/generate-for-building", billHandler.GenerateBills)
			bills.GET("", billHandler.ListBills)
			bills.GET("/stats", billHandler.GetBillStats)
			bills.GET("/export", billHandler.ExportBills)
			bills.GET("/:id", billHandler.GetBill)
			bills.PATCH("/:id", billHandler.UpdateBill)
			bills.DELETE("/:id", billHandler.DeleteBill)
			bills.POST("/:id/mark-paid", billHandler.MarkPaid)
			bills.POST("/:id/meter-data", billHandler.UpdateMeterData)
		}

		// Rental routes
		rentals := v1.Group("/rentals")
		{
			rentals.GET("/:id", rentalHandler.GetRental)
		}
	}
}

// HealthCheck reports service liveness
func HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"message": "Server is running",
		"service": "Trustay Billing Service",
	})
}
