package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/printworks-studio/printworks-api/config"
	"github.com/printworks-studio/printworks-api/middleware"
	"github.com/printworks-studio/printworks-api/models"
)

// currentActor resolves the authenticated actor for a mutating request. On
// failure it writes the error envelope and returns nil.
func currentActor(c *gin.Context) *models.Actor {
	actor, err := middleware.GetActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return nil
	}
	return actor
}

// findOrder loads the order named by the :id route param. On failure it writes
// the error envelope and returns nil.
func findOrder(c *gin.Context) *models.Order {
	orderID := c.Param("id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Order ID is required",
			},
		})
		return nil
	}

	var order models.Order
	if err := config.GetDB().First(&order, orderID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return nil
	}
	return &order
}

// validationError writes the standard validation failure envelope.
func validationError(c *gin.Context, details string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": details,
		},
	})
}

// databaseError writes the standard database failure envelope.
func databaseError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "DATABASE_ERROR",
			"message": message,
		},
	})
}
