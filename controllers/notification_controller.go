package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/printworks-studio/printworks-api/services"
)

// NotificationSummary handles GET /api/v1/notifications - the cross-order
// unread summary for the dashboard, computed fresh from source rows
func NotificationSummary(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	summary, err := services.SummarizeNotifications(actor.ID)
	if err != nil {
		databaseError(c, "Failed to compute notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summary,
	})
}

// OrderUnread handles GET /api/v1/orders/:id/unread - this admin's unread
// counts for one order
func OrderUnread(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	order := findOrder(c)
	if order == nil {
		return
	}

	since, err := services.LastAck(order.ID, actor.ID)
	if err != nil {
		databaseError(c, "Failed to load read state")
		return
	}

	counts, err := services.ComputeUnread(order.ID, since)
	if err != nil {
		databaseError(c, "Failed to compute unread counts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    counts,
	})
}

// AcknowledgeOrder handles POST /api/v1/orders/:id/ack - marks the order read
// for this admin as of now
func AcknowledgeOrder(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	order := findOrder(c)
	if order == nil {
		return
	}

	if err := services.Acknowledge(order.ID, actor.ID); err != nil {
		databaseError(c, "Failed to acknowledge order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"acknowledged": true},
	})
}
