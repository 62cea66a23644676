package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/printworks-studio/printworks-api/config"
	"github.com/printworks-studio/printworks-api/models"
	"github.com/printworks-studio/printworks-api/services"
	"github.com/printworks-studio/printworks-api/utils"
)

// ListCommunications handles GET /api/v1/orders/:id/communications
func ListCommunications(c *gin.Context) {
	order := findOrder(c)
	if order == nil {
		return
	}

	var comms []models.Communication
	err := config.GetDB().
		Where("order_id = ?", order.ID).
		Order("created_at ASC").
		Find(&comms).Error
	if err != nil {
		databaseError(c, "Failed to fetch communications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    comms,
	})
}

// SendEmailRequest represents the request body for sending an order email
type SendEmailRequest struct {
	Subject             string              `json:"subject" binding:"required"`
	Body                string              `json:"body" binding:"required"`
	CCEmails            []string            `json:"cc_emails"`
	Attachments         []models.Attachment `json:"attachments"`
	IncludeOrderDetails bool                `json:"include_order_details"`
}

// SendOrderEmail handles POST /api/v1/orders/:id/email - sends mail to the
// order contact and records the attempt. A mailer failure surfaces as
// UPSTREAM_FAILURE and leaves no communication row.
func SendOrderEmail(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	var req SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	order := findOrder(c)
	if order == nil {
		return
	}

	if order.ShippingInfo.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Order has no contact email",
			},
		})
		return
	}

	// Extra CC addresses on top of the order's stored list.
	cc := order.CCEmails
	if len(req.CCEmails) > 0 {
		merged := append(append([]string{}, order.CCEmails...), req.CCEmails...)
		normalized, err := utils.NormalizeCCEmails(merged, order.ShippingInfo.Email)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": err.Error(),
				},
			})
			return
		}
		cc = normalized
	}

	body := req.Body
	if req.IncludeOrderDetails {
		body = body + "\n\n" + orderDetailsBlock(order)
	}

	err := services.GetMailer().Send(services.OutboundEmail{
		To:          order.ShippingInfo.Email,
		CC:          cc,
		Subject:     req.Subject,
		Body:        body,
		Attachments: req.Attachments,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPSTREAM_FAILURE",
				"message": "Failed to send email",
			},
		})
		return
	}

	comm := models.Communication{
		OrderID:        order.ID,
		Direction:      models.DirectionOutbound,
		Subject:        req.Subject,
		Body:           body,
		Attachments:    req.Attachments,
		SenderEmail:    config.GetConfig().MailFrom,
		RecipientEmail: order.ShippingInfo.Email,
	}
	if err := config.GetDB().Create(&comm).Error; err != nil {
		databaseError(c, "Failed to record communication")
		return
	}

	services.RecordAudit(models.CategoryOrders, "order.email_send", actor, map[string]interface{}{
		"orderNumber":     order.OrderNumber,
		"subject":         req.Subject,
		"recipient":       order.ShippingInfo.Email,
		"attachmentCount": len(req.Attachments),
	}, c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    comm,
	})
}

// InboundEmailRequest represents the payload posted by the inbound-mail webhook
type InboundEmailRequest struct {
	OrderNumber string              `json:"order_number" binding:"required"`
	Subject     string              `json:"subject" binding:"required"`
	Body        string              `json:"body"`
	SenderEmail string              `json:"sender_email" binding:"required,email"`
	Attachments []models.Attachment `json:"attachments"`
}

// ReceiveInboundEmail handles POST /api/v1/webhooks/email/inbound - appends a
// customer reply to the order's communication log
func ReceiveInboundEmail(c *gin.Context) {
	var req InboundEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	var order models.Order
	if err := config.GetDB().Where("order_number = ?", req.OrderNumber).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	comm := models.Communication{
		OrderID:        order.ID,
		Direction:      models.DirectionInbound,
		Subject:        req.Subject,
		Body:           req.Body,
		Attachments:    req.Attachments,
		SenderEmail:    strings.ToLower(req.SenderEmail),
		RecipientEmail: config.GetConfig().MailFrom,
	}
	if err := config.GetDB().Create(&comm).Error; err != nil {
		databaseError(c, "Failed to record communication")
		return
	}

	// Inbound mail has no authenticated actor; it records as a system event.
	services.RecordAudit(models.CategoryCommunications, "communication.inbound_received", nil, map[string]interface{}{
		"orderNumber": order.OrderNumber,
		"subject":     req.Subject,
		"sender":      comm.SenderEmail,
	}, c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    comm,
	})
}

// orderDetailsBlock renders the plain-text order summary appended to outbound
// mail when include_order_details is set.
func orderDetailsBlock(order *models.Order) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Order #%s\n", order.OrderNumber))
	b.WriteString(fmt.Sprintf("Status: %s\n", models.StatusLabel[order.Status]))
	b.WriteString(fmt.Sprintf("Contact: %s\n", order.ShippingInfo.ContactName))
	if order.ShippingInfo.SchoolName != "" {
		b.WriteString(fmt.Sprintf("School: %s\n", order.ShippingInfo.SchoolName))
	}

	var items []models.OrderItem
	if err := config.GetDB().Where("order_id = ?", order.ID).Find(&items).Error; err == nil && len(items) > 0 {
		b.WriteString("Items:\n")
		for _, item := range items {
			b.WriteString(fmt.Sprintf("- %s x%d\n", item.Name, item.Quantity))
		}
	}
	return b.String()
}
