package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/printworks-studio/printworks-api/audit"
	"github.com/printworks-studio/printworks-api/config"
	"github.com/printworks-studio/printworks-api/middleware"
	"github.com/printworks-studio/printworks-api/models"
	"github.com/printworks-studio/printworks-api/services"
	"github.com/printworks-studio/printworks-api/utils"
	"gorm.io/gorm"
)

// CreateOrderRequest represents the request body for submitting an order
type CreateOrderRequest struct {
	ShippingInfo models.ShippingInfo `json:"shipping_info" binding:"required"`
	Items        []OrderItemRequest  `json:"items" binding:"required,min=1,dive"`
	CCEmails     []string            `json:"cc_emails"`
}

// OrderItemRequest is one line item in an order submission or replacement
type OrderItemRequest struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Spec     string `json:"spec"`
}

// CreateOrder handles POST /api/v1/orders - submits a new order (checkout or
// guest submit). Works with or without an authenticated customer.
func CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	if req.ShippingInfo.ContactName == "" || req.ShippingInfo.Email == "" {
		validationError(c, "shipping_info.contact_name and shipping_info.email are required")
		return
	}

	ccEmails, err := utils.NormalizeCCEmails(req.CCEmails, req.ShippingInfo.Email)
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

	db := config.GetDB()

	order := models.Order{
		Status:       models.StatusNew,
		ShippingInfo: req.ShippingInfo,
		CCEmails:     ccEmails,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Spec:     item.Spec,
		})
	}

	// Authenticated customers get their account linked at submit time.
	var actor *models.Actor
	if a, err := middleware.GetActor(c); err == nil {
		actor = a
		if a.Role == "customer" {
			id := a.ID
			order.CustomerID = &id
		}
	}

	if err := createWithNextNumber(db, &order); err != nil {
		databaseError(c, "Failed to create order")
		return
	}

	services.RecordAudit(models.CategoryOrders, "order.create", actor, map[string]interface{}{
		"orderNumber": order.OrderNumber,
		"contactName": order.ShippingInfo.ContactName,
		"schoolName":  order.ShippingInfo.SchoolName,
		"itemCount":   len(order.Items),
	}, c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrder handles GET /api/v1/orders/:id
func GetOrder(c *gin.Context) {
	orderID := c.Param("id")
	var order models.Order
	err := config.GetDB().
		Preload("Items").
		Preload("Notes").
		Preload("AssignedTo").
		Preload("Customer").
		First(&order, orderID).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListOrders handles GET /api/v1/orders - lists orders for the admin dashboard
func ListOrders(c *gin.Context) {
	query := config.GetDB().Preload("AssignedTo").Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if assigned := c.Query("assigned_to"); assigned != "" {
		if assigned == "unassigned" {
			query = query.Where("assigned_to_id IS NULL")
		} else {
			query = query.Where("assigned_to_id = ?", assigned)
		}
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		databaseError(c, "Failed to fetch orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// UpdateStatusRequest represents the request body for a status change
type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status. Any status in the
// closed set is accepted from any current status; the audit trail, not a
// transition graph, is the record of what happened.
func UpdateOrderStatus(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	if !models.IsValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": fmt.Sprintf("Unknown order status: %s", req.Status),
			},
		})
		return
	}

	order := findOrder(c)
	if order == nil {
		return
	}

	previousStatus := order.Status
	order.Status = req.Status
	if err := config.GetDB().Model(order).Update("status", req.Status).Error; err != nil {
		databaseError(c, "Failed to update order status")
		return
	}

	services.RecordAudit(models.CategoryOrders, "order.status_change", actor, map[string]interface{}{
		"orderNumber":    order.OrderNumber,
		"contactName":    order.ShippingInfo.ContactName,
		"previousStatus": string(previousStatus),
		"status":         string(req.Status),
	}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateAssignmentRequest represents the request body for an assignment change.
// A null admin_id unassigns the order.
type UpdateAssignmentRequest struct {
	AdminID *uint `json:"admin_id"`
}

// UpdateOrderAssignment handles PATCH /api/v1/orders/:id/assignment
func UpdateOrderAssignment(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	var req UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	order := findOrder(c)
	if order == nil {
		return
	}

	db := config.GetDB()
	details := map[string]interface{}{
		"orderNumber": order.OrderNumber,
	}

	if req.AdminID == nil {
		details["adminId"] = "unassigned"
	} else {
		var admin models.User
		if err := db.Where("id = ? AND role = ?", *req.AdminID, "admin").First(&admin).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_NOT_FOUND",
					"message": "Assigned admin not found",
				},
			})
			return
		}
		details["adminId"] = strconv.FormatUint(uint64(admin.ID), 10)
		details["adminName"] = admin.Name
	}

	order.AssignedToID = req.AdminID
	if err := db.Model(order).Select("assigned_to_id").Update("assigned_to_id", req.AdminID).Error; err != nil {
		databaseError(c, "Failed to update order assignment")
		return
	}

	services.RecordAudit(models.CategoryOrders, "order.assign", actor, details, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateShippingRequest represents the request body for a shipping-info edit.
// LinkUserID links the order to an existing account; CreateUser provisions one
// from the contact details instead.
type UpdateShippingRequest struct {
	ShippingInfo models.ShippingInfo `json:"shipping_info" binding:"required"`
	LinkUserID   *uint               `json:"link_user_id"`
	CreateUser   bool                `json:"create_user"`
}

// UpdateOrderShipping handles PUT /api/v1/orders/:id/shipping
func UpdateOrderShipping(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	var req UpdateShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	order := findOrder(c)
	if order == nil {
		return
	}

	db := config.GetDB()

	changes := audit.Diff(
		shippingRecord(order.ShippingInfo),
		shippingRecord(req.ShippingInfo),
		models.ShippingTrackedFields,
	)

	// Resolve the account link before writing anything so a bad link leaves
	// the order untouched.
	var linkedUser *models.User
	if req.LinkUserID != nil {
		var user models.User
		if err := db.First(&user, *req.LinkUserID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_NOT_FOUND",
					"message": "Linked user not found",
				},
			})
			return
		}
		linkedUser = &user
	} else if req.CreateUser {
		directory := services.GetDirectory()
		existing, err := directory.FindUserByEmail(req.ShippingInfo.Email)
		if err != nil {
			databaseError(c, "Failed to look up user account")
			return
		}
		if existing != nil {
			linkedUser = existing
		} else {
			created, err := directory.CreateUser(req.ShippingInfo.ContactName, req.ShippingInfo.Email)
			if err != nil {
				databaseError(c, "Failed to create user account")
				return
			}
			linkedUser = created
		}
	}

	order.ShippingInfo = req.ShippingInfo
	updates := map[string]interface{}{
		"shipping_school_name":    req.ShippingInfo.SchoolName,
		"shipping_contact_name":   req.ShippingInfo.ContactName,
		"shipping_email":          req.ShippingInfo.Email,
		"shipping_phone":          req.ShippingInfo.Phone,
		"shipping_address":        req.ShippingInfo.Address,
		"shipping_internal_order": req.ShippingInfo.InternalOrder,
	}
	if linkedUser != nil {
		id := linkedUser.ID
		order.CustomerID = &id
		updates["customer_id"] = id
	}
	if err := db.Model(order).Updates(updates).Error; err != nil {
		databaseError(c, "Failed to update shipping info")
		return
	}

	services.RecordAudit(models.CategoryOrders, "order.shipping_update", actor, map[string]interface{}{
		"orderNumber": order.OrderNumber,
		"changes":     changes,
	}, c.ClientIP())

	if linkedUser != nil {
		services.RecordAudit(models.CategoryOrders, "order.link_user", actor, map[string]interface{}{
			"orderNumber": order.OrderNumber,
			"userId":      linkedUser.ID,
			"email":       linkedUser.Email,
		}, c.ClientIP())
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateItemsRequest represents the request body for replacing the item list
type UpdateItemsRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,dive"`
}

// UpdateOrderItems handles PUT /api/v1/orders/:id/items - replaces the item
// collection wholesale
func UpdateOrderItems(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	var req UpdateItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	order := findOrder(c)
	if order == nil {
		return
	}

	db := config.GetDB()

	var previousCount int64
	if err := db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&previousCount).Error; err != nil {
		databaseError(c, "Failed to fetch order items")
		return
	}

	newItems := make([]models.OrderItem, 0, len(req.Items))
	itemNames := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		newItems = append(newItems, models.OrderItem{
			OrderID:  order.ID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Spec:     item.Spec,
		})
		itemNames = append(itemNames, item.Name)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if len(newItems) == 0 {
			return nil
		}
		return tx.Create(&newItems).Error
	})
	if err != nil {
		databaseError(c, "Failed to update order items")
		return
	}

	services.RecordAudit(models.CategoryOrders, "order.items_update", actor, map[string]interface{}{
		"orderNumber":   order.OrderNumber,
		"previousCount": previousCount,
		"newCount":      len(newItems),
		"items":         itemNames,
	}, c.ClientIP())

	order.Items = newItems
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateCCEmailsRequest represents the request body for replacing the CC list
type UpdateCCEmailsRequest struct {
	Emails []string `json:"emails" binding:"required"`
}

// UpdateOrderCCEmails handles PUT /api/v1/orders/:id/cc-emails
func UpdateOrderCCEmails(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	var req UpdateCCEmailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	order := findOrder(c)
	if order == nil {
		return
	}

	normalized, err := utils.NormalizeCCEmails(req.Emails, order.ShippingInfo.Email)
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

	order.CCEmails = normalized
	if err := config.GetDB().Model(order).Update("cc_emails", order.CCEmails).Error; err != nil {
		databaseError(c, "Failed to update CC emails")
		return
	}

	services.RecordAudit(models.CategoryOrders, "order.emails_update", actor, map[string]interface{}{
		"orderNumber": order.OrderNumber,
		"emails":      normalized,
	}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// AddNoteRequest represents the request body for adding an admin note
type AddNoteRequest struct {
	Text string `json:"text" binding:"required"`
}

// AddOrderNote handles POST /api/v1/orders/:id/notes
func AddOrderNote(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	var req AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	order := findOrder(c)
	if order == nil {
		return
	}

	note := models.OrderNote{
		OrderID:   order.ID,
		AdminID:   actor.ID,
		AdminName: actor.Name,
		Text:      req.Text,
	}
	if err := config.GetDB().Create(&note).Error; err != nil {
		databaseError(c, "Failed to create note")
		return
	}

	services.RecordAudit(models.CategoryOrders, "order.note_add", actor, map[string]interface{}{
		"orderNumber": order.OrderNumber,
		"note":        req.Text,
	}, c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    note,
	})
}

// DeleteOrderNote handles DELETE /api/v1/orders/:id/notes/:noteId. Only the
// note's author may delete it.
func DeleteOrderNote(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	order := findOrder(c)
	if order == nil {
		return
	}

	db := config.GetDB()
	var note models.OrderNote
	if err := db.Where("order_id = ?", order.ID).First(&note, c.Param("noteId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOTE_NOT_FOUND",
				"message": "Note not found",
			},
		})
		return
	}

	if note.AdminID != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only the note's author can delete it",
			},
		})
		return
	}

	if err := db.Delete(&note).Error; err != nil {
		databaseError(c, "Failed to delete note")
		return
	}

	services.RecordAudit(models.CategoryOrders, "order.note_delete", actor, map[string]interface{}{
		"orderNumber": order.OrderNumber,
		"note":        note.Text,
	}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"deleted": true},
	})
}

// ArchiveOrder handles DELETE /api/v1/orders/:id - soft-archives an order.
// Orders are never physically deleted.
func ArchiveOrder(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	order := findOrder(c)
	if order == nil {
		return
	}

	if err := config.GetDB().Delete(order).Error; err != nil {
		databaseError(c, "Failed to archive order")
		return
	}

	services.RecordAudit(models.CategoryOrders, "order.archive", actor, map[string]interface{}{
		"orderNumber": order.OrderNumber,
	}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"archived": true},
	})
}

// shippingRecord flattens a ShippingInfo into the field map the differ works on.
func shippingRecord(info models.ShippingInfo) map[string]interface{} {
	return map[string]interface{}{
		"school_name":    info.SchoolName,
		"contact_name":   info.ContactName,
		"email":          info.Email,
		"phone":          info.Phone,
		"address":        info.Address,
		"internal_order": info.InternalOrder,
	}
}

// createWithNextNumber allocates the order number inside the insert
// transaction. Two concurrent checkouts can still read the same MAX, so a
// unique-index conflict on order_number gets one retry with a fresh number.
func createWithNextNumber(db *gorm.DB, order *models.Order) error {
	insert := func(tx *gorm.DB) error {
		order.OrderNumber = nextOrderNumber(tx)
		return tx.Create(order).Error
	}

	err := db.Transaction(insert)
	if err != nil && isUniqueViolation(err) {
		order.ID = 0
		err = db.Transaction(insert)
	}
	return err
}

// isUniqueViolation reports whether err is a unique-index conflict. Matched
// by message because sqlite and postgres surface different error types.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

// nextOrderNumber assigns the next human-facing order number. Numbers start at
// 1001 and only ever increase; soft-archived orders still count.
func nextOrderNumber(tx *gorm.DB) string {
	var maxNumber *int
	tx.Model(&models.Order{}).Unscoped().
		Select("MAX(CAST(order_number AS INTEGER))").
		Scan(&maxNumber)
	next := 1001
	if maxNumber != nil && *maxNumber >= next {
		next = *maxNumber + 1
	}
	return strconv.Itoa(next)
}
