package services

import (
	"errors"
	"time"

	"github.com/printworks-studio/printworks-api/config"
	"github.com/printworks-studio/printworks-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnreadCounts is the per-order unread state for one viewing admin.
type UnreadCounts struct {
	Messages int64 `json:"messages"`
	Feedback int64 `json:"feedback"`
}

// ComputeUnread counts inbound communications and unresolved proof annotations
// created after since. Counts are always recomputed from the source rows;
// storing a running total would drift under concurrent mutation.
func ComputeUnread(orderID uint, since time.Time) (UnreadCounts, error) {
	db := config.GetDB()
	var counts UnreadCounts

	if err := db.Model(&models.Communication{}).
		Where("order_id = ? AND direction = ? AND created_at > ?", orderID, models.DirectionInbound, since).
		Count(&counts.Messages).Error; err != nil {
		return UnreadCounts{}, err
	}

	if err := db.Model(&models.Annotation{}).
		Joins("JOIN proofs ON proofs.id = annotations.proof_id").
		Where("proofs.order_id = ? AND annotations.resolved = ? AND annotations.created_at > ?", orderID, false, since).
		Count(&counts.Feedback).Error; err != nil {
		return UnreadCounts{}, err
	}

	return counts, nil
}

// LastAck returns the admin's acknowledgment time for an order, or the zero
// time when the order has never been opened by that admin.
func LastAck(orderID, adminID uint) (time.Time, error) {
	var ack models.OrderAck
	err := config.GetDB().
		Where("order_id = ? AND admin_id = ?", orderID, adminID).
		First(&ack).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return ack.AckedAt, nil
}

// Acknowledge marks an order read for one admin as of now. Upsert keeps the
// (order, admin) pair unique.
func Acknowledge(orderID, adminID uint) error {
	ack := models.OrderAck{
		OrderID: orderID,
		AdminID: adminID,
		AckedAt: time.Now().UTC(),
	}
	return config.GetDB().
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "admin_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"acked_at", "updated_at"}),
		}).
		Create(&ack).Error
}

// OrderNotification is one order's unread summary for the dashboard.
type OrderNotification struct {
	OrderID     uint         `json:"order_id"`
	OrderNumber string       `json:"order_number"`
	Unread      UnreadCounts `json:"unread"`
}

// NotificationSummary is the cross-order unread summary for one admin.
type NotificationSummary struct {
	Orders        []OrderNotification `json:"orders"`
	TotalMessages int64               `json:"total_messages"`
	TotalFeedback int64               `json:"total_feedback"`
}

// SummarizeNotifications computes unread counts for every active order from the
// admin's per-order acknowledgment state. Orders with nothing unread are
// omitted.
func SummarizeNotifications(adminID uint) (NotificationSummary, error) {
	var orders []models.Order
	if err := config.GetDB().Find(&orders).Error; err != nil {
		return NotificationSummary{}, err
	}

	summary := NotificationSummary{Orders: []OrderNotification{}}
	for _, order := range orders {
		since, err := LastAck(order.ID, adminID)
		if err != nil {
			return NotificationSummary{}, err
		}
		counts, err := ComputeUnread(order.ID, since)
		if err != nil {
			return NotificationSummary{}, err
		}
		if counts.Messages == 0 && counts.Feedback == 0 {
			continue
		}
		summary.Orders = append(summary.Orders, OrderNotification{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Unread:      counts,
		})
		summary.TotalMessages += counts.Messages
		summary.TotalFeedback += counts.Feedback
	}
	return summary, nil
}
