package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus is the workflow status of an order. Any admin may set any value;
// there is deliberately no transition graph. Display metadata lives in
// StatusLabel/StatusColor, separate from any future validation layer.
type OrderStatus string

const (
	StatusNew                OrderStatus = "new"
	StatusWaitingFeedback    OrderStatus = "waiting_feedback"
	StatusInProgress         OrderStatus = "in_progress"
	StatusSubmittedToKimp360 OrderStatus = "submitted_to_kimp360"
	StatusWaitingSignoff     OrderStatus = "waiting_signoff"
	StatusSentToPrint        OrderStatus = "sent_to_print"
	StatusCompleted          OrderStatus = "completed"
	StatusOnHold             OrderStatus = "on_hold"
)

// AllStatuses lists every valid order status.
var AllStatuses = []OrderStatus{
	StatusNew,
	StatusWaitingFeedback,
	StatusInProgress,
	StatusSubmittedToKimp360,
	StatusWaitingSignoff,
	StatusSentToPrint,
	StatusCompleted,
	StatusOnHold,
}

// StatusLabel maps every status to its human-facing label. Total over AllStatuses.
var StatusLabel = map[OrderStatus]string{
	StatusNew:                "New",
	StatusWaitingFeedback:    "Waiting on Feedback",
	StatusInProgress:         "In Progress",
	StatusSubmittedToKimp360: "Submitted to Kimp360",
	StatusWaitingSignoff:     "Waiting on Sign-off",
	StatusSentToPrint:        "Sent to Print",
	StatusCompleted:          "Completed",
	StatusOnHold:             "On Hold",
}

// StatusColor maps every status to the badge color used by the admin UI.
var StatusColor = map[OrderStatus]string{
	StatusNew:                "blue",
	StatusWaitingFeedback:    "amber",
	StatusInProgress:         "indigo",
	StatusSubmittedToKimp360: "purple",
	StatusWaitingSignoff:     "orange",
	StatusSentToPrint:        "teal",
	StatusCompleted:          "green",
	StatusOnHold:             "gray",
}

// IsValidStatus reports whether s is a member of the closed status set.
func IsValidStatus(s OrderStatus) bool {
	_, ok := StatusLabel[s]
	return ok
}

// ShippingInfo is the contact/customer record embedded on an order.
type ShippingInfo struct {
	SchoolName    string `json:"school_name"`
	ContactName   string `json:"contact_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	InternalOrder bool   `json:"internal_order"`
}

// ShippingTrackedFields are the fields the audit diff reports on shipping updates.
var ShippingTrackedFields = []string{"school_name", "contact_name", "email", "phone", "address", "internal_order"}

// Order represents a print/marketing-material order.
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderNumber string      `gorm:"uniqueIndex;not null" json:"order_number"` // immutable once assigned
	Status      OrderStatus `gorm:"not null;default:'new'" json:"status"`

	AssignedToID *uint `gorm:"index" json:"assigned_to_id"` // nullable, admin actor
	AssignedTo   *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`

	CustomerID *uint `gorm:"index" json:"customer_id,omitempty"` // nullable, linked account
	Customer   *User `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	ShippingInfo ShippingInfo `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_info"`

	// CCEmails is an ordered set of distinct lowercase addresses, none matching
	// the primary contact email.
	CCEmails []string `gorm:"serializer:json" json:"cc_emails"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Notes []OrderNote `gorm:"foreignKey:OrderID" json:"notes,omitempty"`

	// ProofVersionSeq is the high-water mark for proof versions on this order.
	// It only ever increases, so deleted proof versions are never reused.
	ProofVersionSeq int `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // soft-archive only, never a hard delete
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one line item on an order.
type OrderItem struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	OrderID  uint   `gorm:"not null;index" json:"order_id"`
	Name     string `gorm:"not null" json:"name"`
	Quantity int    `gorm:"not null;default:1" json:"quantity"`
	Spec     string `gorm:"type:text" json:"spec"` // free-text print spec (size, stock, finish)

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderNote is an internal admin note on an order. Only the author may delete it.
type OrderNote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	AdminID   uint      `gorm:"not null" json:"admin_id"`
	AdminName string    `gorm:"not null" json:"admin_name"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the OrderNote model
func (OrderNote) TableName() string {
	return "order_notes"
}
