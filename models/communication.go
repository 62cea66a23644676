package models

import "time"

// Direction of a communication relative to the shop.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Attachment is one file attached to a communication.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Communication is one entry in an order's append-only message log. Outbound
// rows record the send attempt; delivery confirmation is the mailer's problem.
// Rows are never edited or deleted.
type Communication struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`

	Direction Direction `gorm:"not null" json:"direction"`
	Subject   string    `gorm:"not null" json:"subject"`
	Body      string    `gorm:"type:text" json:"body"`

	Attachments []Attachment `gorm:"serializer:json" json:"attachments"`

	SenderEmail    string `json:"sender_email"`
	RecipientEmail string `json:"recipient_email"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Communication model
func (Communication) TableName() string {
	return "communications"
}
