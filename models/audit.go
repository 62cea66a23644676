package models

import "time"

// AuditCategory groups audit actions by the entity family they touch.
type AuditCategory string

const (
	CategoryOrders         AuditCategory = "orders"
	CategoryUsers          AuditCategory = "users"
	CategoryAuth           AuditCategory = "auth"
	CategoryProofs         AuditCategory = "proofs"
	CategoryCommunications AuditCategory = "communications"
	CategoryProducts       AuditCategory = "products"
)

// AuditLog is one immutable record of a state-changing operation. Details is a
// variant payload whose shape depends on Action; the audit package renders it.
// Total ordering is CreatedAt then ID. A nil actor means the system itself.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Category AuditCategory `gorm:"not null;index" json:"category"`
	Action   string        `gorm:"not null;index" json:"action"` // dotted, e.g. order.status_change

	ActorID    *uint  `gorm:"index" json:"actor_id"`
	ActorName  string `json:"actor_name"`
	ActorEmail string `json:"actor_email"`

	Details map[string]interface{} `gorm:"serializer:json" json:"details"`

	IPAddress string `json:"ip_address"`
}

// TableName specifies the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// OrderAck is the per-admin, per-order read state the notification counts are
// computed against. Counts themselves are always derived from source rows.
type OrderAck struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;uniqueIndex:idx_order_admin" json:"order_id"`
	AdminID uint `gorm:"not null;uniqueIndex:idx_order_admin" json:"admin_id"`

	AckedAt   time.Time `gorm:"not null" json:"acked_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the OrderAck model
func (OrderAck) TableName() string {
	return "order_acks"
}
