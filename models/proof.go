package models

import "time"

// ProofStatus is derived from workflow actions, never set directly.
type ProofStatus string

const (
	ProofPending          ProofStatus = "pending"
	ProofFeedbackReceived ProofStatus = "feedback_received"
	ProofApproved         ProofStatus = "approved" // terminal for this version
)

// Proof is a versioned artifact submitted for customer review before production.
// Versions are strictly increasing per order and never reused, even after a
// delete. The access token is the customer's capability: any holder may read,
// annotate and approve without logging in.
type Proof struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`
	Version int  `gorm:"not null" json:"version"`

	Title    string `gorm:"not null" json:"title"`
	FileURL  string `gorm:"not null" json:"file_url"`
	FileType string `json:"file_type"`

	Status ProofStatus `gorm:"not null;default:'pending'" json:"status"`

	AccessToken string `gorm:"uniqueIndex;not null" json:"access_token"`

	SignedOffBy *string    `json:"signed_off_by,omitempty"`
	SignedOffAt *time.Time `json:"signed_off_at,omitempty"`
	Signature   *string    `json:"signature,omitempty"`

	Annotations []Annotation `gorm:"foreignKey:ProofID" json:"annotations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Proof model
func (Proof) TableName() string {
	return "proofs"
}

// AnnotationType distinguishes point comments from region comments.
type AnnotationType string

const (
	AnnotationPin  AnnotationType = "pin"
	AnnotationArea AnnotationType = "area"
)

// Annotation is a pin or area comment on a specific proof version. Resolution
// is one-way and admin-only; resolving twice is a no-op.
type Annotation struct {
	ID      uint           `gorm:"primaryKey" json:"id"`
	ProofID uint           `gorm:"not null;index" json:"proof_id"`
	Type    AnnotationType `gorm:"not null" json:"type"`

	Comment    string `gorm:"type:text;not null" json:"comment"`
	AuthorName string `gorm:"not null" json:"author_name"`

	// Coordinates are fractions of the rendered proof. W/H are zero for pins.
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`

	Resolved   bool    `gorm:"not null;default:false" json:"resolved"`
	ResolvedBy *string `json:"resolved_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Annotation model
func (Annotation) TableName() string {
	return "annotations"
}
