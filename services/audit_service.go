package services

import (
	"strings"
	"time"

	"github.com/printworks-studio/printworks-api/config"
	"github.com/printworks-studio/printworks-api/models"
	"github.com/rs/zerolog/log"
)

// DefaultAuditPageSize is used when a query does not specify a limit.
const DefaultAuditPageSize = 50

// RecordAudit appends one immutable audit entry. Emission is best-effort: a
// failed write is logged and swallowed so it never rolls back the mutation it
// describes. A nil actor records a system event.
func RecordAudit(category models.AuditCategory, action string, actor *models.Actor, details map[string]interface{}, ipAddress string) {
	entry := models.AuditLog{
		CreatedAt: time.Now().UTC(),
		Category:  category,
		Action:    action,
		Details:   details,
		IPAddress: ipAddress,
	}
	if actor != nil {
		id := actor.ID
		entry.ActorID = &id
		entry.ActorName = actor.Name
		entry.ActorEmail = actor.Email
	}

	if err := config.GetDB().Create(&entry).Error; err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to write audit entry")
	}
}

// AuditFilter is the conjunctive filter set for audit queries. Zero values
// mean "not filtered".
type AuditFilter struct {
	Category  string
	Action    string
	ActorID   *uint
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// AuditPage describes the pagination of a filtered audit query. Totals are
// computed against the filtered set, not the whole log.
type AuditPage struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// QueryAuditLog returns audit entries newest first, filtered and paginated.
// An empty result is a valid response, never an error.
func QueryAuditLog(filter AuditFilter) ([]models.AuditLog, AuditPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultAuditPageSize
	}

	query := config.GetDB().Model(&models.AuditLog{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(action) LIKE ? OR LOWER(actor_name) LIKE ? OR LOWER(actor_email) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, AuditPage{}, err
	}

	var entries []models.AuditLog
	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&entries).Error; err != nil {
		return nil, AuditPage{}, err
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	page := AuditPage{
		Page:       filter.Page,
		Limit:      filter.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
	return entries, page, nil
}

// RecentAuditEntries returns the newest n entries across all categories.
func RecentAuditEntries(n int) ([]models.AuditLog, error) {
	if n < 1 {
		n = DefaultAuditPageSize
	}
	var entries []models.AuditLog
	err := config.GetDB().
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&entries).Error
	return entries, err
}

// AuditActorOption is one distinct actor seen in the log, for filter dropdowns.
type AuditActorOption struct {
	ActorID    *uint  `json:"actor_id"`
	ActorName  string `json:"actor_name"`
	ActorEmail string `json:"actor_email"`
}

// AuditFilterValues returns the distinct categories, actions and actors present
// in the log, for building the audit view's filter controls.
func AuditFilterValues() ([]string, []string, []AuditActorOption, error) {
	db := config.GetDB()

	var categories []string
	if err := db.Model(&models.AuditLog{}).Distinct("category").Order("category").Pluck("category", &categories).Error; err != nil {
		return nil, nil, nil, err
	}

	var actions []string
	if err := db.Model(&models.AuditLog{}).Distinct("action").Order("action").Pluck("action", &actions).Error; err != nil {
		return nil, nil, nil, err
	}

	var actors []AuditActorOption
	if err := db.Model(&models.AuditLog{}).
		Distinct("actor_id", "actor_name", "actor_email").
		Where("actor_id IS NOT NULL").
		Order("actor_name").
		Find(&actors).Error; err != nil {
		return nil, nil, nil, err
	}

	return categories, actions, actors, nil
}
