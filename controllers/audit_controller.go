package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/printworks-studio/printworks-api/audit"
	"github.com/printworks-studio/printworks-api/models"
	"github.com/printworks-studio/printworks-api/services"
)

// auditEntryView is one audit entry plus its human-readable rendering.
type auditEntryView struct {
	models.AuditLog
	ActorDisplay string          `json:"actor_display"`
	Formatted    audit.Formatted `json:"formatted"`
}

func toAuditViews(entries []models.AuditLog) []auditEntryView {
	views := make([]auditEntryView, 0, len(entries))
	for _, entry := range entries {
		display := entry.ActorName
		if entry.ActorID == nil {
			display = "System"
		}
		views = append(views, auditEntryView{
			AuditLog:     entry,
			ActorDisplay: display,
			Formatted:    audit.Format(entry.Action, entry.Details),
		})
	}
	return views
}

// QueryAuditLog handles GET /api/v1/audit - filtered, paginated audit entries,
// newest first. No filters and no matches are both valid empty results.
func QueryAuditLog(c *gin.Context) {
	filter := services.AuditFilter{
		Category: c.Query("category"),
		Action:   c.Query("action"),
		Search:   c.Query("search"),
	}

	if v := c.Query("actor_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			validationError(c, "actor_id must be numeric")
			return
		}
		actorID := uint(id)
		filter.ActorID = &actorID
	}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			validationError(c, "start_date must be RFC3339")
			return
		}
		t = t.UTC()
		filter.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			validationError(c, "end_date must be RFC3339")
			return
		}
		t = t.UTC()
		filter.EndDate = &t
	}
	if v := c.Query("page"); v != "" {
		filter.Page, _ = strconv.Atoi(v)
	}
	if v := c.Query("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}

	entries, page, err := services.QueryAuditLog(filter)
	if err != nil {
		databaseError(c, "Failed to query audit log")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"entries":    toAuditViews(entries),
			"pagination": page,
		},
	})
}

// RecentAuditEntries handles GET /api/v1/audit/recent
func RecentAuditEntries(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := services.RecentAuditEntries(limit)
	if err != nil {
		databaseError(c, "Failed to fetch audit entries")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    toAuditViews(entries),
	})
}

// AuditFilterValues handles GET /api/v1/audit/filters - distinct categories,
// actions and actors for the audit view's filter controls
func AuditFilterValues(c *gin.Context) {
	categories, actions, actors, err := services.AuditFilterValues()
	if err != nil {
		databaseError(c, "Failed to fetch audit filter values")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"categories": categories,
			"actions":    actions,
			"actors":     actors,
		},
	})
}
