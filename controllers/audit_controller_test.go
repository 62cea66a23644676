package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/printworks-studio/printworks-api/config"
	"github.com/printworks-studio/printworks-api/models"
)

func auditTestSetup(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()

	db := setupTestDB(t)
	config.SetDB(db)
	admin := createTestAdmin(t, db)

	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	entries := []models.AuditLog{
		{Category: models.CategoryOrders, Action: "order.create", ActorID: nil, Details: map[string]interface{}{"orderNumber": "1001"}, CreatedAt: base},
		{Category: models.CategoryOrders, Action: "order.status_change", ActorID: &admin.ID, ActorName: admin.Name, Details: map[string]interface{}{"orderNumber": "1001", "previousStatus": "new", "status": "in_progress"}, CreatedAt: base.Add(time.Minute)},
		{Category: models.CategoryProofs, Action: "proof.upload", ActorID: &admin.ID, ActorName: admin.Name, Details: map[string]interface{}{"orderNumber": "1001", "version": 1}, CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range entries {
		assert.NoError(t, db.Create(&entries[i]).Error)
	}

	router := adminRouter()
	router.GET("/audit", QueryAuditLog)
	router.GET("/audit/recent", RecentAuditEntries)
	router.GET("/audit/filters", AuditFilterValues)
	return db, router
}

func auditQuery(t *testing.T, router *gin.Engine, path string) (int, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

func auditEntries(response map[string]interface{}) []interface{} {
	data := response["data"].(map[string]interface{})
	return data["entries"].([]interface{})
}

func TestQueryAuditLog_NewestFirstWithFormatting(t *testing.T) {
	_, router := auditTestSetup(t)

	code, response := auditQuery(t, router, "/audit")
	assert.Equal(t, http.StatusOK, code)

	entries := auditEntries(response)
	assert.Len(t, entries, 3)

	newest := entries[0].(map[string]interface{})
	assert.Equal(t, "proof.upload", newest["action"])
	formatted := newest["formatted"].(map[string]interface{})
	assert.NotEmpty(t, formatted["summary"])
}

func TestQueryAuditLog_SystemActorDisplay(t *testing.T) {
	_, router := auditTestSetup(t)

	_, response := auditQuery(t, router, "/audit?action=order.create")
	entries := auditEntries(response)
	assert.Len(t, entries, 1)
	assert.Equal(t, "System", entries[0].(map[string]interface{})["actor_display"])
}

func TestQueryAuditLog_CategoryFilter(t *testing.T) {
	_, router := auditTestSetup(t)

	_, response := auditQuery(t, router, "/audit?category=orders")
	assert.Len(t, auditEntries(response), 2)
}

func TestQueryAuditLog_DateWindow(t *testing.T) {
	_, router := auditTestSetup(t)

	_, response := auditQuery(t, router,
		"/audit?start_date=2026-06-01T09:01:00Z&end_date=2026-06-01T09:01:30Z")
	entries := auditEntries(response)
	assert.Len(t, entries, 1)
	assert.Equal(t, "order.status_change", entries[0].(map[string]interface{})["action"])
}

func TestQueryAuditLog_BadDateRejected(t *testing.T) {
	_, router := auditTestSetup(t)

	code, response := auditQuery(t, router, "/audit?start_date=yesterday")
	assert.Equal(t, http.StatusBadRequest, code)
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errorData["code"])
}

func TestQueryAuditLog_BadActorRejected(t *testing.T) {
	_, router := auditTestSetup(t)

	code, _ := auditQuery(t, router, "/audit?actor_id=sam")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestQueryAuditLog_Pagination(t *testing.T) {
	_, router := auditTestSetup(t)

	_, response := auditQuery(t, router, "/audit?page=2&limit=2")
	entries := auditEntries(response)
	assert.Len(t, entries, 1)

	pagination := response["data"].(map[string]interface{})["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["page"])
	assert.Equal(t, float64(3), pagination["total"])
}

func TestRecentAuditEntries_Limit(t *testing.T) {
	_, router := auditTestSetup(t)

	code, response := auditQuery(t, router, "/audit/recent?limit=2")
	assert.Equal(t, http.StatusOK, code)

	entries := response["data"].([]interface{})
	assert.Len(t, entries, 2)
	assert.Equal(t, "proof.upload", entries[0].(map[string]interface{})["action"])
}

func TestAuditFilterValues_Distinct(t *testing.T) {
	_, router := auditTestSetup(t)

	code, response := auditQuery(t, router, "/audit/filters")
	assert.Equal(t, http.StatusOK, code)

	data := response["data"].(map[string]interface{})
	categories := data["categories"].([]interface{})
	assert.ElementsMatch(t, []interface{}{"orders", "proofs"}, categories)
	assert.Len(t, data["actions"].([]interface{}), 3)
	assert.Len(t, data["actors"].([]interface{}), 1)
}
