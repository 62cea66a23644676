package poller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/printworks-studio/printworks-api/config"
	"github.com/printworks-studio/printworks-api/models"
)

func setupPollerDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderNote{},
		&models.Proof{},
		&models.Annotation{},
		&models.Communication{},
		&models.AuditLog{},
		&models.OrderAck{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	return db
}

func seedWatchedOrder(t *testing.T, db *gorm.DB) models.Order {
	t.Helper()

	order := models.Order{
		OrderNumber: "1001",
		Status:      models.StatusNew,
		ShippingInfo: models.ShippingInfo{
			ContactName: "Dana Reyes",
			Email:       "dana@northside.edu",
		},
		Items: []models.OrderItem{{Name: "Banner 3x6", Quantity: 2}},
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}
	return order
}

func TestOrderWatcher_FirstTickSeedsWithoutFiring(t *testing.T) {
	db := setupPollerDB(t)
	order := seedWatchedOrder(t, db)

	fired := 0
	watcher := &OrderWatcher{OrderID: order.ID, OnChange: func(OrderView) { fired++ }}

	view, err := watcher.RunTick(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, order.OrderNumber, view.Order.OrderNumber)
	assert.Zero(t, fired, "the first tick only seeds the baseline")
}

func TestOrderWatcher_FiresOnStatusChange(t *testing.T) {
	db := setupPollerDB(t)
	order := seedWatchedOrder(t, db)

	var seen []OrderView
	watcher := &OrderWatcher{OrderID: order.ID, OnChange: func(v OrderView) { seen = append(seen, v) }}

	_, err := watcher.RunTick(context.Background())
	assert.NoError(t, err)

	assert.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", models.StatusInProgress).Error)

	_, err = watcher.RunTick(context.Background())
	assert.NoError(t, err)
	assert.Len(t, seen, 1)
	assert.Equal(t, models.StatusInProgress, seen[0].Order.Status)

	// Nothing changed since, so the next tick stays quiet.
	_, err = watcher.RunTick(context.Background())
	assert.NoError(t, err)
	assert.Len(t, seen, 1)
}

func TestOrderWatcher_FiresOnAssignmentChange(t *testing.T) {
	db := setupPollerDB(t)
	order := seedWatchedOrder(t, db)

	admin := models.User{Auth0ID: "auth0|admin", Email: "sam@printworks.studio", Name: "Sam Okafor", Role: "admin"}
	assert.NoError(t, db.Create(&admin).Error)

	fired := 0
	watcher := &OrderWatcher{OrderID: order.ID, OnChange: func(OrderView) { fired++ }}

	_, err := watcher.RunTick(context.Background())
	assert.NoError(t, err)

	assert.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("assigned_to_id", admin.ID).Error)

	_, err = watcher.RunTick(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, fired)

	assert.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("assigned_to_id", nil).Error)

	_, err = watcher.RunTick(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, fired, "unassigning is a change too")
}

func TestOrderWatcher_ObserveSuppressesKnownChange(t *testing.T) {
	db := setupPollerDB(t)
	order := seedWatchedOrder(t, db)

	fired := 0
	watcher := &OrderWatcher{OrderID: order.ID, OnChange: func(OrderView) { fired++ }}

	_, err := watcher.RunTick(context.Background())
	assert.NoError(t, err)

	// The user changed the status themselves and re-rendered, so the owner
	// observes the new state before the next tick.
	assert.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", models.StatusCompleted).Error)

	var current models.Order
	assert.NoError(t, db.First(&current, order.ID).Error)
	watcher.Observe(&current)

	_, err = watcher.RunTick(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, fired)
}

func TestOrderWatcher_FetchPopulatesView(t *testing.T) {
	db := setupPollerDB(t)
	order := seedWatchedOrder(t, db)

	note := models.OrderNote{OrderID: order.ID, AdminID: 1, AdminName: "Sam Okafor", Text: "Rush job"}
	assert.NoError(t, db.Create(&note).Error)
	comm := models.Communication{OrderID: order.ID, Direction: models.DirectionInbound, Subject: "Question"}
	assert.NoError(t, db.Create(&comm).Error)
	proof := models.Proof{OrderID: order.ID, Version: 1, Title: "Round 1", FileURL: "proofs/1/v1.pdf", AccessToken: "tok-watch", Status: models.ProofPending}
	assert.NoError(t, db.Create(&proof).Error)
	annotation := models.Annotation{ProofID: proof.ID, Type: models.AnnotationPin, AuthorName: "Dana Reyes", Comment: "Logo bigger"}
	assert.NoError(t, db.Create(&annotation).Error)

	watcher := &OrderWatcher{OrderID: order.ID}
	view, err := watcher.RunTick(context.Background())
	assert.NoError(t, err)

	assert.Len(t, view.Order.Items, 1)
	assert.Len(t, view.Notes, 1)
	assert.Len(t, view.Communications, 1)
	assert.Len(t, view.Proofs, 1)
	assert.Len(t, view.Proofs[0].Annotations, 1)
}

func TestOrderWatcher_MissingOrderIsAnError(t *testing.T) {
	setupPollerDB(t)

	watcher := &OrderWatcher{OrderID: 9999}
	_, err := watcher.RunTick(context.Background())
	assert.Error(t, err)
}

func TestOrderWatcher_StopWithoutStart(t *testing.T) {
	watcher := &OrderWatcher{OrderID: 1}
	assert.NoError(t, watcher.Stop())
}
