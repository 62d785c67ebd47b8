package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
	"fintrack/internal/store"
	"fintrack/internal/testutil"
)

// failingAuditStore rejects every append.
type failingAuditStore struct{}

func (failingAuditStore) Append(context.Context, *models.AuditLog) error { return errStoreDown }

func TestAuditLog(t *testing.T) {
	t.Run("normalizes_entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(store.NewAuditStore(db))
		user := testutil.CreateTestUser(t, db)

		svc.Log(user.ID, " create_budget ", "Budget", "b-1", "10.0.0.1", map[string]any{
			"amount":   decimal.RequireFromString("12.5"),
			"date":     testutil.Date(2025, 3, 4),
			"password": "hunter2",
			"category": models.CategoryExpense,
		})

		var entry models.AuditLog
		if err := db.Where("user_id = ?", user.ID).First(&entry).Error; err != nil {
			t.Fatalf("expected an audit row: %v", err)
		}
		if entry.Action != "CREATE_BUDGET" || entry.ResourceType != "budget" {
			t.Errorf("unexpected action/resource %q/%q", entry.Action, entry.ResourceType)
		}
		var changes map[string]string
		if err := json.Unmarshal([]byte(entry.Changes), &changes); err != nil {
			t.Fatalf("changes are not JSON: %v", err)
		}
		if changes["amount"] != "12.50" {
			t.Errorf("expected amount 12.50, got %q", changes["amount"])
		}
		if changes["date"] != "2025-03-04" {
			t.Errorf("expected date 2025-03-04, got %q", changes["date"])
		}
		if changes["password"] != "changed" {
			t.Errorf("expected password redacted, got %q", changes["password"])
		}
		if changes["category"] != string(models.CategoryExpense) {
			t.Errorf("expected category %q, got %q", models.CategoryExpense, changes["category"])
		}
	})

	t.Run("no_changes_stores_empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(store.NewAuditStore(db))
		user := testutil.CreateTestUser(t, db)

		svc.Log(user.ID, "DELETE_GOAL", "goal", "g-1", "", nil)

		var entry models.AuditLog
		if err := db.Where("user_id = ?", user.ID).First(&entry).Error; err != nil {
			t.Fatalf("expected an audit row: %v", err)
		}
		if entry.Changes != "" {
			t.Errorf("expected no changes, got %q", entry.Changes)
		}
	})

	t.Run("missing_user_dropped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(store.NewAuditStore(db))

		svc.Log("", "DELETE_GOAL", "goal", "g-1", "", nil)

		var count int64
		db.Model(&models.AuditLog{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no audit rows, got %d", count)
		}
	})

	t.Run("store_failure_is_swallowed", func(t *testing.T) {
		svc := NewAuditService(failingAuditStore{})
		svc.Log("u-1", "DELETE_GOAL", "goal", "g-1", "", map[string]any{"amount": decimal.NewFromInt(1)})
	})
}

func TestAuditChangesLeavesInputUntouched(t *testing.T) {
	in := map[string]any{"password": "secret", "amount": decimal.NewFromInt(3)}
	out := auditChanges(in)
	if in["password"] != "secret" {
		t.Errorf("input was modified: %v", in)
	}
	if out["amount"] != "3.00" {
		t.Errorf("expected 3.00, got %v", out["amount"])
	}
}
