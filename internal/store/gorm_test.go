package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func TestTransactionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("find_recurring_only_returns_recurring", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		s := NewTransactionStore(db)

		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestTransaction(t, db, user.ID, models.CategoryExpense, "10", testutil.Date(2025, 1, 5))
		rec := testutil.CreateTestRecurringTransaction(t, db, user.ID, models.CategoryExpense, "10",
			testutil.Date(2025, 1, 1), models.FrequencyMonthly, testutil.Date(2025, 2, 1))

		got, err := s.FindRecurring(ctx)
		testutil.AssertNoError(t, err)
		if len(got) != 1 || got[0].ID != rec.ID {
			t.Fatalf("expected only %s, got %+v", rec.ID, got)
		}
	})

	t.Run("date_range_is_half_open", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		s := NewTransactionStore(db)

		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		testutil.CreateTestTransaction(t, db, user.ID, models.CategoryExpense, "1", testutil.Date(2024, 12, 31))
		testutil.CreateTestTransaction(t, db, user.ID, models.CategoryExpense, "2", testutil.Date(2025, 1, 1))
		testutil.CreateTestTransaction(t, db, user.ID, models.CategoryExpense, "3", testutil.Date(2025, 12, 31))
		testutil.CreateTestTransaction(t, db, user.ID, models.CategoryExpense, "4", testutil.Date(2026, 1, 1))
		testutil.CreateTestTransaction(t, db, other.ID, models.CategoryExpense, "5", testutil.Date(2025, 6, 1))

		got, err := s.FindByUserAndDateRange(ctx, user.ID, testutil.Date(2025, 1, 1), testutil.Date(2026, 1, 1))
		testutil.AssertNoError(t, err)
		if len(got) != 2 {
			t.Fatalf("expected 2 transactions, got %d", len(got))
		}
		if got[0].Amount.String() != "2" || got[1].Amount.String() != "3" {
			t.Errorf("unexpected amounts %s, %s", got[0].Amount, got[1].Amount)
		}
	})

	t.Run("save_inserts_then_updates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		s := NewTransactionStore(db)

		user := testutil.CreateTestUser(t, db)
		tx := &models.Transaction{UserID: user.ID, Category: models.CategoryIncome, TransactionDate: testutil.Date(2025, 3, 1)}
		saved, err := s.Save(ctx, tx)
		testutil.AssertNoError(t, err)
		if saved.ID == "" {
			t.Fatal("expected id to be assigned")
		}

		saved.Description = "salary"
		_, err = s.Save(ctx, saved)
		testutil.AssertNoError(t, err)

		var reloaded models.Transaction
		db.First(&reloaded, "id = ?", saved.ID)
		if reloaded.Description != "salary" {
			t.Errorf("expected updated description, got %q", reloaded.Description)
		}
	})

	t.Run("advance_recurrence_swaps_once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		s := NewTransactionStore(db)

		user := testutil.CreateTestUser(t, db)
		expected := testutil.Date(2025, 6, 2)
		orig := testutil.CreateTestRecurringTransaction(t, db, user.ID, models.CategoryExpense, "9.99",
			testutil.Date(2025, 6, 1), models.FrequencyDaily, expected)

		newNext := testutil.Date(2025, 6, 3)
		clone := func() *models.Transaction {
			freq := models.FrequencyDaily
			n := newNext
			return &models.Transaction{
				UserID: user.ID, Category: models.CategoryExpense, Amount: orig.Amount,
				TransactionDate: newNext, IsRecurring: true, RecurrenceFrequency: &freq, NextRecurrenceDate: &n,
			}
		}

		ok, err := s.AdvanceRecurrence(ctx, orig, expected, clone())
		testutil.AssertNoError(t, err)
		if !ok {
			t.Fatal("expected first advance to win")
		}
		if !orig.NextRecurrenceDate.Equal(newNext) {
			t.Errorf("expected original to be advanced in memory, got %s", orig.NextRecurrenceDate)
		}

		ok, err = s.AdvanceRecurrence(ctx, orig, expected, clone())
		testutil.AssertNoError(t, err)
		if ok {
			t.Fatal("expected stale advance to lose")
		}

		var count int64
		db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 2 {
			t.Errorf("expected original plus one clone, got %d rows", count)
		}
	})

	t.Run("advance_recurrence_concurrent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		s := NewTransactionStore(db)

		user := testutil.CreateTestUser(t, db)
		expected := testutil.Date(2025, 6, 2)
		orig := testutil.CreateTestRecurringTransaction(t, db, user.ID, models.CategoryExpense, "1",
			testutil.Date(2025, 6, 1), models.FrequencyDaily, expected)

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				freq := models.FrequencyDaily
				next := testutil.Date(2025, 6, 3)
				mine := *orig
				ok, err := s.AdvanceRecurrence(ctx, &mine, expected, &models.Transaction{
					UserID: user.ID, Category: models.CategoryExpense, Amount: orig.Amount,
					TransactionDate: next, IsRecurring: true, RecurrenceFrequency: &freq, NextRecurrenceDate: &next,
				})
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if ok {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if wins != 1 {
			t.Errorf("expected exactly one winner, got %d", wins)
		}
	})

	t.Run("advance_recurrence_requires_next_on_clone", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		s := NewTransactionStore(db)

		_, err := s.AdvanceRecurrence(ctx, &models.Transaction{}, time.Now(), &models.Transaction{})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestBudgetStore(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	s := NewBudgetStore(db)

	user := testutil.CreateTestUser(t, db)
	testutil.CreateTestBudget(t, db, user.ID, models.CategoryExpense, "100", 2023)
	in2024 := testutil.CreateTestBudget(t, db, user.ID, models.CategoryExpense, "200", 2024)
	in2025 := testutil.CreateTestBudget(t, db, user.ID, models.CategoryIncome, "300", 2025)

	t.Run("overlap_includes_touching_windows", func(t *testing.T) {
		// The 2024 budget ends on Jan 1 2025, which touches the 2025 window.
		got, err := s.FindByUserAndDateRange(ctx, user.ID, testutil.Date(2025, 1, 1), testutil.Date(2026, 1, 1))
		testutil.AssertNoError(t, err)
		if len(got) != 2 || got[0].ID != in2024.ID || got[1].ID != in2025.ID {
			t.Fatalf("unexpected budgets: %+v", got)
		}
	})

	t.Run("other_user_sees_nothing", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db)
		got, err := s.FindByUserAndDateRange(ctx, other.ID, testutil.Date(2025, 1, 1), testutil.Date(2026, 1, 1))
		testutil.AssertNoError(t, err)
		if len(got) != 0 {
			t.Errorf("expected no budgets, got %d", len(got))
		}
	})
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	s := NewUserStore(db)

	regular := testutil.CreateTestUser(t, db)
	admin := testutil.CreateTestAdmin(t, db)

	t.Run("find_by_id", func(t *testing.T) {
		got, err := s.FindByID(ctx, regular.ID)
		testutil.AssertNoError(t, err)
		if got.Email != regular.Email {
			t.Errorf("expected %s, got %s", regular.Email, got.Email)
		}
	})

	t.Run("find_by_id_missing", func(t *testing.T) {
		_, err := s.FindByID(ctx, "0190f2b4-7e3a-7c1d-9b2e-6a5f4c3d2e1f")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("find_all_with_role", func(t *testing.T) {
		got, err := s.FindAllWithRole(ctx, models.RoleAdmin)
		testutil.AssertNoError(t, err)
		if len(got) != 1 || got[0].ID != admin.ID {
			t.Errorf("expected only the admin, got %+v", got)
		}
	})

	t.Run("find_all", func(t *testing.T) {
		got, err := s.FindAll(ctx)
		testutil.AssertNoError(t, err)
		if len(got) != 2 {
			t.Errorf("expected 2 users, got %d", len(got))
		}
	})
}

func TestAuditStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	s := NewAuditStore(db)
	user := testutil.CreateTestUser(t, db)

	entry := &models.AuditLog{UserID: user.ID, Action: "DELETE_BUDGET", ResourceType: "budget", ResourceID: "b-1"}
	if err := s.Append(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ID == "" {
		t.Error("expected the entry to receive an id")
	}

	var count int64
	db.Model(&models.AuditLog{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 audit row, got %d", count)
	}
}
