package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/store"
)

type sentMessage struct {
	recipients []string
	subject    string
	body       string
}

// fakeNotifier records messages. When block is set it waits for ctx to end.
type fakeNotifier struct {
	mu    sync.Mutex
	sent  []sentMessage
	err   error
	block bool
}

func (f *fakeNotifier) Send(ctx context.Context, recipients []string, subject, body string) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{recipients: recipients, subject: subject, body: body})
	return nil
}

func (f *fakeNotifier) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

// fakeEvaluator records EvaluateUser calls.
type fakeEvaluator struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeEvaluator) Evaluate(context.Context, *models.User, int) (*Evaluation, error) {
	return &Evaluation{}, f.err
}

func (f *fakeEvaluator) EvaluateBudgetExceedance(context.Context, *models.User, int) (EvaluationResult, error) {
	return EvaluationResult{}, f.err
}

func (f *fakeEvaluator) EvaluateUser(_ context.Context, userID string, year int) (*Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID+"/"+strconv.Itoa(year))
	return &Evaluation{UserID: userID, Year: year}, f.err
}

func (f *fakeEvaluator) EvaluateAll(context.Context, int) (SweepResult, error) {
	return SweepResult{}, f.err
}

var errStoreDown = errors.New("store down")

// failingBudgetStore fails every read.
type failingBudgetStore struct{}

func (failingBudgetStore) FindByUserAndDateRange(context.Context, string, time.Time, time.Time) ([]models.Budget, error) {
	return nil, errStoreDown
}

// losingTransactionStore wraps a TransactionStore and reports every
// AdvanceRecurrence as lost to another worker.
type losingTransactionStore struct {
	store.TransactionStore
}

func (losingTransactionStore) AdvanceRecurrence(context.Context, *models.Transaction, time.Time, *models.Transaction) (bool, error) {
	return false, nil
}

// failingSaveStore fails AdvanceRecurrence for one transaction id.
type failingSaveStore struct {
	store.TransactionStore
	failID string
}

func (s failingSaveStore) AdvanceRecurrence(ctx context.Context, orig *models.Transaction, expected time.Time, clone *models.Transaction) (bool, error) {
	if orig.ID == s.failID {
		return false, errStoreDown
	}
	return s.TransactionStore.AdvanceRecurrence(ctx, orig, expected, clone)
}

// failingWriteStore fails every Save.
type failingWriteStore struct {
	store.TransactionStore
}

func (failingWriteStore) Save(context.Context, *models.Transaction) (*models.Transaction, error) {
	return nil, errStoreDown
}

// cancellingStore cancels the run's context once the first occurrence commits.
type cancellingStore struct {
	store.TransactionStore
	cancel context.CancelFunc
}

func (s cancellingStore) AdvanceRecurrence(ctx context.Context, orig *models.Transaction, expected time.Time, clone *models.Transaction) (bool, error) {
	ok, err := s.TransactionStore.AdvanceRecurrence(ctx, orig, expected, clone)
	if ok {
		s.cancel()
	}
	return ok, err
}

// cancellingUserStore cancels the sweep's context right after listing users.
type cancellingUserStore struct {
	store.UserStore
	cancel context.CancelFunc
}

func (s cancellingUserStore) FindAll(ctx context.Context) ([]models.User, error) {
	users, err := s.UserStore.FindAll(ctx)
	s.cancel()
	return users, err
}
