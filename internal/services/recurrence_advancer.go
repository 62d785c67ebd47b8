package services

import (
	"context"
	"errors"
	"time"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/metrics"
	"fintrack/internal/models"
	"fintrack/internal/recurrence"
	"fintrack/internal/store"
)

// AdvanceResult counts what one advancer run did. Skipped transactions were
// due but another run advanced them first.
type AdvanceResult struct {
	Advanced int `json:"advanced"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// postAdvanceEvalTimeout bounds the budget checks that follow a run, which
// outlive the run's own context.
const postAdvanceEvalTimeout = 30 * time.Second

type userYear struct {
	userID string
	year   int
}

type recurrenceAdvancer struct {
	transactions store.TransactionStore
	evaluator    ExceedanceEvaluator
}

// NewRecurrenceAdvancer creates a new RecurrenceAdvancer. evaluator may be
// nil, in which case no budget check follows a new occurrence.
func NewRecurrenceAdvancer(transactions store.TransactionStore, evaluator ExceedanceEvaluator) RecurrenceAdvancer {
	return &recurrenceAdvancer{transactions: transactions, evaluator: evaluator}
}

// AdvanceDueRecurrences creates the next occurrence of every recurring
// transaction whose next recurrence date is before asOf, and moves the
// source's next recurrence date forward one period.
//
// Only one occurrence is created per transaction per run, however many
// periods were missed. Failures are counted per transaction and never stop
// the run. When ctx is cancelled the run stops between transactions and
// returns what it did so far together with ctx.Err(). Budget checks for the
// occurrences already committed still run, on a detached bounded context.
func (a *recurrenceAdvancer) AdvanceDueRecurrences(ctx context.Context, asOf time.Time) (AdvanceResult, error) {
	var res AdvanceResult
	log := logger.Get()

	txs, err := a.transactions.FindRecurring(ctx)
	if err != nil {
		return res, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	var touched []userYear
	seen := make(map[userYear]bool)

	for i := range txs {
		if err := ctx.Err(); err != nil {
			log.Warnw("recurrence run interrupted", "advanced", res.Advanced, "failed", res.Failed, "error", err)
			a.evaluateTouched(ctx, touched)
			return res, err
		}

		tx := &txs[i]
		if !tx.IsDue(asOf) {
			continue
		}

		clone, err := nextOccurrence(tx, asOf)
		if err != nil {
			res.Failed++
			metrics.RecurrencesProcessed.WithLabelValues("failed").Inc()
			log.Errorw("cannot compute next occurrence", "transaction_id", tx.ID, "error", err)
			continue
		}

		ok, err := a.transactions.AdvanceRecurrence(ctx, tx, *tx.NextRecurrenceDate, clone)
		switch {
		case err != nil:
			res.Failed++
			metrics.RecurrencesProcessed.WithLabelValues("failed").Inc()
			log.Errorw("failed to advance recurring transaction", "transaction_id", tx.ID, "error", err)
			continue
		case !ok:
			res.Skipped++
			metrics.RecurrencesProcessed.WithLabelValues("skipped").Inc()
			log.Debugw("recurring transaction already advanced", "transaction_id", tx.ID)
			continue
		}

		res.Advanced++
		metrics.RecurrencesProcessed.WithLabelValues("advanced").Inc()
		log.Infow("recurring transaction advanced",
			"transaction_id", tx.ID,
			"occurrence_id", clone.ID,
			"next_recurrence_date", clone.NextRecurrenceDate,
		)

		key := userYear{clone.UserID, clone.TransactionDate.UTC().Year()}
		if !seen[key] {
			seen[key] = true
			touched = append(touched, key)
		}
	}

	a.evaluateTouched(ctx, touched)

	log.Infow("recurrence run finished", "as_of", asOf, "advanced", res.Advanced, "failed", res.Failed, "skipped", res.Skipped)
	return res, nil
}

// evaluateTouched runs one budget check per (user, year) that gained an
// occurrence. It ignores cancellation of ctx since the occurrences are
// already committed.
func (a *recurrenceAdvancer) evaluateTouched(ctx context.Context, touched []userYear) {
	if a.evaluator == nil || len(touched) == 0 {
		return
	}
	ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postAdvanceEvalTimeout)
	defer cancel()

	log := logger.Get()
	for i, k := range touched {
		if err := ectx.Err(); err != nil {
			log.Warnw("budget checks after recurrence abandoned", "remaining", len(touched)-i, "error", err)
			return
		}
		if _, err := a.evaluator.EvaluateUser(ectx, k.userID, k.year); err != nil {
			log.Errorw("budget check after recurrence failed", "user_id", k.userID, "year", k.year, "error", err)
		}
	}
}

// nextOccurrence builds the occurrence that tx produces at asOf. The new
// transaction is dated asOf and is itself recurring.
func nextOccurrence(tx *models.Transaction, asOf time.Time) (*models.Transaction, error) {
	if tx.RecurrenceFrequency == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidFrequency, errors.New("recurring transaction has no frequency"))
	}
	next, err := recurrence.NextOccurrence(*tx.NextRecurrenceDate, *tx.RecurrenceFrequency)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidFrequency, err)
	}

	freq := *tx.RecurrenceFrequency
	return &models.Transaction{
		UserID:              tx.UserID,
		Tag:                 tx.Tag,
		Category:            tx.Category,
		Description:         tx.Description,
		Amount:              tx.Amount,
		TransactionDate:     asOf,
		IsRecurring:         true,
		RecurrenceFrequency: &freq,
		NextRecurrenceDate:  &next,
	}, nil
}
