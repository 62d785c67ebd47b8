// Package app assembles the services, background jobs and HTTP router from
// configuration. The API server, the jobs CLI and the integration tests all
// build the same graph through it.
package app

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"fintrack/internal/config"
	"fintrack/internal/currency"
	"fintrack/internal/lock"
	"fintrack/internal/notify"
	"fintrack/internal/report"
	"fintrack/internal/scheduler"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

// App holds the wired application.
type App struct {
	Config *config.Config
	DB     *gorm.DB

	Users        services.UserServicer
	Transactions services.TransactionServicer
	Budgets      services.BudgetServicer
	Savings      services.SavingsServicer
	Goals        services.GoalServicer
	Audit        services.AuditServicer
	Evaluator    services.ExceedanceEvaluator
	Advancer     services.RecurrenceAdvancer

	Reports   *report.Service
	Converter *currency.Converter
	Scheduler *scheduler.Scheduler
}

// Options overrides collaborators that New would otherwise build from
// configuration.
type Options struct {
	Notifier   notify.Notifier
	Locker     lock.Locker
	HTTPClient *http.Client
	Clock      scheduler.Clock
}

// New wires every service on db. Notifier and Locker default to no-ops.
func New(cfg *config.Config, db *gorm.DB, opts Options) (*App, error) {
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Locker == nil {
		opts.Locker = lock.Nop{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	txStore := store.NewTransactionStore(db)
	budgetStore := store.NewBudgetStore(db)
	userStore := store.NewUserStore(db)

	evaluator := services.NewExceedanceEvaluator(budgetStore, txStore, userStore, opts.Notifier, services.EvaluatorOptions{
		NotifyTimeout:    cfg.NotifyTimeout,
		SweepConcurrency: cfg.SweepConcurrency,
	})
	savings := services.NewSavingsService(db)

	a := &App{
		Config:       cfg,
		DB:           db,
		Users:        services.NewUserService(db),
		Transactions: services.NewTransactionService(db, evaluator),
		Budgets:      services.NewBudgetService(db),
		Savings:      savings,
		Goals:        services.NewGoalService(db, savings, opts.Notifier, cfg.NotifyTimeout),
		Audit:        services.NewAuditService(store.NewAuditStore(db)),
		Evaluator:    evaluator,
		Advancer:     services.NewRecurrenceAdvancer(txStore, evaluator),
		Reports:      report.NewService(txStore, budgetStore, cfg.ReportDir),
		Converter:    currency.NewConverter(opts.HTTPClient, cfg.CurrencyAPIURL, cfg.CurrencyAPIKey, cfg.CurrencyCacheTTL),
		Scheduler:    scheduler.New(opts.Locker, cfg.JobLockTTL),
	}

	sched := scheduler.Schedules{}
	if cfg.SchedulerEnabled {
		sched = scheduler.Schedules{
			Recurrences:       cfg.CronRecurrences,
			BudgetChecks:      cfg.CronBudgetChecks,
			GoalNotifications: cfg.CronGoalNotifications,
		}
	}
	if err := scheduler.RegisterStandardJobs(a.Scheduler, sched, a.Advancer, a.Evaluator, a.Goals, opts.Clock); err != nil {
		return nil, err
	}
	return a, nil
}
