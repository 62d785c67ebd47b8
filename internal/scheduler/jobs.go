package scheduler

import (
	"context"
	"time"

	"fintrack/internal/services"
)

// Names of the standard jobs.
const (
	JobAdvanceRecurrences = "advance_recurrences"
	JobBudgetSweep        = "budget_sweep"
	JobGoalReminders      = "goal_reminders"
)

// Clock returns the current time. Jobs take it so tests can pin "now".
type Clock func() time.Time

// Schedules holds the cron spec of each standard job. Empty specs leave the
// job available to RunJob only.
type Schedules struct {
	Recurrences       string
	BudgetChecks      string
	GoalNotifications string
}

// AdvanceRecurrencesJob advances every recurring transaction due at the
// time of the run.
func AdvanceRecurrencesJob(advancer services.RecurrenceAdvancer, now Clock) JobFunc {
	return func(ctx context.Context) error {
		_, err := advancer.AdvanceDueRecurrences(ctx, now().UTC())
		return err
	}
}

// BudgetSweepJob evaluates every user's budgets for the current year.
func BudgetSweepJob(evaluator services.ExceedanceEvaluator, now Clock) JobFunc {
	return func(ctx context.Context) error {
		_, err := evaluator.EvaluateAll(ctx, now().UTC().Year())
		return err
	}
}

// GoalRemindersJob mails each goal owner their monthly progress.
func GoalRemindersJob(goals services.GoalServicer, now Clock) JobFunc {
	return func(ctx context.Context) error {
		_, err := goals.SendMonthlyNotifications(ctx, now().UTC())
		return err
	}
}

// RegisterStandardJobs registers the three standard jobs on s.
func RegisterStandardJobs(
	s *Scheduler,
	sched Schedules,
	advancer services.RecurrenceAdvancer,
	evaluator services.ExceedanceEvaluator,
	goals services.GoalServicer,
	now Clock,
) error {
	if now == nil {
		now = time.Now
	}
	if err := s.Register(JobAdvanceRecurrences, sched.Recurrences, AdvanceRecurrencesJob(advancer, now)); err != nil {
		return err
	}
	if err := s.Register(JobBudgetSweep, sched.BudgetChecks, BudgetSweepJob(evaluator, now)); err != nil {
		return err
	}
	return s.Register(JobGoalReminders, sched.GoalNotifications, GoalRemindersJob(goals, now))
}
