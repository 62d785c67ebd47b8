package services

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/metrics"
	"fintrack/internal/models"
	"fintrack/internal/notify"
	"fintrack/internal/store"
)

// AggregationResult holds one user's budgeted and actual totals for a
// calendar year.
type AggregationResult struct {
	TotalIncomeBudget  decimal.Decimal `json:"total_income_budget"`
	TotalExpenseBudget decimal.Decimal `json:"total_expense_budget"`
	TotalIncomeActual  decimal.Decimal `json:"total_income_actual"`
	TotalExpenseActual decimal.Decimal `json:"total_expense_actual"`
}

// CategoryExceedance describes one category whose actual total is above its
// budgeted total.
type CategoryExceedance struct {
	Category          models.Category `json:"category"`
	Budgeted          decimal.Decimal `json:"budgeted"`
	Actual            decimal.Decimal `json:"actual"`
	BudgetedFormatted string          `json:"budgeted_formatted"`
	ActualFormatted   string          `json:"actual_formatted"`
}

// Alert is the composed notification for an exceeded budget.
type Alert struct {
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
}

// Evaluation is the full outcome of evaluating one user and year.
// DispatchErr is set when an alert was due but could not be delivered; the
// evaluation itself still stands.
type Evaluation struct {
	UserID      string               `json:"user_id"`
	Year        int                  `json:"year"`
	Totals      AggregationResult    `json:"totals"`
	Exceeded    bool                 `json:"exceeded"`
	Exceedances []CategoryExceedance `json:"exceedances,omitempty"`
	Alert       *Alert               `json:"alert,omitempty"`
	Recipients  []string             `json:"recipients,omitempty"`
	Dispatched  bool                 `json:"dispatched"`
	DispatchErr error                `json:"-"`
}

// EvaluationResult is the reduced result handed to schedulers and request
// handlers.
type EvaluationResult struct {
	Exceeded bool `json:"exceeded"`
}

// SweepResult summarizes an evaluation pass over all users. Users counts the
// users actually evaluated, which is fewer than all of them when the pass is
// cancelled.
type SweepResult struct {
	Users    int `json:"users"`
	Exceeded int `json:"exceeded"`
	Failed   int `json:"failed"`
}

// EvaluatorOptions tunes an ExceedanceEvaluator.
type EvaluatorOptions struct {
	// NotifyTimeout bounds each alert dispatch. Zero means 10s.
	NotifyTimeout time.Duration
	// SweepConcurrency caps how many users EvaluateAll evaluates at once.
	// Values below 1 mean 1.
	SweepConcurrency int
}

type exceedanceEvaluator struct {
	budgets       store.BudgetStore
	transactions  store.TransactionStore
	users         store.UserStore
	notifier      notify.Notifier
	notifyTimeout time.Duration
	concurrency   int
}

// NewExceedanceEvaluator creates a new ExceedanceEvaluator.
func NewExceedanceEvaluator(budgets store.BudgetStore, transactions store.TransactionStore, users store.UserStore, notifier notify.Notifier, opts EvaluatorOptions) ExceedanceEvaluator {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}
	if opts.SweepConcurrency < 1 {
		opts.SweepConcurrency = 1
	}
	return &exceedanceEvaluator{
		budgets:       budgets,
		transactions:  transactions,
		users:         users,
		notifier:      notifier,
		notifyTimeout: opts.NotifyTimeout,
		concurrency:   opts.SweepConcurrency,
	}
}

// YearWindow returns [Jan 1 of year, Jan 1 of year+1) in UTC.
func YearWindow(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// Evaluate aggregates the user's budgets and transactions for year and, when
// either category's actual total is above its budget, alerts every ADMIN.
func (e *exceedanceEvaluator) Evaluate(ctx context.Context, user *models.User, year int) (*Evaluation, error) {
	if user == nil {
		return nil, apperrors.WithMessage(apperrors.ErrRecordNotFound, "user is required")
	}
	log := logger.Get()
	start, end := YearWindow(year)

	var (
		budgets []models.Budget
		txs     []models.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = e.budgets.FindByUserAndDateRange(gctx, user.ID, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = e.transactions.FindByUserAndDateRange(gctx, user.ID, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.BudgetEvaluations.WithLabelValues("error").Inc()
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	eval := &Evaluation{UserID: user.ID, Year: year, Totals: aggregate(budgets, txs)}
	eval.Exceedances = exceedances(eval.Totals)
	eval.Exceeded = len(eval.Exceedances) > 0

	if !eval.Exceeded {
		metrics.BudgetEvaluations.WithLabelValues("within").Inc()
		return eval, nil
	}
	metrics.BudgetEvaluations.WithLabelValues("exceeded").Inc()

	alert, err := composeAlert(user, year, eval.Exceedances)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	eval.Alert = alert

	admins, err := e.users.FindAllWithRole(ctx, models.RoleAdmin)
	if err != nil {
		eval.DispatchErr = apperrors.Wrap(apperrors.ErrPersistence, err)
		log.Errorw("failed to load alert recipients", "user_id", user.ID, "year", year, "error", err)
		metrics.NotificationsSent.WithLabelValues("budget_alert", "failed").Inc()
		return eval, nil
	}
	for _, a := range admins {
		if a.Email != "" {
			eval.Recipients = append(eval.Recipients, a.Email)
		}
	}
	if len(eval.Recipients) == 0 {
		log.Warnw("budget exceeded but no admin to notify", "user_id", user.ID, "year", year)
		metrics.NotificationsSent.WithLabelValues("budget_alert", "skipped").Inc()
		return eval, nil
	}

	if err := e.dispatch(ctx, eval.Recipients, alert); err != nil {
		eval.DispatchErr = apperrors.Wrap(apperrors.ErrDispatch, err)
		log.Errorw("failed to dispatch budget alert", "user_id", user.ID, "year", year, "error", err)
		metrics.NotificationsSent.WithLabelValues("budget_alert", "failed").Inc()
		return eval, nil
	}
	eval.Dispatched = true
	metrics.NotificationsSent.WithLabelValues("budget_alert", "sent").Inc()
	log.Infow("budget alert dispatched", "user_id", user.ID, "year", year, "recipients", len(eval.Recipients))
	return eval, nil
}

func (e *exceedanceEvaluator) dispatch(ctx context.Context, recipients []string, alert *Alert) error {
	ctx, cancel := context.WithTimeout(ctx, e.notifyTimeout)
	defer cancel()

	err := e.notifier.Send(ctx, recipients, alert.Subject, alert.BodyHTML)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return err
}

// EvaluateBudgetExceedance is Evaluate reduced to its verdict.
func (e *exceedanceEvaluator) EvaluateBudgetExceedance(ctx context.Context, user *models.User, year int) (EvaluationResult, error) {
	eval, err := e.Evaluate(ctx, user, year)
	if err != nil {
		return EvaluationResult{}, err
	}
	return EvaluationResult{Exceeded: eval.Exceeded}, nil
}

// EvaluateUser loads the user by id and evaluates it.
func (e *exceedanceEvaluator) EvaluateUser(ctx context.Context, userID string, year int) (*Evaluation, error) {
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrRecordNotFound, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return e.Evaluate(ctx, user, year)
}

// EvaluateAll evaluates every user for year with bounded parallelism.
// Per-user failures are counted and never stop the sweep.
func (e *exceedanceEvaluator) EvaluateAll(ctx context.Context, year int) (SweepResult, error) {
	users, err := e.users.FindAll(ctx)
	if err != nil {
		return SweepResult{}, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	var exceeded, failed atomic.Int64
	var evaluated int
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range users {
		if ctx.Err() != nil {
			break
		}
		user := &users[i]
		evaluated++
		g.Go(func() error {
			eval, err := e.Evaluate(ctx, user, year)
			if err != nil {
				failed.Add(1)
				logger.Get().Errorw("budget evaluation failed", "user_id", user.ID, "year", year, "error", err)
				return nil
			}
			if eval.Exceeded {
				exceeded.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := SweepResult{Users: evaluated, Exceeded: int(exceeded.Load()), Failed: int(failed.Load())}
	logger.Get().Infow("budget sweep finished", "year", year, "users", res.Users, "exceeded", res.Exceeded, "failed", res.Failed)
	return res, ctx.Err()
}

func aggregate(budgets []models.Budget, txs []models.Transaction) AggregationResult {
	var r AggregationResult
	for _, b := range budgets {
		switch b.Category {
		case models.CategoryIncome:
			r.TotalIncomeBudget = r.TotalIncomeBudget.Add(b.Amount)
		case models.CategoryExpense:
			r.TotalExpenseBudget = r.TotalExpenseBudget.Add(b.Amount)
		}
	}
	for _, t := range txs {
		switch t.Category {
		case models.CategoryIncome:
			r.TotalIncomeActual = r.TotalIncomeActual.Add(t.Amount)
		case models.CategoryExpense:
			r.TotalExpenseActual = r.TotalExpenseActual.Add(t.Amount)
		}
	}
	return r
}

// exceedances lists the categories whose actual total is above budget.
// Income above its budget counts as well.
func exceedances(r AggregationResult) []CategoryExceedance {
	var out []CategoryExceedance
	if r.TotalIncomeActual.GreaterThan(r.TotalIncomeBudget) {
		out = append(out, newExceedance(models.CategoryIncome, r.TotalIncomeBudget, r.TotalIncomeActual))
	}
	if r.TotalExpenseActual.GreaterThan(r.TotalExpenseBudget) {
		out = append(out, newExceedance(models.CategoryExpense, r.TotalExpenseBudget, r.TotalExpenseActual))
	}
	return out
}

func newExceedance(c models.Category, budgeted, actual decimal.Decimal) CategoryExceedance {
	return CategoryExceedance{
		Category:          c,
		Budgeted:          budgeted,
		Actual:            actual,
		BudgetedFormatted: FormatAmount(budgeted),
		ActualFormatted:   FormatAmount(actual),
	}
}

// FormatAmount renders d with thousands separators and two decimals,
// e.g. 1234.5 as "1,234.50".
func FormatAmount(d decimal.Decimal) string {
	return humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}

var alertTemplate = template.Must(template.New("alert").Parse(`<html><body>
<h2>Budget Exceedance Alert</h2>
<p>User <strong>{{.Name}}</strong> ({{.Email}}) has exceeded the budget for {{.Year}}.</p>
<ul>
{{- range .Lines}}
<li>{{.Category}}: budgeted {{.BudgetedFormatted}}, actual {{.ActualFormatted}}</li>
{{- end}}
</ul>
</body></html>`))

func composeAlert(user *models.User, year int, lines []CategoryExceedance) (*Alert, error) {
	var body bytes.Buffer
	err := alertTemplate.Execute(&body, struct {
		Name  string
		Email string
		Year  int
		Lines []CategoryExceedance
	}{user.FullName(), user.Email, year, lines})
	if err != nil {
		return nil, err
	}
	return &Alert{
		Subject:  "Budget Exceedance Alert for User: " + user.ID,
		BodyHTML: body.String(),
	}, nil
}
