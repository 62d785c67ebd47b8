package services

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/metrics"
	"fintrack/internal/models"
	"fintrack/internal/notify"
	"fintrack/internal/pagination"
)

type goalService struct {
	db       *gorm.DB
	savings  SavingsServicer
	notifier notify.Notifier
	timeout  time.Duration
}

// NewGoalService creates a new GoalServicer. notifier delivers the monthly
// progress reminders, each bounded by notifyTimeout.
func NewGoalService(db *gorm.DB, savings SavingsServicer, notifier notify.Notifier, notifyTimeout time.Duration) GoalServicer {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if notifyTimeout <= 0 {
		notifyTimeout = 10 * time.Second
	}
	return &goalService{db: db, savings: savings, notifier: notifier, timeout: notifyTimeout}
}

func validateGoal(in GoalInput) error {
	if in.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
	}
	if in.TargetAmount.IsNegative() || in.CurrentAmount.IsNegative() {
		return apperrors.ErrNegativeAmount
	}
	if in.SavingsRate < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "savings rate must not be negative")
	}
	if in.DueDate.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "due date is required")
	}
	return nil
}

func applyGoalInput(g *models.Goal, in GoalInput) {
	g.Name = in.Name
	g.TargetAmount = in.TargetAmount
	g.CurrentAmount = in.CurrentAmount
	g.DueDate = in.DueDate
	g.SavingsRate = in.SavingsRate
}

func (s *goalService) CreateGoal(ctx context.Context, userID string, in GoalInput) (*models.Goal, error) {
	if err := validateGoal(in); err != nil {
		return nil, err
	}
	goal := &models.Goal{UserID: userID}
	applyGoalInput(goal, in)
	if err := s.db.WithContext(ctx).Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

func (s *goalService) GetUserGoals(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Goal{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var goals []models.Goal
	if err := base.Scopes(pagination.Paginate(page)).Order("due_date ASC").Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(goals, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *goalService) GetGoalByID(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}

func (s *goalService) UpdateGoal(ctx context.Context, userID, goalID string, in GoalInput) (*models.Goal, error) {
	if err := validateGoal(in); err != nil {
		return nil, err
	}
	goal, err := s.GetGoalByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	applyGoalInput(goal, in)
	if err := s.db.WithContext(ctx).Save(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

func (s *goalService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	goal, err := s.GetGoalByID(ctx, userID, goalID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(goal).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// MonthsToGoal projects how many months the goal takes: the pooled savings
// are spread over SavingsRate months, and the target is divided by that
// monthly allocation, rounded half up. It is 0 when there is nothing to
// allocate.
func MonthsToGoal(goal *models.Goal, totalSavings decimal.Decimal) int {
	if goal.SavingsRate <= 0 || !totalSavings.IsPositive() {
		return 0
	}
	monthly := totalSavings.Div(decimal.NewFromFloat(goal.SavingsRate))
	if !monthly.IsPositive() {
		return 0
	}
	return int(goal.TargetAmount.Div(monthly).Round(0).IntPart())
}

// MonthsRemaining counts whole months from today's month to the due date's
// month, ignoring the day of month. Past due dates give a negative count.
func MonthsRemaining(today, due time.Time) int {
	return (due.Year()-today.Year())*12 + int(due.Month()) - int(today.Month())
}

func (s *goalService) GetGoalProgress(ctx context.Context, userID, goalID string, today time.Time) (*GoalProgress, error) {
	goal, err := s.GetGoalByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	total, err := s.savings.TotalSavings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &GoalProgress{
		GoalID:          goal.ID,
		MonthsToGoal:    MonthsToGoal(goal, total),
		MonthsRemaining: MonthsRemaining(today, goal.DueDate),
	}, nil
}

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// AchieveMonths counts, for each calendar month name, how many of the user's
// goals are still being saved for in that month of a January-based year.
// A goal needing n months contributes to the first min(n, 12) months.
func (s *goalService) AchieveMonths(ctx context.Context, userID string) (map[string]int, error) {
	var goals []models.Goal
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	total, err := s.savings.TotalSavings(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for i := range goals {
		n := min(MonthsToGoal(&goals[i], total), len(monthNames))
		for m := 0; m < n; m++ {
			counts[monthNames[m]]++
		}
	}
	return counts, nil
}

// SendMonthlyNotifications mails every goal owner a reminder with the months
// left, or a congratulation once the due month has been reached.
func (s *goalService) SendMonthlyNotifications(ctx context.Context, today time.Time) (GoalNotifyResult, error) {
	type goalOwner struct {
		models.Goal
		Email string
	}
	var rows []goalOwner
	err := s.db.WithContext(ctx).
		Model(&models.Goal{}).
		Select("goals.*, users.email AS email").
		Joins("JOIN users ON users.id = goals.user_id AND users.deleted_at IS NULL").
		Scan(&rows).Error
	if err != nil {
		return GoalNotifyResult{}, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	var res GoalNotifyResult
	for _, row := range rows {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if row.Email == "" {
			continue
		}
		subject, body := goalReminder(row.Name, MonthsRemaining(today, row.DueDate))

		sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.notifier.Send(sendCtx, []string{row.Email}, subject, body)
		cancel()
		if err != nil {
			res.Failed++
			metrics.NotificationsSent.WithLabelValues("goal_reminder", "failed").Inc()
			logger.Get().Errorw("failed to send goal reminder", "goal_id", row.ID, "error", err)
			continue
		}
		res.Sent++
		metrics.NotificationsSent.WithLabelValues("goal_reminder", "sent").Inc()
	}
	logger.Get().Infow("goal reminders sent", "sent", res.Sent, "failed", res.Failed)
	return res, nil
}

func goalReminder(goalName string, monthsLeft int) (string, string) {
	subject := "Monthly Goal Progress Notification"
	name := template.HTMLEscapeString(goalName)
	if monthsLeft > 0 {
		return subject, fmt.Sprintf("<p>Dear Customer,</p><p>This is a reminder for your goal: '%s'. "+
			"You have %d months remaining to achieve your target.</p><p>Keep up the good work!</p>"+
			"<p>Best regards,<br>FinTrack Team</p>", name, monthsLeft)
	}
	return subject, fmt.Sprintf("<p>Dear Customer,</p><p>Congratulations! You have achieved your goal: '%s'.</p>"+
		"<p>Thank you for using FinTrack.</p><p>Best regards,<br>FinTrack Team</p>", name)
}
