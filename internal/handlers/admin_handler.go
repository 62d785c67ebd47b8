package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/services"
)

// AdminHandler exposes the scheduled maintenance operations on demand.
type AdminHandler struct {
	advancer     services.RecurrenceAdvancer
	evaluator    services.ExceedanceEvaluator
	auditService services.AuditServicer
	now          func() time.Time
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(advancer services.RecurrenceAdvancer, evaluator services.ExceedanceEvaluator, auditService services.AuditServicer) *AdminHandler {
	return &AdminHandler{advancer: advancer, evaluator: evaluator, auditService: auditService, now: time.Now}
}

// BudgetCheckResponse reports a single-user evaluation.
type BudgetCheckResponse struct {
	Evaluation    *services.Evaluation `json:"evaluation"`
	DispatchError string               `json:"dispatch_error,omitempty"`
}

// AdvanceRecurrences runs one pass of the recurring transaction advancer.
// @Summary     Advance recurring transactions
// @Description Create the next occurrence of every recurring transaction that is due
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       as_of query string false "Evaluation instant (RFC3339 or YYYY-MM-DD), defaults to now"
// @Success     200 {object} services.AdvanceResult
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /admin/recurrences/advance [post]
func (h *AdminHandler) AdvanceRecurrences(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	asOf := h.now().UTC()
	if v := c.Query("as_of"); v != "" {
		asOf, err = parseFlexibleTime(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid as_of: "+err.Error()))
			return
		}
	}

	res, err := h.advancer.AdvanceDueRecurrences(c.Request.Context(), asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADVANCE_RECURRENCES", "transaction", "", c.ClientIP(),
		map[string]interface{}{"advanced": res.Advanced, "failed": res.Failed, "skipped": res.Skipped})

	c.JSON(http.StatusOK, gin.H{"result": res})
}

// RunBudgetChecks evaluates budget exceedance for one user or for everyone.
// @Summary     Run budget checks
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       year    query int    false "Calendar year, defaults to the current year"
// @Param       user_id query string false "Evaluate only this user"
// @Success     200 {object} BudgetCheckResponse
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /admin/budget-checks [post]
func (h *AdminHandler) RunBudgetChecks(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := parseYear(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if target := c.Query("user_id"); target != "" {
		eval, err := h.evaluator.EvaluateUser(c.Request.Context(), target, year)
		if err != nil {
			respondWithError(c, err)
			return
		}
		resp := BudgetCheckResponse{Evaluation: eval}
		if eval.DispatchErr != nil {
			var appErr *apperrors.AppError
			if errors.As(eval.DispatchErr, &appErr) {
				resp.DispatchError = appErr.Message
			} else {
				resp.DispatchError = eval.DispatchErr.Error()
			}
			logger.Get().Warnw("budget alert not delivered", "user_id", target, "year", year, "error", eval.DispatchErr)
		}
		h.auditService.Log(callerID, "RUN_BUDGET_CHECK", "user", target, c.ClientIP(),
			map[string]interface{}{"year": year, "exceeded": eval.Exceeded})
		c.JSON(http.StatusOK, resp)
		return
	}

	res, err := h.evaluator.EvaluateAll(c.Request.Context(), year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(callerID, "RUN_BUDGET_CHECKS", "user", "", c.ClientIP(),
		map[string]interface{}{"year": year, "users": res.Users, "exceeded": res.Exceeded, "failed": res.Failed})

	c.JSON(http.StatusOK, gin.H{"result": res})
}
