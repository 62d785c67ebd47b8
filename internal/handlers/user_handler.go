package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

// UserHandler handles user management requests. Administrators may act on
// any user; everyone else only on themselves.
type UserHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer, auditService services.AuditServicer) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// UpdateUserRequest represents the request payload for updating a user.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Password  *string `json:"password" binding:"omitempty,min=8,max=128"`
	Role      *string `json:"role" binding:"omitempty,role"`
}

// targetUser resolves the :id path parameter and checks the caller may act on it.
func targetUser(c *gin.Context) (callerID, targetID string, err error) {
	callerID, err = getUserID(c)
	if err != nil {
		return "", "", err
	}
	targetID, err = parsePathID(c, "id")
	if err != nil {
		return "", "", err
	}
	if targetID != callerID && !isAdmin(c) {
		return "", "", apperrors.ErrForbidden
	}
	return callerID, targetID, nil
}

// ListUsers handles listing all users.
// @Summary     List users
// @Description List all users (administrators only)
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[UserResponse]
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.userService.ListUsers(c.Request.Context(), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	users := make([]UserResponse, 0, len(result.Data))
	for i := range result.Data {
		users = append(users, toUserResponse(&result.Data[i]))
	}
	c.JSON(http.StatusOK, pagination.NewPageResponse(users, result.Page, result.PageSize, result.TotalItems))
}

// GetUser handles retrieving a user.
// @Summary     Get user
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} UserResponse
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	_, targetID, err := targetUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), targetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// UpdateUser handles updating a user's profile. Only administrators may
// change roles.
// @Summary     Update user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "User ID"
// @Param       request body UpdateUserRequest true "Fields to change"
// @Success     200 {object} UserResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	callerID, targetID, err := targetUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	update := services.UserUpdate{FirstName: req.FirstName, LastName: req.LastName, Password: req.Password}
	if req.Role != nil {
		if !isAdmin(c) {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrForbidden, "Only administrators may change roles"))
			return
		}
		role := models.Role(strings.ToUpper(*req.Role))
		update.Role = &role
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), targetID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Password != nil {
		changes["password"] = "changed"
	}
	if update.Role != nil {
		changes["role"] = *update.Role
	}
	h.auditService.Log(callerID, "UPDATE_USER", "user", targetID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// DeleteUser handles deleting a user.
// @Summary     Delete user
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} MessageResponse
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	callerID, targetID, err := targetUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), targetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(callerID, "DELETE_USER", "user", targetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
