package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	_ = os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseBody(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatal("expected error object in response")
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestJobsAuthMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		configuredKey string
		requestKey    string
		wantStatus    int
		wantErrorCode string
	}{
		{"valid_api_key", "secret-jobs-key", "secret-jobs-key", http.StatusOK, ""},
		{"invalid_api_key", "secret-jobs-key", "wrong-key", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"missing_api_key", "secret-jobs-key", "", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"empty_configured_key", "", "any-key", http.StatusServiceUnavailable, "JOBS_NOT_CONFIGURED"},
		{"partial_match_rejected", "secret-jobs-key", "secret-jobs", http.StatusUnauthorized, "INVALID_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(JobsAuthMiddleware(tt.configuredKey))
			r.POST("/test", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

			req := httptest.NewRequest(http.MethodPost, "/test", http.NoBody)
			if tt.requestKey != "" {
				req.Header.Set("X-API-Key", tt.requestKey)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantErrorCode != "" {
				if code := errorCode(t, rec); code != tt.wantErrorCode {
					t.Errorf("error code = %q, want %q", code, tt.wantErrorCode)
				}
			}
		})
	}
}

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	authed := r.Group("/", AuthMiddleware())
	authed.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(ContextUserID)})
	})
	authed.GET("/admin", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func doAuthRequest(r *gin.Engine, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	r := setupAuthRouter()
	user := &models.User{Email: "u@example.com", Role: models.RoleRegular}
	user.ID = "0190c6a2-0000-7000-8000-000000000001"
	admin := &models.User{Email: "a@example.com", Role: models.RoleAdmin}
	admin.ID = "0190c6a2-0000-7000-8000-000000000002"

	access, err := GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	refresh, err := GenerateRefreshToken(user)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	adminAccess, err := GenerateAccessToken(admin)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	t.Run("valid_access_token", func(t *testing.T) {
		rec := doAuthRequest(r, "/me", "Bearer "+access)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got := parseBody(t, rec)["user_id"]; got != user.ID {
			t.Errorf("user_id = %v, want %s", got, user.ID)
		}
	})

	t.Run("missing_header", func(t *testing.T) {
		if rec := doAuthRequest(r, "/me", ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("malformed_header", func(t *testing.T) {
		if rec := doAuthRequest(r, "/me", "Token "+access); rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("refresh_token_rejected", func(t *testing.T) {
		if rec := doAuthRequest(r, "/me", "Bearer "+refresh); rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("regular_user_forbidden_from_admin", func(t *testing.T) {
		rec := doAuthRequest(r, "/admin", "Bearer "+access)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
		if code := errorCode(t, rec); code != "FORBIDDEN" {
			t.Errorf("error code = %q, want FORBIDDEN", code)
		}
	})

	t.Run("admin_allowed", func(t *testing.T) {
		if rec := doAuthRequest(r, "/admin", "Bearer "+adminAccess); rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestValidateRefreshToken(t *testing.T) {
	user := &models.User{Email: "u@example.com", Role: models.RoleRegular}
	user.ID = "0190c6a2-0000-7000-8000-000000000001"

	refresh, _ := GenerateRefreshToken(user)
	claims, err := ValidateRefreshToken(refresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != models.RoleRegular {
		t.Errorf("unexpected claims %+v", claims)
	}

	access, _ := GenerateAccessToken(user)
	if _, err := ValidateRefreshToken(access); err == nil {
		t.Error("expected an access token to be rejected")
	}
	if _, err := ValidateRefreshToken("garbage"); err == nil {
		t.Error("expected garbage to be rejected")
	}
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging(), ErrorHandler())
	r.GET("/app", func(c *gin.Context) { _ = c.Error(apperrors.ErrBudgetNotFound) })
	r.GET("/plain", func(c *gin.Context) { _ = c.Error(errors.New("boom")) })

	t.Run("app_error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app", http.NoBody))
		if rec.Code != http.StatusNotFound || errorCode(t, rec) != "BUDGET_NOT_FOUND" {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("expected a request id header")
		}
	})

	t.Run("unexpected_error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plain", http.NoBody))
		if rec.Code != http.StatusInternalServerError || errorCode(t, rec) != "INTERNAL_ERROR" {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})
}

func TestRequestIDPropagation(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging(), HTTPMetrics())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Body.String() != "abc-123" || rec.Header().Get("X-Request-ID") != "abc-123" {
		t.Errorf("expected caller request id to be reused, got %q", rec.Body.String())
	}
}
