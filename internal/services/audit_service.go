package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/store"
)

// auditWriteTimeout bounds one audit append. Log runs after the request's
// work is done, so it does not borrow the request context.
const auditWriteTimeout = 5 * time.Second

// redactedAuditKeys are change keys whose values never reach the audit table.
var redactedAuditKeys = map[string]bool{
	"password":      true,
	"password_hash": true,
	"token":         true,
}

type auditService struct {
	entries store.AuditStore
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(entries store.AuditStore) AuditServicer {
	return &auditService{entries: entries}
}

// Log records that userID performed action on a resource. Money values in
// changes are stored with two decimals and dates as YYYY-MM-DD. Credentials
// are recorded as "changed" only. Failures are logged and never reach the
// caller.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	action = strings.ToUpper(strings.TrimSpace(action))
	if userID == "" || action == "" {
		logger.Get().Warnw("audit entry dropped", "user_id", userID, "action", action, "resource_type", resourceType)
		return
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: strings.ToLower(resourceType),
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
	}
	if len(changes) > 0 {
		data, err := json.Marshal(auditChanges(changes))
		if err != nil {
			logger.Get().Errorw("failed to marshal audit changes", "action", action, "error", err)
			data = []byte("{}")
		}
		entry.Changes = string(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	if err := s.entries.Append(ctx, entry); err != nil {
		logger.Get().Errorw("failed to record audit entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", entry.ResourceType,
			"resource_id", resourceID,
		)
	}
}

// auditChanges returns a copy of changes in the form stored on AuditLog.
func auditChanges(changes map[string]any) map[string]any {
	out := make(map[string]any, len(changes))
	for k, v := range changes {
		if redactedAuditKeys[strings.ToLower(k)] {
			out[k] = "changed"
			continue
		}
		switch val := v.(type) {
		case decimal.Decimal:
			out[k] = val.StringFixed(2)
		case *decimal.Decimal:
			if val != nil {
				out[k] = val.StringFixed(2)
			} else {
				out[k] = nil
			}
		case time.Time:
			out[k] = val.UTC().Format(time.DateOnly)
		case *time.Time:
			if val != nil {
				out[k] = val.UTC().Format(time.DateOnly)
			} else {
				out[k] = nil
			}
		default:
			out[k] = v
		}
	}
	return out
}
