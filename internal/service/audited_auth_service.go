package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kheyma/kheyma-service/internal/auth"
	"github.com/kheyma/kheyma-service/internal/domain"
	"github.com/kheyma/kheyma-service/internal/events"
	"github.com/kheyma/kheyma-service/internal/observability"
)

// AuditedAuthService wraps AuthOperations with structured audit logs,
// operation metrics and domain events. Credentials are never logged.
type AuditedAuthService struct {
	inner      AuthOperations
	logger     *zap.Logger
	metrics    *observability.Metrics
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewAuditedAuthService decorates inner. logger, metrics and dispatcher may be nil.
func NewAuditedAuthService(inner AuthOperations, logger *zap.Logger, metrics *observability.Metrics, dispatcher events.Dispatcher) *AuditedAuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditedAuthService{
		inner:      inner,
		logger:     logger.Named("auth"),
		metrics:    metrics,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

var _ AuthOperations = (*AuditedAuthService)(nil)

func (a *AuditedAuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	loginID := NormalizeLoginID(in.Email)
	done := a.begin(ctx, "register", zap.String("login_id", loginID))
	res, err := a.inner.Register(ctx, in)
	done(err)
	if err == nil {
		a.publish(ctx, events.EventUserRegistered, res.User.Email, nil)
	}
	return res, err
}

func (a *AuditedAuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	loginID := NormalizeLoginID(email)
	done := a.begin(ctx, "login", zap.String("login_id", loginID))
	res, err := a.inner.Login(ctx, email, password)
	done(err)
	switch {
	case err == nil:
		a.publish(ctx, events.EventLoginSucceeded, res.User.Email, nil)
	case isClientFailure(err):
		a.publish(ctx, events.EventLoginFailed, loginID, events.LoginFailedPayload{Reason: resultLabel(err)})
	}
	return res, err
}

func (a *AuditedAuthService) Profile(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	done := a.begin(ctx, "profile")
	user, err := a.inner.Profile(ctx, identity)
	done(err)
	return user, err
}

func (a *AuditedAuthService) UpdateProfile(ctx context.Context, identity *domain.Identity, in ProfileUpdate) (*domain.User, error) {
	done := a.begin(ctx, "update_profile")
	user, err := a.inner.UpdateProfile(ctx, identity, in)
	done(err)
	return user, err
}

func (a *AuditedAuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	done := a.begin(ctx, "list_users")
	users, err := a.inner.ListUsers(ctx)
	done(err)
	return users, err
}

func (a *AuditedAuthService) ToggleUserStatus(ctx context.Context, id string) (*domain.User, error) {
	done := a.begin(ctx, "toggle_user_status", zap.String("user_id", id))
	user, err := a.inner.ToggleUserStatus(ctx, id)
	done(err)
	if err == nil {
		a.publish(ctx, events.EventUserStatusChanged, user.Email, events.UserStatusChangedPayload{
			Enabled: user.Enabled,
			ActorID: actorID(ctx),
		})
	}
	return user, err
}

func (a *AuditedAuthService) PromoteToAdmin(ctx context.Context, id string) (*domain.User, error) {
	done := a.begin(ctx, "promote_to_admin", zap.String("user_id", id))
	user, err := a.inner.PromoteToAdmin(ctx, id)
	done(err)
	if err == nil {
		a.publish(ctx, events.EventUserRoleChanged, user.Email, events.UserRoleChangedPayload{
			Role:    user.Role,
			ActorID: actorID(ctx),
		})
	}
	return user, err
}

func (a *AuditedAuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	done := a.begin(ctx, "get_user", zap.String("user_id", id))
	user, err := a.inner.GetUser(ctx, id)
	done(err)
	return user, err
}

func (a *AuditedAuthService) UpdateUser(ctx context.Context, id string, in AdminUserUpdate) (*domain.User, error) {
	done := a.begin(ctx, "update_user", zap.String("user_id", id), zap.Bool("password_changed", in.Password != nil && *in.Password != ""))
	user, err := a.inner.UpdateUser(ctx, id, in)
	done(err)
	if err == nil {
		a.publish(ctx, events.EventUserUpdated, user.Email, events.UserAdminPayload{ActorID: actorID(ctx)})
	}
	return user, err
}

func (a *AuditedAuthService) UpdateUserPackage(ctx context.Context, id string, pkg domain.PackageType) (*domain.User, error) {
	done := a.begin(ctx, "update_user_package", zap.String("user_id", id), zap.String("package", string(pkg)))
	user, err := a.inner.UpdateUserPackage(ctx, id, pkg)
	done(err)
	if err == nil {
		a.publish(ctx, events.EventUserUpdated, user.Email, events.UserAdminPayload{ActorID: actorID(ctx)})
	}
	return user, err
}

func (a *AuditedAuthService) DeleteUser(ctx context.Context, id string) (*domain.User, error) {
	done := a.begin(ctx, "delete_user", zap.String("user_id", id))
	user, err := a.inner.DeleteUser(ctx, id)
	done(err)
	if err == nil {
		a.publish(ctx, events.EventUserDeleted, user.Email, events.UserAdminPayload{ActorID: actorID(ctx)})
	}
	return user, err
}

// begin logs the call and returns a func that logs its outcome and records metrics.
func (a *AuditedAuthService) begin(ctx context.Context, operation string, fields ...zap.Field) func(error) {
	fields = append(fields, zap.String("operation", operation))
	if actor := actorID(ctx); actor != "" {
		fields = append(fields, zap.String("actor", actor))
	}
	logger := a.logger.With(fields...)
	logger.Debug("auth operation started")
	start := a.now()

	return func(err error) {
		result := resultLabel(err)
		a.metrics.RecordAuthOperation(operation, result)

		elapsed := a.now().Sub(start)
		switch {
		case err == nil:
			logger.Info("auth operation completed", zap.Duration("duration", elapsed))
		case isClientFailure(err):
			logger.Info("auth operation rejected", zap.String("result", result), zap.Duration("duration", elapsed))
		default:
			logger.Error("auth operation failed", zap.Error(err), zap.Duration("duration", elapsed))
		}
	}
}

func (a *AuditedAuthService) publish(ctx context.Context, eventType events.EventType, subject string, payload interface{}) {
	if a.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: a.now().UTC(),
		Payload:   payload,
	}
	if err := a.dispatcher.Publish(ctx, event); err != nil {
		a.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func actorID(ctx context.Context) string {
	ac := auth.FromContext(ctx)
	if !ac.IsAuthenticated() {
		return ""
	}
	return ac.Identity.SubjectID
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, ErrDuplicateLoginID):
		return "duplicate_login_id"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, ErrTooManyAttempts):
		return "too_many_attempts"
	case errors.Is(err, ErrUserNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}

func isClientFailure(err error) bool {
	switch resultLabel(err) {
	case "ok", "error", "store_unavailable":
		return false
	}
	return true
}
