package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kheyma/kheyma-service/internal/domain"
	"github.com/kheyma/kheyma-service/internal/repository"
)

type stubIdentities struct {
	identity *domain.Identity
	err      error
	panics   bool
}

func (s stubIdentities) Resolve(context.Context, string) (*domain.Identity, error) {
	if s.panics {
		panic("store driver exploded")
	}
	return s.identity, s.err
}

type middlewareFixture struct {
	tokens *TokenManager
	repo   *repository.MemoryUserRepository
	logs   *observer.ObservedLogs
	mw     *AuthMiddleware
}

func newMiddlewareFixture(t *testing.T, identities IdentitySource) *middlewareFixture {
	t.Helper()
	tokens := newTestTokenManager(t)
	repo := repository.NewMemoryUserRepository()
	if identities == nil {
		identities = NewIdentityResolver(repo)
	}
	core, logs := observer.New(zapcore.DebugLevel)
	return &middlewareFixture{
		tokens: tokens,
		repo:   repo,
		logs:   logs,
		mw:     NewAuthMiddleware(tokens, identities, zap.New(core), nil),
	}
}

func (f *middlewareFixture) addUser(t *testing.T, email string, role domain.Role, enabled bool) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, PasswordHash: "hash", Role: role, Enabled: enabled}
	require.NoError(t, f.repo.Create(context.Background(), user))
	return user
}

func (f *middlewareFixture) bearer(t *testing.T, subject string) string {
	t.Helper()
	token, err := f.tokens.Mint(subject, time.Now())
	require.NoError(t, err)
	return "Bearer " + token.Value
}

// tamperSignature swaps one character in the middle of the signature segment.
func tamperSignature(header string) string {
	i := len(header) - 10
	replacement := byte('A')
	if header[i] == 'A' {
		replacement = 'B'
	}
	return header[:i] + string(replacement) + header[i+1:]
}

type authView struct {
	State   AuthState `json:"state"`
	Subject string    `json:"subject"`
	Role    string    `json:"role"`
}

func (f *middlewareFixture) app() *fiber.App {
	app := fiber.New()
	app.Use(f.mw.Handle)
	app.All("/whoami", func(c *fiber.Ctx) error {
		ac := FromFiber(c)
		fromCtx := FromContext(c.UserContext())
		if ac.State != fromCtx.State {
			return fiber.NewError(http.StatusInternalServerError, "locals and context disagree")
		}
		view := authView{State: ac.State}
		if ac.Identity != nil {
			view.Subject = ac.Identity.SubjectID
			view.Role = string(ac.Identity.Role)
		}
		return c.JSON(view)
	})
	return app
}

func (f *middlewareFixture) call(t *testing.T, method, header string) authView {
	t.Helper()
	req := httptest.NewRequest(method, "/whoami", nil)
	if header != "" {
		req.Header.Set(fiber.HeaderAuthorization, header)
	}
	resp, err := f.app().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "middleware must never reject")

	var view authView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	return view
}

func TestAuthMiddleware_Authenticated(t *testing.T) {
	f := newMiddlewareFixture(t, nil)
	f.addUser(t, "a@x.com", domain.RoleUser, true)

	view := f.call(t, http.MethodGet, f.bearer(t, "a@x.com"))
	assert.Equal(t, StateAuthenticated, view.State)
	assert.Equal(t, "a@x.com", view.Subject)
	assert.Equal(t, "USER", view.Role)
}

func TestAuthMiddleware_AnonymousOutcomes(t *testing.T) {
	f := newMiddlewareFixture(t, nil)
	f.addUser(t, "a@x.com", domain.RoleUser, true)
	f.addUser(t, "off@x.com", domain.RoleUser, false)

	expired, err := f.tokens.Mint("a@x.com", time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	valid := f.bearer(t, "a@x.com")

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "basic scheme", header: "Basic xyz"},
		{name: "scheme only", header: "Bearer"},
		{name: "empty token", header: "Bearer    "},
		{name: "garbage token", header: "Bearer not-a-token"},
		{name: "bad signature", header: tamperSignature(valid)},
		{name: "expired", header: "Bearer " + expired.Value},
		{name: "deleted subject", header: f.bearer(t, "ghost@x.com")},
		{name: "disabled subject", header: f.bearer(t, "off@x.com")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := f.call(t, http.MethodGet, tt.header)
			assert.Equal(t, StateAnonymous, view.State)
			assert.Empty(t, view.Subject)
		})
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	f := newMiddlewareFixture(t, nil)
	f.addUser(t, "a@x.com", domain.RoleUser, true)

	header := f.bearer(t, "a@x.com")
	view := f.call(t, http.MethodGet, "bearer "+header[len("Bearer "):])
	assert.Equal(t, StateAuthenticated, view.State)
}

func TestAuthMiddleware_ResolverFaultDegradesToAnonymous(t *testing.T) {
	f := newMiddlewareFixture(t, stubIdentities{err: errors.New("connection refused")})

	view := f.call(t, http.MethodGet, f.bearer(t, "a@x.com"))
	assert.Equal(t, StateAnonymous, view.State)

	errorsLogged := f.logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errorsLogged, 1)
	assert.Contains(t, errorsLogged[0].Message, "identity lookup failed")
}

func TestAuthMiddleware_ResolverPanicDegradesToAnonymous(t *testing.T) {
	f := newMiddlewareFixture(t, stubIdentities{panics: true})

	view := f.call(t, http.MethodGet, f.bearer(t, "a@x.com"))
	assert.Equal(t, StateAnonymous, view.State)
	assert.Equal(t, 1, f.logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestAuthMiddleware_TokenFailuresLoggedAsWarnings(t *testing.T) {
	f := newMiddlewareFixture(t, nil)

	f.call(t, http.MethodGet, "Bearer not-a-token")

	warnings := f.logs.FilterMessage("bearer token rejected").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)
	assert.Equal(t, "malformed", warnings[0].ContextMap()["reason"])
	assert.Zero(t, f.logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestAuthMiddleware_PreflightBypassesAuthentication(t *testing.T) {
	f := newMiddlewareFixture(t, stubIdentities{panics: true})

	view := f.call(t, http.MethodOptions, f.bearer(t, "a@x.com"))
	assert.Equal(t, StateAnonymous, view.State)
	assert.Zero(t, f.logs.Len())
}

func TestAuthMiddleware_NoStateAcrossRequests(t *testing.T) {
	f := newMiddlewareFixture(t, nil)
	f.addUser(t, "a@x.com", domain.RoleUser, true)
	app := f.app()

	authed := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	authed.Header.Set(fiber.HeaderAuthorization, f.bearer(t, "a@x.com"))
	resp, err := app.Test(authed)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var view authView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, StateAnonymous, view.State)
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	f := newMiddlewareFixture(t, nil)
	user := f.addUser(t, "a@x.com", domain.RoleUser, true)
	header := f.bearer(t, "a@x.com")

	ac := f.mw.Authenticate(context.Background(), header)
	require.True(t, ac.IsAuthenticated())

	user.Role = domain.RoleAdmin
	require.NoError(t, f.repo.Update(context.Background(), user))

	ac = f.mw.Authenticate(context.Background(), header)
	require.True(t, ac.IsAuthenticated())
	assert.Equal(t, domain.RoleAdmin, ac.Identity.Role, "role changes apply without a new token")

	user.Enabled = false
	require.NoError(t, f.repo.Update(context.Background(), user))
	assert.False(t, f.mw.Authenticate(context.Background(), header).IsAuthenticated())
}
