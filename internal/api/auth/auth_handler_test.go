package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-contacts-api/app/kv"
	"github.com/FACorreiaa/go-contacts-api/internal/api"
)

// MockAuthService is a mock implementation of the AuthService interface.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, email, password string) (*UserAuth, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UserAuth), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) (*UserAuth, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UserAuth), args.Error(1)
}

func (m *MockAuthService) ResendVerification(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		service := new(MockAuthService)
		service.On("Login", mock.Anything, "alice@x.com", "Sw0rdfish!").Return("signed.jwt.token", nil).Once()
		h := NewAuthHandler(service, nil, slog.Default())

		rec := postJSON(t, h.Login, "/auth/login", LoginRequest{Email: "alice@x.com", Password: "Sw0rdfish!"})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "signed.jwt.token", resp.AccessToken)
		assert.Equal(t, "bearer", resp.TokenType)
	})

	t.Run("BadCredentials", func(t *testing.T) {
		service := new(MockAuthService)
		service.On("Login", mock.Anything, "alice@x.com", "wrong").Return("", api.ErrUnauthenticated).Once()
		h := NewAuthHandler(service, nil, slog.Default())

		rec := postJSON(t, h.Login, "/auth/login", LoginRequest{Email: "alice@x.com", Password: "wrong"})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Incorrect email or password")
	})

	t.Run("NotVerified", func(t *testing.T) {
		service := new(MockAuthService)
		service.On("Login", mock.Anything, "alice@x.com", "Sw0rdfish!").Return("", ErrEmailNotVerified).Once()
		h := NewAuthHandler(service, nil, slog.Default())

		rec := postJSON(t, h.Login, "/auth/login", LoginRequest{Email: "alice@x.com", Password: "Sw0rdfish!"})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "verify your email")
	})

	t.Run("MalformedBody", func(t *testing.T) {
		h := NewAuthHandler(new(MockAuthService), nil, slog.Default())

		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		h.Login(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_Signup(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		service := new(MockAuthService)
		service.On("Signup", mock.Anything, "alice@x.com", "Sw0rdfish!").
			Return(testUser("alice@x.com", RoleUser), nil).Once()
		h := NewAuthHandler(service, nil, slog.Default())

		rec := postJSON(t, h.Signup, "/auth/signup", SignupRequest{Email: "alice@x.com", Password: "Sw0rdfish!"})
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("Duplicate", func(t *testing.T) {
		service := new(MockAuthService)
		service.On("Signup", mock.Anything, "alice@x.com", "Sw0rdfish!").
			Return(nil, api.ErrConflict).Once()
		h := NewAuthHandler(service, nil, slog.Default())

		rec := postJSON(t, h.Signup, "/auth/signup", SignupRequest{Email: "alice@x.com", Password: "Sw0rdfish!"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

// TestAuthHandler_RequestReset_NoEnumeration drives the real reset flow over an
// in-memory store and asserts the response is byte-identical for registered and
// unregistered addresses.
func TestAuthHandler_RequestReset_NoEnumeration(t *testing.T) {
	repo := new(MockUserRepo)
	alice := testUser("alice@x.com", RoleUser)
	repo.On("GetUserByEmail", mock.Anything, "alice@x.com").Return(alice, nil).Once()
	repo.On("GetUserByEmail", mock.Anything, "ghost@x.com").Return(nil, api.ErrNotFound).Once()

	store := kv.NewMemoryStore()
	tokens := newTestTokenService(t)
	cache := NewIdentityCache(store, time.Hour, slog.Default())
	flow := NewPasswordResetFlow(tokens, store, repo, cache, NewHasher(4), &captureMailer{}, slog.Default())
	h := NewAuthHandler(new(MockAuthService), flow, slog.Default())

	known := postJSON(t, h.RequestReset, "/auth/password-reset", PasswordResetRequest{Email: "alice@x.com"})
	unknown := postJSON(t, h.RequestReset, "/auth/password-reset", PasswordResetRequest{Email: "ghost@x.com"})

	assert.Equal(t, http.StatusAccepted, known.Code)
	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
}

func TestAuthHandler_ConfirmReset(t *testing.T) {
	newHandler := func(t *testing.T) (*AuthHandler, *resetFixture) {
		t.Helper()
		f := newResetFixture(t)
		return NewAuthHandler(new(MockAuthService), f.flow, slog.Default()), f
	}

	issue := func(t *testing.T, f *resetFixture) string {
		t.Helper()
		alice := testUser("alice@x.com", RoleUser)
		f.repo.On("GetUserByEmail", mock.Anything, alice.Email).Return(alice, nil).Once()
		require.NoError(t, f.flow.RequestReset(context.Background(), alice.Email))
		return f.mailer.last(t).Payload["token"]
	}

	t.Run("Success", func(t *testing.T) {
		h, f := newHandler(t)
		token := issue(t, f)
		f.repo.On("UpdatePasswordHash", mock.Anything, "alice@x.com", mock.AnythingOfType("string")).
			Return(nil).Once()

		rec := postJSON(t, h.ConfirmReset, "/auth/password-reset/confirm",
			PasswordResetConfirm{Token: token, NewPassword: "N3w-Sw0rdfish!"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("AlreadyUsed", func(t *testing.T) {
		h, f := newHandler(t)
		token := issue(t, f)
		f.repo.On("UpdatePasswordHash", mock.Anything, "alice@x.com", mock.AnythingOfType("string")).
			Return(nil).Once()

		first := postJSON(t, h.ConfirmReset, "/auth/password-reset/confirm",
			PasswordResetConfirm{Token: token, NewPassword: "N3w-Sw0rdfish!"})
		require.Equal(t, http.StatusOK, first.Code)

		second := postJSON(t, h.ConfirmReset, "/auth/password-reset/confirm",
			PasswordResetConfirm{Token: token, NewPassword: "An0ther-0ne!"})
		assert.Equal(t, http.StatusGone, second.Code)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		h, _ := newHandler(t)
		rec := postJSON(t, h.ConfirmReset, "/auth/password-reset/confirm",
			PasswordResetConfirm{Token: "garbage", NewPassword: "N3w-Sw0rdfish!"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("EmptyPassword", func(t *testing.T) {
		h, f := newHandler(t)
		token := issue(t, f)

		rec := postJSON(t, h.ConfirmReset, "/auth/password-reset/confirm",
			PasswordResetConfirm{Token: token, NewPassword: ""})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
