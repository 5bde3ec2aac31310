package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mockAuthService is a configurable mock for testing Middleware.
type mockAuthService struct {
	claims *Claims
	userID uuid.UUID
	err    error
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*Claims, uuid.UUID, error) {
	if m.err != nil {
		return nil, uuid.Nil, m.err
	}
	return m.claims, m.userID, nil
}

var _ AuthService = (*mockAuthService)(nil)

func TestRequireAuth_PutsIdentityInContext(t *testing.T) {
	userID := uuid.New()
	claims := claimsForUser(userID)
	middleware := NewMiddleware(&mockAuthService{claims: claims, userID: userID}, zap.NewNop())

	var gotClaims *Claims
	var gotID uuid.UUID
	var gotOK bool
	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = GetClaims(r.Context())
		gotID, gotOK = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/facts", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotClaims != claims {
		t.Error("claims not found in request context")
	}
	if !gotOK || gotID != userID {
		t.Errorf("user id in context = %v, want %v", gotID, userID)
	}
}

func TestRequireAuth_RejectsUnauthenticated(t *testing.T) {
	middleware := NewMiddleware(&mockAuthService{err: ErrMissingAuthorization}, zap.NewNop())

	called := false
	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest("GET", "/api/facts", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if called {
		t.Error("next handler must not run for unauthenticated requests")
	}
}

func TestGetUserID_AbsentFromContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := GetUserID(req.Context()); ok {
		t.Error("expected no user id in a bare context")
	}
}
