package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/store"
)

const testSecret = "test-secret"

type resolverStub struct {
	session *domain.Session
	err     error
}

func (r *resolverStub) ResolveSession(ctx context.Context, userID uuid.UUID) (*domain.Session, error) {
	if r.err != nil {
		return nil, r.err
	}
	sess := *r.session
	sess.UserID = userID
	return &sess, nil
}

func signedToken(t *testing.T, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func runAuth(t *testing.T, authHeader string, resolver SessionResolver) (*httptest.ResponseRecorder, *domain.Session) {
	t.Helper()
	var captured *domain.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess, ok := SessionFromContext(r.Context()); ok {
			captured = &sess
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	AuthMiddleware(testSecret, resolver)(next).ServeHTTP(rec, req)
	return rec, captured
}

func TestAuthMiddleware_InjectsSession(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()
	resolver := &resolverStub{session: &domain.Session{TenantID: tenantID, Role: domain.RoleAdmin}}

	rec, sess := runAuth(t, "Bearer "+signedToken(t, userID.String()), resolver)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if sess == nil {
		t.Fatal("expected session in context")
	}
	if sess.UserID != userID || sess.TenantID != tenantID {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rec, _ := runAuth(t, "", &resolverStub{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	rec, _ := runAuth(t, "Token abc", &resolverStub{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_BadSignature(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": uuid.New().String()})
	signed, err := token.SignedString([]byte("wrong-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	rec, _ := runAuth(t, "Bearer "+signed, &resolverStub{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_NonUUIDSubject(t *testing.T) {
	rec, _ := runAuth(t, "Bearer "+signedToken(t, "not-a-uuid"), &resolverStub{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_NoActiveTenant(t *testing.T) {
	resolver := &resolverStub{err: store.ErrNoActiveTenant}
	rec, _ := runAuth(t, "Bearer "+signedToken(t, uuid.New().String()), resolver)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
