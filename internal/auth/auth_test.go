package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateAccessToken(testSecret, "user-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	claims, err := ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", claims.UserID)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, _ := GenerateAccessToken(testSecret, "user-1")
	if _, err := ValidateToken("other-secret", token); err == nil {
		t.Fatal("expected validation failure with wrong secret")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	if _, err := ValidateToken(testSecret, "not-a-token"); err == nil {
		t.Fatal("expected validation failure for garbage token")
	}
}

func TestRegister_CreatesUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("a@example.com", pgxmock.AnyArg(), "Alex").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("user-1"))

	h := NewHandler(mock, testSecret)
	body, _ := json.Marshal(credentialsRequest{Email: "a@example.com", Password: "longenough", Name: "Alex"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var resp tokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	claims, err := ValidateToken(testSecret, resp.AccessToken)
	if err != nil {
		t.Fatalf("returned token invalid: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1 in token, got %s", claims.UserID)
	}
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	h := NewHandler(nil, testSecret)
	body, _ := json.Marshal(credentialsRequest{Email: "a@example.com", Password: "short", Name: "Alex"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("rightpassword"), bcrypt.MinCost)
	mock.ExpectQuery("SELECT id, password FROM users").
		WithArgs("a@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "password"}).AddRow("user-1", string(hash)))

	h := NewHandler(mock, testSecret)
	body, _ := json.Marshal(credentialsRequest{Email: "a@example.com", Password: "wrongpassword"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT id, password FROM users").
		WithArgs("nobody@example.com").
		WillReturnError(errors.New("no rows"))

	h := NewHandler(mock, testSecret)
	body, _ := json.Marshal(credentialsRequest{Email: "nobody@example.com", Password: "whatever1"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddleware_InjectsUserID(t *testing.T) {
	h := NewHandler(nil, testSecret)
	token, _ := GenerateAccessToken(testSecret, "user-7")

	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.Middleware(next).ServeHTTP(rec, req)

	if gotUserID != "user-7" {
		t.Errorf("expected user-7 in context, got %q", gotUserID)
	}
}

func TestMiddleware_RejectsMissingHeader(t *testing.T) {
	h := NewHandler(nil, testSecret)
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Middleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if called {
		t.Error("next handler must not run without a token")
	}
}

func TestMiddleware_RejectsMalformedHeader(t *testing.T) {
	h := NewHandler(nil, testSecret)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
