package userinfo_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/skilltree/skills-service/internal/app/features/userinfo"
	"github.com/skilltree/skills-service/internal/app/system/auth"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response JSON: %v", err)
	}
	return response
}

func TestServeUserInfo_Unauthenticated(t *testing.T) {
	handler := userinfo.NewHandler(true)

	req := httptest.NewRequest("GET", "/api/user", nil)
	rec := httptest.NewRecorder()

	handler.ServeUserInfo(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}

	response := decode(t, rec)
	if isAuth, ok := response["isAuthenticated"].(bool); !ok || isAuth {
		t.Errorf("isAuthenticated: got %v, want false", response["isAuthenticated"])
	}
	if name, ok := response["name"].(string); !ok || name != "" {
		t.Errorf("name: got %q, want empty string", response["name"])
	}
}

func TestServeUserInfo_Authenticated(t *testing.T) {
	handler := userinfo.NewHandler(true)

	req := httptest.NewRequest("GET", "/api/user", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID:    "u-7",
		Name:  "Test User",
		Email: "test@example.com",
		Role:  "member",
	})
	rec := httptest.NewRecorder()

	handler.ServeUserInfo(rec, req)

	response := decode(t, rec)
	if isAuth, ok := response["isAuthenticated"].(bool); !ok || !isAuth {
		t.Errorf("isAuthenticated: got %v, want true", response["isAuthenticated"])
	}
	if id, _ := response["id"].(string); id != "u-7" {
		t.Errorf("id: got %q, want %q", response["id"], "u-7")
	}
	if email, _ := response["email"].(string); email != "test@example.com" {
		t.Errorf("email: got %q, want %q", response["email"], "test@example.com")
	}
	if role, _ := response["role"].(string); role != "member" {
		t.Errorf("role: got %q, want %q", response["role"], "member")
	}
}

func TestServeUserInfo_SessionsDisabled(t *testing.T) {
	r := chi.NewRouter()
	userinfo.MountRoutes(r, userinfo.NewHandler(false))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/user", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	response := decode(t, rec)
	if s, ok := response["sessions"].(bool); !ok || s {
		t.Errorf("sessions: got %v, want false", response["sessions"])
	}
}
