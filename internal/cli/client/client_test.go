package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockAuthServer creates a mock API server that serves the auth endpoints
func mockAuthServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/auth/login":
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			var req LoginRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode request: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if req.Password != "password123" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail": "Incorrect email or password"}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "tok-1",
				"token_type":   "bearer",
				"user": map[string]interface{}{
					"id":        1,
					"email":     req.Email,
					"username":  "alice",
					"full_name": "Alice",
					"role":      "employee",
				},
			})

		case "/api/auth/register":
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			if body["email"] == "taken@example.com" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"detail": "Email already registered"}`))
				return
			}
			if body["email"] == "invalid" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"detail": [{"msg": "value is not a valid email address"}]}`))
				return
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{}`))

		case "/api/auth/me":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail": "Could not validate credentials"}`))
				return
			}
			w.Write([]byte(`{"id": 1, "email": "a@b.com", "username": "alice", "full_name": "Alice", "is_active": true, "role": "employee", "created_at": "2024-05-01T10:00:00Z"}`))

		case "/api/auth/health":
			w.Write([]byte(`{"status": "ok", "service": "authentication"}`))

		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "not found"}`))
		}
	}))
}

func TestClient_Login(t *testing.T) {
	server := mockAuthServer(t)
	defer server.Close()

	c := New(server.URL + "/")

	resp, err := c.Login(context.Background(), "a@b.com", "password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AccessToken != "tok-1" {
		t.Errorf("access token = %q, want %q", resp.AccessToken, "tok-1")
	}
	if resp.User == nil || resp.User.ID != 1 {
		t.Errorf("expected user with id 1, got %+v", resp.User)
	}
}

func TestClient_LoginUnauthorized(t *testing.T) {
	server := mockAuthServer(t)
	defer server.Close()

	_, err := New(server.URL).Login(context.Background(), "a@b.com", "wrong")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode() != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.StatusCode())
	}
	if apiErr.Detail() != "Incorrect email or password" {
		t.Errorf("detail = %q", apiErr.Detail())
	}
}

func TestClient_Register(t *testing.T) {
	server := mockAuthServer(t)
	defer server.Close()

	c := New(server.URL)

	resp, err := c.Register(context.Background(), RegisterRequest{Email: "new@example.com", Username: "newbie", FullName: "New", Password: "password123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AccessToken != "" {
		t.Errorf("expected no token, got %q", resp.AccessToken)
	}

	_, err = c.Register(context.Background(), map[string]string{"email": "taken@example.com"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Detail() != "Email already registered" {
		t.Errorf("expected 'Email already registered' API error, got %v", err)
	}

	_, err = c.Register(context.Background(), map[string]string{"email": "invalid"})
	if !errors.As(err, &apiErr) || apiErr.Detail() != "value is not a valid email address" {
		t.Errorf("expected validation detail, got %v", err)
	}
}

func TestClient_Me(t *testing.T) {
	server := mockAuthServer(t)
	defer server.Close()

	c := New(server.URL)

	user, err := c.Me(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "alice" || user.Role != "employee" {
		t.Errorf("unexpected user: %+v", user)
	}
	if user.IsActive == nil || !*user.IsActive {
		t.Error("expected is_active to be true")
	}
	if user.CreatedAt == nil || user.CreatedAt.Year() != 2024 {
		t.Errorf("unexpected created_at: %v", user.CreatedAt)
	}

	if _, err := c.Me(context.Background(), "bogus"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestClient_Health(t *testing.T) {
	server := mockAuthServer(t)
	defer server.Close()

	health, err := New(server.URL).Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("status = %q, want ok", health.Status)
	}
}

func TestClient_NetworkError(t *testing.T) {
	server := mockAuthServer(t)
	url := server.URL
	server.Close()

	_, err := New(url).Me(context.Background(), "tok-1")
	if err == nil {
		t.Fatal("expected network error")
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Error("network failure should not be an APIError")
	}
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail": "Invalid credentials"}`, "Invalid credentials"},
		{`{"error": "invalid credentials"}`, "invalid credentials"},
		{`{"detail": [{"msg": "a"}, {"msg": "b"}]}`, "a; b"},
		{`not json`, ""},
		{`{}`, ""},
	}

	for _, tt := range tests {
		if got := extractDetail([]byte(tt.body)); got != tt.want {
			t.Errorf("extractDetail(%s) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
