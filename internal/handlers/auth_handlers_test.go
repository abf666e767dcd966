package handlers

import (
	"net/http"
	"testing"

	"github.com/pontis/backend/internal/models"
)

func TestAuthEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "marc@pontis.test", "marc", "password123", models.UserRoleUser)

	t.Run("POST /api/auth/login success", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "marc@pontis.test",
			"password": "password123",
		}, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		data := body["data"].(map[string]any)
		if data["token"].(string) == "" {
			t.Fatalf("expected a token in login response")
		}
		user := data["user"].(map[string]any)
		if user["username"] != "marc" {
			t.Fatalf("expected username marc, got %v", user["username"])
		}
		if _, leaked := user["passwordHash"]; leaked {
			t.Fatalf("password hash must never be serialized")
		}
	})

	t.Run("POST /api/auth/login uppercase email is normalized", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "MARC@pontis.test",
			"password": "password123",
		}, nil)
		assertStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	})

	t.Run("POST /api/auth/login wrong password", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "marc@pontis.test",
			"password": "nope",
		}, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "invalid credentials")
	})

	t.Run("POST /api/auth/login unknown email", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "ghost@pontis.test",
			"password": "password123",
		}, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "invalid credentials")
	})

	t.Run("POST /api/auth/login missing fields", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login", map[string]any{}, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, body, "email and password are required")
	})

	t.Run("GET /api/auth/me with token", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/auth/me", nil, authHeaders(token))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		data := body["data"].(map[string]any)
		if data["email"] != "marc@pontis.test" {
			t.Fatalf("expected own profile, got %v", data["email"])
		}
	})

	t.Run("GET /api/auth/me without token", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/auth/me", nil, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "missing authorization header")
	})

	t.Run("GET /api/auth/me with garbage token", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/auth/me", nil, authHeaders("not-a-jwt"))
		assertStatus(t, resp, http.StatusUnauthorized)
		resp.Body.Close()
	})

	t.Run("PUT /api/auth/password wrong old password", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/auth/password", map[string]any{
			"oldPassword": "wrong",
			"newPassword": "newpassword1",
		}, authHeaders(token))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "old password is incorrect")
	})

	t.Run("PUT /api/auth/password too short", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/auth/password", map[string]any{
			"oldPassword": "password123",
			"newPassword": "short",
		}, authHeaders(token))
		assertStatus(t, resp, http.StatusBadRequest)
		resp.Body.Close()
	})

	t.Run("PUT /api/auth/password success then login with new password", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/auth/password", map[string]any{
			"oldPassword": "password123",
			"newPassword": "newpassword1",
		}, authHeaders(token))
		assertStatus(t, resp, http.StatusOK)
		resp.Body.Close()

		resp = performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "marc@pontis.test",
			"password": "newpassword1",
		}, nil)
		assertStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	})
}
