package handlers

import (
	"net/http"
	"testing"

	"github.com/pontis/backend/internal/models"
)

func TestUsersEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	admin, adminToken := createTestUser(t, env.db, "admin@pontis.test", "admin", "password123", models.UserRoleAdmin)
	_, userToken := createTestUser(t, env.db, "worker@pontis.test", "worker", "password123", models.UserRoleUser)

	var createdID string

	t.Run("GET /api/users requires admin", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/", nil, authHeaders(userToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "admin access required")
	})

	t.Run("GET /api/users requires a session", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/", nil, nil)
		assertStatus(t, resp, http.StatusUnauthorized)
		resp.Body.Close()
	})

	t.Run("POST /api/users creates a user", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/users/", map[string]any{
			"email":    "claire@pontis.test",
			"username": "claire",
			"name":     "Claire Dupont",
			"password": "password123",
			"role":     "VISITOR",
			"color":    "#16a34a",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusCreated)
		data := body["data"].(map[string]any)
		createdID = data["id"].(string)
		if data["role"] != "VISITOR" {
			t.Fatalf("expected VISITOR role, got %v", data["role"])
		}
	})

	t.Run("POST /api/users duplicate email conflicts", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/users/", map[string]any{
			"email":    "claire@pontis.test",
			"username": "claire2",
			"password": "password123",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusConflict)
		assertEnvelopeError(t, body, "email or username already in use")
	})

	t.Run("POST /api/users duplicate username conflicts", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/users/", map[string]any{
			"email":    "claire2@pontis.test",
			"username": "claire",
			"password": "password123",
		}, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusConflict)
		resp.Body.Close()
	})

	t.Run("POST /api/users invalid role", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/users/", map[string]any{
			"email":    "sam@pontis.test",
			"username": "sam",
			"password": "password123",
			"role":     "SUPERUSER",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, body, "invalid role")
	})

	t.Run("PUT /api/users/:id promotes role", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/users/"+createdID, map[string]any{
			"role": "USER",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if body["data"].(map[string]any)["role"] != "USER" {
			t.Fatalf("expected promoted role USER")
		}
	})

	t.Run("PUT /api/users/:id unknown id", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/users/00000000-0000-0000-0000-000000000099", map[string]any{
			"name": "Nobody",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusNotFound)
		assertEnvelopeError(t, body, "user not found")
	})

	t.Run("DELETE /api/users/:id self-delete rejected", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, "/api/users/"+admin.ID.String(), nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, body, "cannot delete your own account")
	})

	t.Run("DELETE /api/users/:id removes the user", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, "/api/users/"+createdID, nil, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusOK)
		resp.Body.Close()

		var count int64
		if err := env.db.Model(&models.User{}).Where("id = ?", createdID).Count(&count).Error; err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected user row to be gone")
		}
	})
}
