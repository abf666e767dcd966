package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/pontis/backend/internal/config"
	"github.com/pontis/backend/internal/database"
	"github.com/pontis/backend/internal/middleware"
	"github.com/pontis/backend/internal/models"
	"github.com/pontis/backend/internal/services"
	"github.com/pontis/backend/pkg/logger"
	"github.com/pontis/backend/pkg/utils"
	"gorm.io/gorm"
)

const (
	testBlobHost  = "blobs.test"
	testBlobToken = "test-storage-token"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	store *stubBlobStore
}

// stubBlobStore stands in for the object store; it remembers uploads and
// deletes and can be told to fail deletes.
type stubBlobStore struct {
	mu         sync.Mutex
	objects    map[string]int64
	deleted    []string
	failDelete bool
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{objects: map[string]int64{}}
}

func (s *stubBlobStore) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = size
	return nil
}

func (s *stubBlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete {
		return fmt.Errorf("simulated storage outage")
	}
	s.deleted = append(s.deleted, key)
	delete(s.objects, key)
	return nil
}

func (s *stubBlobStore) PublicURL(key string) string {
	return fmt.Sprintf("http://%s/pontis/%s", testBlobHost, key)
}

func (s *stubBlobStore) deletedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed migrating models: %v", err)
	}

	store := newStubBlobStore()
	storageCfg := config.StorageConfig{
		PublicBaseURL: fmt.Sprintf("http://%s/pontis", testBlobHost),
		AccessToken:   testBlobToken,
	}

	maintenanceService := services.NewMaintenanceService(db)

	authHandler := NewAuthHandler(db)
	usersHandler := NewUsersHandler(db)
	projectsHandler := NewProjectsHandler(db)
	filesHandler := NewFilesHandler(db, store)
	slideshowHandler := NewSlideshowHandler(db)
	blobHandler := NewBlobHandler(storageCfg)
	maintenanceHandler := NewMaintenanceHandler(maintenanceService)

	authMiddleware := middleware.NewAuthMiddleware(db)
	editorOnly := middleware.RequireRole(models.UserRoleAdmin, models.UserRoleUser)

	app := fiber.New(fiber.Config{BodyLimit: 100 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Put("/password", authMiddleware.RequireAuth, authHandler.ChangePassword)

	userRoutes := api.Group("/users", authMiddleware.RequireAuth, middleware.AdminOnly)
	userRoutes.Get("/", usersHandler.List)
	userRoutes.Post("/", usersHandler.Create)
	userRoutes.Put("/:id", usersHandler.Update)
	userRoutes.Delete("/:id", usersHandler.Delete)

	api.Get("/projects/:id/slideshow", slideshowHandler.View)
	api.Get("/blob-url", blobHandler.SignURL)
	api.Get("/blob-proxy", blobHandler.Proxy)

	projectRoutes := api.Group("/projects", authMiddleware.RequireAuth)
	projectRoutes.Get("/", projectsHandler.List)
	projectRoutes.Post("/", editorOnly, projectsHandler.Create)
	projectRoutes.Get("/:id/slideshow/all", middleware.AdminOnly, slideshowHandler.ListAll)
	projectRoutes.Post("/:id/slideshow", middleware.AdminOnly, slideshowHandler.Add)
	projectRoutes.Put("/:id/slideshow/reorder", middleware.AdminOnly, slideshowHandler.Reorder)
	projectRoutes.Get("/:id", projectsHandler.Get)
	projectRoutes.Put("/:id", editorOnly, projectsHandler.Update)
	projectRoutes.Delete("/:id", middleware.AdminOnly, projectsHandler.Delete)

	slideRoutes := api.Group("/slideshow", authMiddleware.RequireAuth, middleware.AdminOnly)
	slideRoutes.Put("/:id", slideshowHandler.Update)
	slideRoutes.Delete("/:id", slideshowHandler.Remove)

	fileRoutes := api.Group("/files", authMiddleware.RequireAuth)
	fileRoutes.Post("/upload", editorOnly, filesHandler.Upload)
	fileRoutes.Get("/", filesHandler.List)
	fileRoutes.Get("/statistics", filesHandler.Statistics)
	fileRoutes.Patch("/bulk-move", editorOnly, filesHandler.BulkMove)
	fileRoutes.Post("/restore", editorOnly, filesHandler.Restore)
	fileRoutes.Delete("/", editorOnly, filesHandler.SoftDelete)
	fileRoutes.Get("/:id", filesHandler.Get)
	fileRoutes.Patch("/:id", editorOnly, filesHandler.Update)
	fileRoutes.Delete("/:id/purge", middleware.AdminOnly, filesHandler.Purge)

	maintenanceRoutes := api.Group("/maintenance", authMiddleware.RequireAuth, middleware.AdminOnly)
	maintenanceRoutes.Post("/deduplicate", maintenanceHandler.Deduplicate)
	maintenanceRoutes.Post("/migrate-legacy", maintenanceHandler.MigrateLegacy)

	return &testEnv{app: app, db: db, store: store}
}

func createTestUser(t *testing.T, db *gorm.DB, email, username, password string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		Name:         "Test User",
		PasswordHash: hash,
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestProject(t *testing.T, db *gorm.DB, name, country string) *models.Project {
	t.Helper()

	project := &models.Project{
		Name:    name,
		Country: country,
		Type:    models.ProjectTypeBridge,
		Status:  models.ProjectStatusInProgress,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed creating test project: %v", err)
	}
	return project
}

func createTestFile(t *testing.T, db *gorm.DB, name string, fileType models.FileType, size int64, projectID *uuid.UUID) *models.File {
	t.Helper()

	key := fmt.Sprintf("%s/%s", uuid.New().String(), name)
	file := &models.File{
		Name:      name,
		BlobURL:   fmt.Sprintf("http://%s/pontis/%s", testBlobHost, key),
		BlobPath:  key,
		Size:      size,
		FileType:  fileType,
		ProjectID: projectID,
	}
	if err := db.Create(file).Error; err != nil {
		t.Fatalf("failed creating test file: %v", err)
	}
	return file
}

func softDeleteTestFile(t *testing.T, db *gorm.DB, fileID, actorID uuid.UUID) {
	t.Helper()

	now := time.Now().UTC()
	err := db.Model(&models.File{}).
		Where("id = ?", fileID).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
			"deleted_by": actorID,
		}).Error
	if err != nil {
		t.Fatalf("failed soft deleting test file: %v", err)
	}
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
