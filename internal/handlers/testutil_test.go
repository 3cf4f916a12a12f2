package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cloudary/backend/internal/database"
	"github.com/cloudary/backend/internal/middleware"
	"github.com/cloudary/backend/internal/models"
	"github.com/cloudary/backend/internal/services"
	"github.com/cloudary/backend/pkg/logger"
	"github.com/cloudary/backend/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var testSetupOnce sync.Once

// testEnv bundles the app and its backing fakes for one test.
type testEnv struct {
	App    *fiber.App
	DB     *gorm.DB
	Store  *fakeStore
	Mailer *fakeMailer
}

// setupApp builds a fiber app with the full route table against an in-memory
// database and fake storage and mail backends.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 1)
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
		t.Fatalf("failed automigrating models: %v", err)
	}

	store := newFakeStore()
	mailer := &fakeMailer{}
	signer := services.NewURLSigner(store)

	folderService := services.NewFolderService(db, store)
	fileService := services.NewFileService(db, store, signer)
	shareService := services.NewShareService(db, signer, "https://app.test")
	searchService := services.NewSearchService(db, signer)

	authHandler := NewAuthHandler(db, mailer)
	foldersHandler := NewFoldersHandler(folderService)
	filesHandler := NewFilesHandler(fileService)
	sharesHandler := NewSharesHandler(shareService)
	searchHandler := NewSearchHandler(searchService)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New()
	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", authHandler.Signup)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Post("/send-reset-otp", authHandler.SendResetCode)
	authRoutes.Post("/reset-password", authHandler.ResetPassword)

	fileRoutes := api.Group("/files", authMiddleware.RequireAuth)
	fileRoutes.Post("/upload", filesHandler.Upload)
	fileRoutes.Post("/upload/:folderId", filesHandler.Upload)
	fileRoutes.Get("/folder/:folderId/files", filesHandler.ListFolder)
	fileRoutes.Get("/root", filesHandler.ListRoot)
	fileRoutes.Get("/all", filesHandler.ListAll)
	fileRoutes.Get("/trash", filesHandler.ListTrash)
	fileRoutes.Patch("/:id/trash", filesHandler.Trash)
	fileRoutes.Patch("/:id/restore", filesHandler.Restore)
	fileRoutes.Patch("/:id/rename", filesHandler.Rename)
	fileRoutes.Delete("/:id/permanent", filesHandler.PermanentDelete)

	folderRoutes := api.Group("/folders", authMiddleware.RequireAuth)
	folderRoutes.Post("/create", foldersHandler.Create)
	folderRoutes.Post("/create/:parentId", foldersHandler.Create)
	folderRoutes.Get("/", foldersHandler.ListRoot)
	folderRoutes.Get("/sub/:parentId", foldersHandler.ListChildren)
	folderRoutes.Get("/trash", foldersHandler.ListTrash)
	folderRoutes.Put("/restore/:id", foldersHandler.Restore)
	folderRoutes.Put("/:id", foldersHandler.Rename)
	folderRoutes.Delete("/permanent/:id", foldersHandler.DeleteRecursive)
	folderRoutes.Delete("/:id", foldersHandler.Trash)

	api.Post("/share/:fileId", authMiddleware.RequireAuth, sharesHandler.Create)
	api.Get("/shared/:token", sharesHandler.ResolveByToken)
	api.Get("/private/shared/:shareId", authMiddleware.RequireAuth, sharesHandler.ResolvePrivate)
	api.Get("/shared-with-me", authMiddleware.RequireAuth, sharesHandler.ListSharedWithMe)
	api.Delete("/shared-with-me/:id", authMiddleware.RequireAuth, sharesHandler.RemoveFromMyList)

	api.Get("/search", authMiddleware.RequireAuth, searchHandler.Search)

	return &testEnv{App: app, DB: db, Store: store, Mailer: mailer}
}

// fakeStore is an in-memory ObjectStore for handler tests.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Upload(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[objectName] = data
	return nil
}

func (f *fakeStore) Delete(_ context.Context, objectName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectName)
	return nil
}

func (f *fakeStore) Move(_ context.Context, srcObjectName, dstObjectName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[srcObjectName]
	if !ok {
		return errors.New("source object not found")
	}
	f.objects[dstObjectName] = data
	delete(f.objects, srcObjectName)
	return nil
}

func (f *fakeStore) PresignedGetURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "https://store.test/" + objectName + "?signed=1", nil
}

func (f *fakeStore) has(objectName string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[objectName]
	return ok
}

// fakeMailer records sent mail instead of calling out.
type fakeMailer struct {
	mu         sync.Mutex
	welcomes   []string
	resetCodes map[string]string
}

func (m *fakeMailer) SendWelcome(_ context.Context, to, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, to)
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resetCodes == nil {
		m.resetCodes = map[string]string{}
	}
	m.resetCodes[to] = code
	return nil
}

func (m *fakeMailer) lastResetCode(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetCodes[to]
}

// createTestUser inserts a user with a known password and returns it with a
// valid bearer token.
func createTestUser(t *testing.T, db *gorm.DB, name, email string) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{Name: name, Email: email, PasswordHash: hash}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating token: %v", err)
	}
	return user, token
}

func createTestFile(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name string, folderID *uuid.UUID) *models.File {
	t.Helper()
	file := &models.File{
		Name:     name,
		MimeType: "application/octet-stream",
		Size:     int64(len(name)),
		OwnerID:  ownerID,
		FolderID: folderID,
	}
	if err := db.Create(file).Error; err != nil {
		t.Fatalf("failed creating file: %v", err)
	}
	return file
}

func createTestFolder(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name string, parentID *uuid.UUID) *models.Folder {
	t.Helper()
	folder := &models.Folder{Name: name, OwnerID: ownerID, ParentID: parentID}
	if err := db.Create(folder).Error; err != nil {
		t.Fatalf("failed creating folder: %v", err)
	}
	return folder
}

func performRequest(t *testing.T, app *fiber.App, method, target, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, target, err)
	}
	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, target, token string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed marshaling payload: %v", err)
		}
		body = bytes.NewReader(data)
	}
	return performRequest(t, app, method, target, token, body, "application/json")
}

func performUpload(t *testing.T, app *fiber.App, target, token, filename, content string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed creating form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed writing form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed closing multipart writer: %v", err)
	}

	return performRequest(t, app, http.MethodPost, target, token, &buf, writer.FormDataContentType())
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	defer resp.Body.Close()
	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed decoding response body: %v", err)
	}
	return payload
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, resp.StatusCode)
	}
}

func dataField(t *testing.T, payload map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := payload["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected data object in payload, got %v", payload)
	}
	return data
}
