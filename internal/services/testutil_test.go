package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cloudary/backend/internal/database"
	"github.com/cloudary/backend/internal/models"
	"github.com/cloudary/backend/pkg/logger"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var testSetupOnce sync.Once

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
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

	return db
}

// fakeStore is an in-memory ObjectStore for tests.
type fakeStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	presignFails map[string]bool
	deleted      []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:      map[string][]byte{},
		presignFails: map[string]bool{},
	}
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
	f.deleted = append(f.deleted, objectName)
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
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.presignFails[objectName] {
		return "", errors.New("presign failed")
	}
	return "https://store.test/" + objectName + "?signed=1", nil
}

func (f *fakeStore) has(objectName string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[objectName]
	return ok
}

func createUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email, PasswordHash: "x"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating user: %v", err)
	}
	return user
}

func createFolder(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name string, parentID *uuid.UUID) *models.Folder {
	t.Helper()
	folder := &models.Folder{Name: name, OwnerID: ownerID, ParentID: parentID}
	if err := db.Create(folder).Error; err != nil {
		t.Fatalf("failed creating folder: %v", err)
	}
	return folder
}

func createFile(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name string, folderID *uuid.UUID) *models.File {
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
