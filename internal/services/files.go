package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cloudary/backend/internal/models"
	"github.com/cloudary/backend/internal/storage"
	"github.com/cloudary/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FileService owns file blobs and their metadata rows: upload, listing,
// trash, permanent deletion, and extension-preserving rename.
type FileService struct {
	DB     *gorm.DB
	Store  storage.ObjectStore
	Signer *URLSigner
}

func NewFileService(db *gorm.DB, store storage.ObjectStore, signer *URLSigner) *FileService {
	return &FileService{DB: db, Store: store, Signer: signer}
}

type UploadParams struct {
	OwnerID  uuid.UUID
	FolderID *uuid.UUID
	Name     string
	MimeType string
	Size     int64
	Content  io.Reader
}

// Upload writes the blob first, then the metadata row. If the row insert
// fails the blob is removed again so the bucket holds no orphans.
func (s *FileService) Upload(ctx context.Context, p UploadParams) (*models.File, error) {
	storedName := storedFileName(p.Name)

	file := models.File{
		Name:     storedName,
		MimeType: p.MimeType,
		Size:     p.Size,
		OwnerID:  p.OwnerID,
		FolderID: p.FolderID,
	}

	if err := s.Store.Upload(ctx, file.ObjectName(), p.Content, p.Size, p.MimeType); err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Create(&file).Error; err != nil {
		if cleanupErr := s.Store.Delete(ctx, file.ObjectName()); cleanupErr != nil {
			logger.Error("upload_compensation_failed", cleanupErr, map[string]interface{}{
				"object_name": file.ObjectName(),
			})
		}
		return nil, err
	}

	if url, err := s.Signer.Sign(ctx, file.ObjectName()); err == nil {
		file.SignedURL = url
	}
	return &file, nil
}

func (s *FileService) List(ctx context.Context, folderID, ownerID uuid.UUID) ([]models.File, error) {
	var files []models.File
	err := s.DB.WithContext(ctx).
		Where("folder_id = ? AND owner_id = ? AND deleted = ?", folderID, ownerID, false).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	s.Signer.Decorate(ctx, files)
	return files, nil
}

func (s *FileService) ListRoot(ctx context.Context, ownerID uuid.UUID) ([]models.File, error) {
	var files []models.File
	err := s.DB.WithContext(ctx).
		Where("folder_id IS NULL AND owner_id = ? AND deleted = ?", ownerID, false).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	s.Signer.Decorate(ctx, files)
	return files, nil
}

type GroupedFiles struct {
	RootFiles []models.File            `json:"rootFiles"`
	Folders   map[string][]models.File `json:"folders"`
}

// ListAllGrouped returns every live file of the owner, bucketed by folder in
// a single pass.
func (s *FileService) ListAllGrouped(ctx context.Context, ownerID uuid.UUID) (*GroupedFiles, error) {
	var files []models.File
	err := s.DB.WithContext(ctx).
		Where("owner_id = ? AND deleted = ?", ownerID, false).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	s.Signer.Decorate(ctx, files)
	return GroupByFolder(files), nil
}

func GroupByFolder(files []models.File) *GroupedFiles {
	grouped := &GroupedFiles{
		RootFiles: []models.File{},
		Folders:   map[string][]models.File{},
	}
	for _, file := range files {
		if file.FolderID == nil {
			grouped.RootFiles = append(grouped.RootFiles, file)
			continue
		}
		key := file.FolderID.String()
		grouped.Folders[key] = append(grouped.Folders[key], file)
	}
	return grouped
}

func (s *FileService) ListTrash(ctx context.Context, ownerID uuid.UUID) ([]models.File, error) {
	var files []models.File
	err := s.DB.WithContext(ctx).
		Where("owner_id = ? AND deleted = ?", ownerID, true).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

func (s *FileService) SoftDelete(ctx context.Context, id, ownerID uuid.UUID) (*models.File, error) {
	return s.setDeleted(ctx, id, ownerID, true)
}

func (s *FileService) Restore(ctx context.Context, id, ownerID uuid.UUID) (*models.File, error) {
	return s.setDeleted(ctx, id, ownerID, false)
}

func (s *FileService) setDeleted(ctx context.Context, id, ownerID uuid.UUID, deleted bool) (*models.File, error) {
	result := s.DB.WithContext(ctx).
		Model(&models.File{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("deleted", deleted)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var file models.File
	if err := s.DB.WithContext(ctx).First(&file, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// PermanentDelete removes a trashed file's blob, then its row. The row only
// goes once the blob removal succeeded, so a failure leaves the file
// restorable instead of half-deleted.
func (s *FileService) PermanentDelete(ctx context.Context, id, ownerID uuid.UUID) (*models.File, error) {
	var file models.File
	err := s.DB.WithContext(ctx).First(&file, "id = ? AND owner_id = ?", id, ownerID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !file.Deleted {
		return nil, ErrNotInTrash
	}

	if err := s.Store.Delete(ctx, file.ObjectName()); err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Delete(&models.File{}, "id = ?", file.ID).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// Rename moves the blob to the new name, then updates the row. The stored
// extension survives unless the caller explicitly supplies another one.
func (s *FileService) Rename(ctx context.Context, id, ownerID uuid.UUID, newName string) (*models.File, error) {
	var file models.File
	err := s.DB.WithContext(ctx).First(&file, "id = ? AND owner_id = ?", id, ownerID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	targetName := TargetFileName(file.Name, newName)
	if targetName == file.Name {
		return &file, nil
	}

	oldObject := file.ObjectName()
	newObject := file.OwnerID.String() + "/" + targetName

	if err := s.Store.Move(ctx, oldObject, newObject); err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).
		Model(&models.File{}).
		Where("id = ?", file.ID).
		Update("name", targetName).Error; err != nil {
		// Blob already moved; move it back so storage and metadata agree.
		if revertErr := s.Store.Move(ctx, newObject, oldObject); revertErr != nil {
			logger.Error("rename_revert_failed", revertErr, map[string]interface{}{
				"file_id": file.ID.String(),
				"src":     newObject,
				"dst":     oldObject,
			})
		}
		return nil, err
	}

	file.Name = targetName
	return &file, nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// TargetFileName derives the stored name for a rename. A requested name with
// any extension wins as-is; one without an extension inherits the current
// one. Whitespace collapses to underscores either way.
func TargetFileName(currentName, requestedName string) string {
	sanitized := whitespaceRe.ReplaceAllString(strings.TrimSpace(requestedName), "_")

	currentExt := ""
	if idx := strings.LastIndex(currentName, "."); idx >= 0 {
		currentExt = currentName[idx+1:]
	}

	if strings.Contains(sanitized, ".") || currentExt == "" {
		return sanitized
	}
	return sanitized + "." + currentExt
}

// storedFileName prefixes the original name with the current time so repeat
// uploads of the same file never collide in the bucket.
func storedFileName(originalName string) string {
	base := filepath.Base(strings.TrimSpace(originalName))
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), base)
}
