package services

import (
	"context"

	"github.com/cloudary/backend/internal/models"
	"github.com/cloudary/backend/internal/storage"
	"github.com/cloudary/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FolderService owns the folder tree: creation, listing, rename, the trash
// flag, and recursive permanent deletion.
type FolderService struct {
	DB    *gorm.DB
	Store storage.ObjectStore
}

func NewFolderService(db *gorm.DB, store storage.ObjectStore) *FolderService {
	return &FolderService{DB: db, Store: store}
}

func (s *FolderService) Create(ctx context.Context, name string, parentID *uuid.UUID, ownerID uuid.UUID) (*models.Folder, error) {
	if parentID != nil {
		// A parent must exist and belong to the same owner; anything else
		// would let callers graft folders into foreign trees.
		var parent models.Folder
		err := s.DB.WithContext(ctx).
			First(&parent, "id = ? AND owner_id = ?", *parentID, ownerID).Error
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
	}

	folder := models.Folder{
		Name:     name,
		OwnerID:  ownerID,
		ParentID: parentID,
	}
	if err := s.DB.WithContext(ctx).Create(&folder).Error; err != nil {
		return nil, err
	}
	return &folder, nil
}

func (s *FolderService) ListRoot(ctx context.Context, ownerID uuid.UUID) ([]models.Folder, error) {
	var folders []models.Folder
	err := s.DB.WithContext(ctx).
		Where("owner_id = ? AND deleted = ? AND parent_id IS NULL", ownerID, false).
		Order("created_at DESC").
		Find(&folders).Error
	return folders, err
}

func (s *FolderService) ListChildren(ctx context.Context, parentID, ownerID uuid.UUID) ([]models.Folder, error) {
	var folders []models.Folder
	err := s.DB.WithContext(ctx).
		Where("owner_id = ? AND deleted = ? AND parent_id = ?", ownerID, false, parentID).
		Order("created_at DESC").
		Find(&folders).Error
	return folders, err
}

func (s *FolderService) ListTrash(ctx context.Context, ownerID uuid.UUID) ([]models.Folder, error) {
	var folders []models.Folder
	err := s.DB.WithContext(ctx).
		Where("owner_id = ? AND deleted = ?", ownerID, true).
		Order("created_at DESC").
		Find(&folders).Error
	return folders, err
}

func (s *FolderService) Rename(ctx context.Context, id, ownerID uuid.UUID, name string) (*models.Folder, error) {
	result := s.DB.WithContext(ctx).
		Model(&models.Folder{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("name", name)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var folder models.Folder
	if err := s.DB.WithContext(ctx).First(&folder, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &folder, nil
}

func (s *FolderService) SoftDelete(ctx context.Context, id, ownerID uuid.UUID) (*models.Folder, error) {
	return s.setDeleted(ctx, id, ownerID, true)
}

func (s *FolderService) Restore(ctx context.Context, id, ownerID uuid.UUID) (*models.Folder, error) {
	return s.setDeleted(ctx, id, ownerID, false)
}

func (s *FolderService) setDeleted(ctx context.Context, id, ownerID uuid.UUID, deleted bool) (*models.Folder, error) {
	result := s.DB.WithContext(ctx).
		Model(&models.Folder{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("deleted", deleted)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var folder models.Folder
	if err := s.DB.WithContext(ctx).First(&folder, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &folder, nil
}

// DeleteRecursive permanently removes a folder, every descendant folder, and
// every file inside the subtree, blobs included. Traversal is post-order:
// files first, then each subfolder's subtree, then the folder row itself.
// Row deletes at each level run inside one transaction; blob removal is best
// effort so a repeat call after a partial failure can finish the job.
func (s *FolderService) DeleteRecursive(ctx context.Context, id, ownerID uuid.UUID) (int64, error) {
	var root models.Folder
	err := s.DB.WithContext(ctx).First(&root, "id = ? AND owner_id = ?", id, ownerID).Error
	if err == gorm.ErrRecordNotFound {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	return s.deleteSubtree(ctx, id, ownerID)
}

func (s *FolderService) deleteSubtree(ctx context.Context, folderID, ownerID uuid.UUID) (int64, error) {
	var files []models.File
	if err := s.DB.WithContext(ctx).
		Where("folder_id = ? AND owner_id = ?", folderID, ownerID).
		Find(&files).Error; err != nil {
		return 0, err
	}

	for i := range files {
		if s.Store == nil {
			continue
		}
		if err := s.Store.Delete(ctx, files[i].ObjectName()); err != nil {
			logger.Warn("folder_delete_blob_failed", map[string]interface{}{
				"object_name": files[i].ObjectName(),
				"file_id":     files[i].ID.String(),
			})
		}
	}

	var childIDs []uuid.UUID
	if err := s.DB.WithContext(ctx).
		Model(&models.Folder{}).
		Where("parent_id = ? AND owner_id = ?", folderID, ownerID).
		Pluck("id", &childIDs).Error; err != nil {
		return 0, err
	}

	var deleted int64
	for _, childID := range childIDs {
		n, err := s.deleteSubtree(ctx, childID, ownerID)
		if err != nil {
			return deleted, err
		}
		deleted += n
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("folder_id = ? AND owner_id = ?", folderID, ownerID).
			Delete(&models.File{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND owner_id = ?", folderID, ownerID).
			Delete(&models.Folder{}).Error
	})
	if err != nil {
		return deleted, err
	}
	return deleted + 1, nil
}
