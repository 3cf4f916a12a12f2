package services

import (
	"context"
	"strings"

	"github.com/cloudary/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SearchService matches file and folder names for one owner.
type SearchService struct {
	DB     *gorm.DB
	Signer *URLSigner
}

func NewSearchService(db *gorm.DB, signer *URLSigner) *SearchService {
	return &SearchService{DB: db, Signer: signer}
}

type SearchResult struct {
	Files   []models.File   `json:"files"`
	Folders []models.Folder `json:"folders"`
}

// Search does a case-insensitive substring match on names. Trashed rows stay
// out of the results.
func (s *SearchService) Search(ctx context.Context, ownerID uuid.UUID, query string) (*SearchResult, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	result := &SearchResult{
		Files:   []models.File{},
		Folders: []models.Folder{},
	}

	err := s.DB.WithContext(ctx).
		Where("owner_id = ? AND deleted = ? AND LOWER(name) LIKE ?", ownerID, false, pattern).
		Order("created_at DESC").
		Find(&result.Files).Error
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).
		Where("owner_id = ? AND deleted = ? AND LOWER(name) LIKE ?", ownerID, false, pattern).
		Order("created_at DESC").
		Find(&result.Folders).Error
	if err != nil {
		return nil, err
	}

	s.Signer.Decorate(ctx, result.Files)
	return result, nil
}
