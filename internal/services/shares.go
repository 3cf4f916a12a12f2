package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudary/backend/internal/models"
	"github.com/cloudary/backend/pkg/logger"
	"github.com/cloudary/backend/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShareService owns share records and the access rules around them: public
// token links, private recipient-scoped shares, and read-time expiry.
type ShareService struct {
	DB          *gorm.DB
	Signer      *URLSigner
	FrontendURL string
}

func NewShareService(db *gorm.DB, signer *URLSigner, frontendURL string) *ShareService {
	return &ShareService{DB: db, Signer: signer, FrontendURL: frontendURL}
}

type CreateShareParams struct {
	FileID           uuid.UUID
	OwnerID          uuid.UUID
	ShareType        models.ShareType
	Permission       models.SharePermission
	RecipientEmail   string
	ExpiresInMinutes int
}

// Create records a share. Public shares get a random token and a link built
// from it; private shares resolve the recipient's email to a user id.
func (s *ShareService) Create(ctx context.Context, p CreateShareParams) (*models.FileShare, string, error) {
	var file models.File
	err := s.DB.WithContext(ctx).
		First(&file, "id = ? AND owner_id = ?", p.FileID, p.OwnerID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}

	var owner models.User
	if err := s.DB.WithContext(ctx).First(&owner, "id = ?", p.OwnerID).Error; err != nil {
		return nil, "", err
	}

	share := models.FileShare{
		FileID:     file.ID,
		OwnerID:    p.OwnerID,
		FileName:   file.Name,
		ShareType:  p.ShareType,
		Permission: p.Permission,
		SharedBy:   owner.DisplayName(),
	}

	if p.ShareType == models.ShareTypePrivate {
		var recipient models.User
		err := s.DB.WithContext(ctx).First(&recipient, "email = ?", p.RecipientEmail).Error
		if err == gorm.ErrRecordNotFound {
			return nil, "", ErrNotFound
		}
		if err != nil {
			return nil, "", err
		}
		share.SharedWithID = &recipient.ID
	} else {
		token, err := utils.GenerateShareToken()
		if err != nil {
			return nil, "", err
		}
		share.ShareToken = &token
	}

	if p.ExpiresInMinutes > 0 {
		expiresAt := time.Now().Add(time.Duration(p.ExpiresInMinutes) * time.Minute)
		share.ExpiresAt = &expiresAt
	}

	if err := s.DB.WithContext(ctx).Create(&share).Error; err != nil {
		return nil, "", err
	}

	link := ""
	if share.ShareToken != nil {
		link = fmt.Sprintf("%s/shared/%s", s.FrontendURL, *share.ShareToken)
	}
	return &share, link, nil
}

// ResolveByToken returns the file behind a public link. The signed URL is
// issued against the owner's namespace; the visitor never needs an account.
func (s *ShareService) ResolveByToken(ctx context.Context, token string) (*models.File, error) {
	var share models.FileShare
	err := s.DB.WithContext(ctx).First(&share, "share_token = ?", token).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if share.IsExpired(time.Now()) {
		return nil, ErrExpired
	}

	var file models.File
	if err := s.DB.WithContext(ctx).First(&file, "id = ?", share.FileID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	files := []models.File{file}
	s.Signer.Decorate(ctx, files)
	return &files[0], nil
}

// ResolvePrivate returns the file behind a private share row. Only the
// recipient and the owner may read it; expired shares and trashed files are
// gone, not found.
func (s *ShareService) ResolvePrivate(ctx context.Context, shareID, callerID uuid.UUID) (*models.File, error) {
	var share models.FileShare
	err := s.DB.WithContext(ctx).First(&share, "id = ?", shareID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	isRecipient := share.SharedWithID != nil && *share.SharedWithID == callerID
	if !isRecipient && share.OwnerID != callerID {
		return nil, ErrForbidden
	}

	if share.IsExpired(time.Now()) {
		return nil, ErrExpired
	}

	var file models.File
	err = s.DB.WithContext(ctx).First(&file, "id = ?", share.FileID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if file.Deleted {
		return nil, ErrExpired
	}

	files := []models.File{file}
	s.Signer.Decorate(ctx, files)
	return &files[0], nil
}

// ListSharedWithMe returns the caller's inbound shares, each carrying a
// signed URL against the owner's namespace. Items whose blob cannot be
// signed are skipped, not errored.
func (s *ShareService) ListSharedWithMe(ctx context.Context, callerID uuid.UUID) ([]models.FileShare, error) {
	var shares []models.FileShare
	err := s.DB.WithContext(ctx).
		Where("shared_with_id = ?", callerID).
		Order("created_at DESC").
		Find(&shares).Error
	if err != nil {
		return nil, err
	}

	visible := make([]models.FileShare, 0, len(shares))
	for _, share := range shares {
		objectName := share.OwnerID.String() + "/" + share.FileName
		url, err := s.Signer.Sign(ctx, objectName)
		if err != nil {
			logger.Warn("shared_with_me_sign_failed", map[string]interface{}{
				"share_id":    share.ID.String(),
				"object_name": objectName,
			})
			continue
		}
		share.SignedURL = url
		visible = append(visible, share)
	}
	return visible, nil
}

// RemoveFromMyList deletes a share row, but only for its recipient. Owners
// revoke nothing here; that asymmetry matches the share lifecycle where the
// recipient curates their own inbound list.
func (s *ShareService) RemoveFromMyList(ctx context.Context, shareID, callerID uuid.UUID) error {
	result := s.DB.WithContext(ctx).
		Where("id = ? AND shared_with_id = ?", shareID, callerID).
		Delete(&models.FileShare{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
