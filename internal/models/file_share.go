package models

import (
	"time"

	"github.com/google/uuid"
)

type SharePermission string

const (
	SharePermissionView     SharePermission = "view"
	SharePermissionDownload SharePermission = "download"
)

type ShareType string

const (
	ShareTypePublic  ShareType = "public"
	ShareTypePrivate ShareType = "private"
)

type FileShare struct {
	BaseModel
	FileID       uuid.UUID       `json:"fileID" gorm:"type:uuid;not null;index"`
	OwnerID      uuid.UUID       `json:"ownerID" gorm:"type:uuid;not null;index"`
	FileName     string          `json:"fileName" gorm:"type:varchar(255);not null"`
	ShareType    ShareType       `json:"shareType" gorm:"type:varchar(20);not null;index"`
	Permission   SharePermission `json:"permission" gorm:"type:varchar(20);not null;default:'view'"`
	SharedWithID *uuid.UUID      `json:"sharedWithID,omitempty" gorm:"type:uuid;index"`
	ShareToken   *string         `json:"shareToken,omitempty" gorm:"type:varchar(64);uniqueIndex"`
	ExpiresAt    *time.Time      `json:"expiresAt,omitempty"`
	SharedBy     string          `json:"sharedBy" gorm:"type:varchar(255);not null"`

	// SignedURL is filled in per request, never persisted.
	SignedURL string `json:"signedUrl,omitempty" gorm:"-"`

	File       File  `json:"file,omitempty" gorm:"foreignKey:FileID;references:ID"`
	Owner      User  `json:"-" gorm:"foreignKey:OwnerID;references:ID"`
	SharedWith *User `json:"-" gorm:"foreignKey:SharedWithID;references:ID"`
}

func (FileShare) TableName() string {
	return "file_shares"
}

func (s *FileShare) IsPublic() bool {
	return s.ShareType == ShareTypePublic
}

// IsExpired compares the stored expiry against now. Expiry is never cached
// as a stored flag.
func (s *FileShare) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}
