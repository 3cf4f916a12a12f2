package models

import "github.com/google/uuid"

type File struct {
	BaseModel
	Name     string     `json:"name" gorm:"type:varchar(255);not null"`
	MimeType string     `json:"mimeType" gorm:"type:varchar(255);not null"`
	Size     int64      `json:"size" gorm:"not null;default:0"`
	OwnerID  uuid.UUID  `json:"ownerID" gorm:"type:uuid;not null;index"`
	FolderID *uuid.UUID `json:"folderID,omitempty" gorm:"type:uuid;index"`
	Deleted  bool       `json:"deleted" gorm:"not null;default:false;index"`

	// SignedURL is filled in per request, never persisted.
	SignedURL string `json:"signedUrl,omitempty" gorm:"-"`

	Owner  User        `json:"-" gorm:"foreignKey:OwnerID;references:ID"`
	Folder *Folder     `json:"-" gorm:"foreignKey:FolderID"`
	Shares []FileShare `json:"-" gorm:"foreignKey:FileID"`
}

func (File) TableName() string {
	return "files"
}

// ObjectName is the blob path inside the bucket. Every user's objects live
// under their own id prefix.
func (f *File) ObjectName() string {
	return f.OwnerID.String() + "/" + f.Name
}
