package models

import "time"

type User struct {
	BaseModel
	Name               string     `json:"name" gorm:"type:varchar(100);not null"`
	Email              string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash       string     `json:"-" gorm:"type:text;not null"`
	ResetCode          *string    `json:"-" gorm:"type:varchar(10)"`
	ResetCodeExpiresAt *time.Time `json:"-"`

	Folders []Folder    `json:"-" gorm:"foreignKey:OwnerID"`
	Files   []File      `json:"-" gorm:"foreignKey:OwnerID"`
	Shares  []FileShare `json:"-" gorm:"foreignKey:OwnerID"`
}

// DisplayName is the string recorded on shares this user creates.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
