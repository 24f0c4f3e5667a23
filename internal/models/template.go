package models

import "time"

// Template is a reusable custom-widget snippet. Code is stored as opaque text
// and is never parsed or executed by the backend.
type Template struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Name        string    `gorm:"index;not null" json:"name"`
	Description string    `json:"description"`
	Code        string    `gorm:"type:text;not null" json:"code"`
	IsPublic    bool      `gorm:"index;not null;default:false" json:"isPublic"`
	Version     int       `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Template) TableName() string {
	return "widget_templates"
}

// TemplateVersion is an immutable snapshot written on create and on every
// code change.
type TemplateVersion struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	TemplateID uint      `gorm:"uniqueIndex:idx_template_version;not null" json:"template_id"`
	Version    int       `gorm:"uniqueIndex:idx_template_version;not null" json:"version"`
	Name       string    `json:"name"`
	Code       string    `gorm:"type:text;not null" json:"code"`
	CreatedBy  uint      `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func (TemplateVersion) TableName() string {
	return "widget_template_versions"
}
