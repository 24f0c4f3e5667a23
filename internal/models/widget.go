package models

import (
	"time"

	"gorm.io/datatypes"
)

type WidgetKind string

const (
	WidgetKindCustom     WidgetKind = "custom"
	WidgetKindNotes      WidgetKind = "notes"
	WidgetKindPriorities WidgetKind = "priorities"
	WidgetKindJournal    WidgetKind = "journal"
	WidgetKindKPI        WidgetKind = "kpi"
	WidgetKindTimer      WidgetKind = "timer"
	WidgetKindAIChat     WidgetKind = "ai_chat"
	WidgetKindPipeline   WidgetKind = "pipeline"
)

// Widget is one tile on a user's dashboard grid. For custom widgets the
// TemplateID/TemplateName/Code columns hold the binding content.
type Widget struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	UserID       uint           `gorm:"index;not null" json:"user_id"`
	Kind         WidgetKind     `gorm:"index;not null;default:'custom'" json:"kind"`
	Title        string         `json:"title"`
	Layout       datatypes.JSON `json:"layout"`
	Settings     datatypes.JSON `json:"settings"`
	TemplateID   *uint          `gorm:"index" json:"template_id,omitempty"`
	TemplateName string         `json:"template_name,omitempty"`
	Code         string         `gorm:"type:text" json:"code,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (Widget) TableName() string {
	return "widgets"
}
