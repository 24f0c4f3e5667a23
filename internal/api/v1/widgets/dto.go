package widgets

import (
	"hunteros-backend/internal/api/v1/common/preview"
	"hunteros-backend/internal/models"

	"gorm.io/datatypes"
)

type CreateWidgetRequest struct {
	Kind       string         `json:"kind" binding:"omitempty,oneof=custom notes priorities journal kpi timer ai_chat pipeline"`
	Title      string         `json:"title" binding:"max=100"`
	Layout     datatypes.JSON `json:"layout"`
	Settings   datatypes.JSON `json:"settings"`
	Code       string         `json:"code"`
	TemplateID *uint          `json:"template_id"`
}

type UpdateWidgetRequest struct {
	Title    *string        `json:"title" binding:"omitempty,max=100"`
	Layout   datatypes.JSON `json:"layout"`
	Settings datatypes.JSON `json:"settings"`
}

// SaveCodeRequest saves edited code as the widget's own copy.
type SaveCodeRequest struct {
	Code string `json:"code"`
}

// BindTemplateRequest makes the widget follow a template.
type BindTemplateRequest struct {
	TemplateID uint `json:"template_id" binding:"required"`
}

// WidgetResponse is a widget with its binding state.
type WidgetResponse struct {
	models.Widget
	Binding string `json:"binding"`
}

// ResolvedResponse is the code a widget renders right now.
type ResolvedResponse struct {
	WidgetID        uint             `json:"widget_id"`
	Binding         string           `json:"binding"`
	Source          string           `json:"source"`
	Code            string           `json:"code"`
	TemplateID      uint             `json:"template_id,omitempty"`
	TemplateName    string           `json:"template_name,omitempty"`
	TemplateMissing bool             `json:"template_missing"`
	Frame           preview.Response `json:"frame"`
}
