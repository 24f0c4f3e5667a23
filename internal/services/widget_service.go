package services

import (
	"context"
	"errors"

	"hunteros-backend/internal/binding"
	"hunteros-backend/internal/database"
	"hunteros-backend/internal/models"
	"hunteros-backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrWidgetNotFound    = errors.New("widget not found")
	ErrNotCustomWidget   = errors.New("only custom widgets carry code")
	ErrInvalidWidgetKind = errors.New("invalid widget kind")
)

var widgetKinds = map[models.WidgetKind]bool{
	models.WidgetKindCustom:     true,
	models.WidgetKindNotes:      true,
	models.WidgetKindPriorities: true,
	models.WidgetKindJournal:    true,
	models.WidgetKindKPI:        true,
	models.WidgetKindTimer:      true,
	models.WidgetKindAIChat:     true,
	models.WidgetKindPipeline:   true,
}

// WidgetInput describes a new widget. For custom widgets TemplateID takes
// precedence over Code.
type WidgetInput struct {
	Kind       models.WidgetKind
	Title      string
	Layout     datatypes.JSON
	Settings   datatypes.JSON
	Code       string
	TemplateID *uint
}

// WidgetPatch updates presentation fields. Code changes go through
// SaveWidgetCode or BindWidgetTemplate.
type WidgetPatch struct {
	Title    *string
	Layout   datatypes.JSON
	Settings datatypes.JSON
}

// WidgetContent reads the binding content stored on a widget.
func WidgetContent(w *models.Widget) binding.Content {
	return binding.FromColumns(w.TemplateID, w.TemplateName, w.Code)
}

func applyContent(w *models.Widget, c binding.Content) {
	cols := binding.ToColumns(c)
	w.TemplateID = cols.TemplateID
	w.TemplateName = cols.TemplateName
	w.Code = cols.Code
}

func CreateWidget(ctx context.Context, userID uint, in WidgetInput) (*models.Widget, error) {
	if in.Kind == "" {
		in.Kind = models.WidgetKindCustom
	}
	if !widgetKinds[in.Kind] {
		return nil, ErrInvalidWidgetKind
	}

	widget := &models.Widget{
		UserID:   userID,
		Kind:     in.Kind,
		Title:    in.Title,
		Layout:   in.Layout,
		Settings: in.Settings,
	}

	if in.Kind == models.WidgetKindCustom {
		var content binding.Content = binding.EditInline(in.Code)
		if in.TemplateID != nil {
			template, err := getVisibleTemplate(ctx, *in.TemplateID, userID)
			if err != nil {
				return nil, err
			}
			content = binding.BindTemplate(content, template.ID, template.Name)
		}
		applyContent(widget, content)
	}

	if err := database.DB.WithContext(ctx).Create(widget).Error; err != nil {
		return nil, err
	}
	return widget, nil
}

func ListWidgets(userID uint) ([]models.Widget, error) {
	var widgets []models.Widget
	if err := database.DB.Where("user_id = ?", userID).Order("id asc").Find(&widgets).Error; err != nil {
		return nil, err
	}
	return widgets, nil
}

// GetWidget retrieves a widget owned by the user.
func GetWidget(id, userID uint) (*models.Widget, error) {
	var widget models.Widget
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&widget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWidgetNotFound
		}
		return nil, err
	}
	return &widget, nil
}

// present reports whether a JSON patch field was sent; null means unchanged.
func present(j datatypes.JSON) bool {
	return len(j) > 0 && string(j) != "null"
}

func UpdateWidget(id, userID uint, patch WidgetPatch) (*models.Widget, error) {
	widget, err := GetWidget(id, userID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		widget.Title = *patch.Title
	}
	if present(patch.Layout) {
		widget.Layout = patch.Layout
	}
	if present(patch.Settings) {
		widget.Settings = patch.Settings
	}

	if err := database.DB.Save(widget).Error; err != nil {
		return nil, err
	}
	return widget, nil
}

func DeleteWidget(id, userID uint) error {
	result := database.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Widget{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWidgetNotFound
	}
	return nil
}

// SaveWidgetCode saves edited code as the widget's own copy. Any template
// reference is dropped and the template itself is never modified.
func SaveWidgetCode(id, userID uint, code string) (*models.Widget, error) {
	widget, err := GetWidget(id, userID)
	if err != nil {
		return nil, err
	}
	if widget.Kind != models.WidgetKindCustom {
		return nil, ErrNotCustomWidget
	}

	detached := widget.TemplateID != nil
	applyContent(widget, binding.EditInline(code))

	// Save writes every column, so a cleared TemplateID is persisted as NULL
	if err := database.DB.Save(widget).Error; err != nil {
		return nil, err
	}
	if detached {
		logger.Named("widgets").Info("widget detached from template", zap.Uint("widget_id", widget.ID))
	}
	return widget, nil
}

// BindWidgetTemplate makes the widget follow a template the user can see.
// The template's code is not copied onto the widget.
func BindWidgetTemplate(ctx context.Context, id, userID, templateID uint) (*models.Widget, error) {
	widget, err := GetWidget(id, userID)
	if err != nil {
		return nil, err
	}
	if widget.Kind != models.WidgetKindCustom {
		return nil, ErrNotCustomWidget
	}

	template, err := getVisibleTemplate(ctx, templateID, userID)
	if err != nil {
		return nil, err
	}

	applyContent(widget, binding.BindTemplate(WidgetContent(widget), template.ID, template.Name))
	if err := database.DB.WithContext(ctx).Save(widget).Error; err != nil {
		return nil, err
	}
	return widget, nil
}

// ResolveWidget returns the code the widget renders right now.
func ResolveWidget(ctx context.Context, widget *models.Widget) binding.Resolution {
	if widget.Kind != models.WidgetKindCustom {
		return binding.Resolution{Source: binding.SourceEmpty}
	}
	return binding.NewResolver(TemplateFetcher(widget.UserID)).Resolve(ctx, WidgetContent(widget))
}
