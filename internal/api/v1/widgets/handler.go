package widgets

import (
	"errors"
	"net/http"

	"hunteros-backend/internal/api/v1/common/preview"
	"hunteros-backend/internal/metrics"
	"hunteros-backend/internal/middleware"
	"hunteros-backend/internal/models"
	"hunteros-backend/internal/sandbox"
	"hunteros-backend/internal/services"
	"hunteros-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrWidgetNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Widget not found"))
	case errors.Is(err, services.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Template not found"))
	case errors.Is(err, services.ErrNotCustomWidget), errors.Is(err, services.ErrInvalidWidgetKind):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, err.Error()))
	}
}

func requireUser(c *gin.Context) (models.User, bool) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
	}
	return user, ok
}

func newWidgetResponse(w *models.Widget) WidgetResponse {
	state := "none"
	if w.Kind == models.WidgetKindCustom {
		state = services.WidgetContent(w).State().String()
	}
	return WidgetResponse{Widget: *w, Binding: state}
}

// loadWidget reads the :id widget owned by the current user.
func loadWidget(c *gin.Context) (*models.Widget, bool) {
	user, ok := requireUser(c)
	if !ok {
		return nil, false
	}
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	widget, err := services.GetWidget(id, user.ID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return widget, true
}

// ListWidgets godoc
// @Summary List dashboard widgets
// @Tags widgets
// @Produce json
// @Success 200 {object} utils.Response{data=[]WidgetResponse}
// @Router /widgets [get]
func ListWidgets(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	widgets, err := services.ListWidgets(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]WidgetResponse, 0, len(widgets))
	for i := range widgets {
		resp = append(resp, newWidgetResponse(&widgets[i]))
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Success", resp))
}

// CreateWidget godoc
// @Summary Add a widget to the dashboard
// @Description Custom widgets start from inline code or follow a template when template_id is set
// @Tags widgets
// @Accept json
// @Produce json
// @Param request body CreateWidgetRequest true "Create Widget Request"
// @Success 201 {object} utils.Response{data=WidgetResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /widgets [post]
func CreateWidget(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateWidgetRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	widget, err := services.CreateWidget(c.Request.Context(), user.ID, services.WidgetInput{
		Kind:       models.WidgetKind(req.Kind),
		Title:      req.Title,
		Layout:     req.Layout,
		Settings:   req.Settings,
		Code:       req.Code,
		TemplateID: req.TemplateID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse("Widget created successfully", newWidgetResponse(widget)))
}

// GetWidget godoc
// @Summary Get a widget
// @Tags widgets
// @Produce json
// @Param id path int true "Widget ID"
// @Success 200 {object} utils.Response{data=WidgetResponse}
// @Failure 404 {object} utils.Response
// @Router /widgets/{id} [get]
func GetWidget(c *gin.Context) {
	widget, ok := loadWidget(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Success", newWidgetResponse(widget)))
}

// UpdateWidget godoc
// @Summary Update widget title, layout or settings
// @Tags widgets
// @Accept json
// @Produce json
// @Param id path int true "Widget ID"
// @Param request body UpdateWidgetRequest true "Update Widget Request"
// @Success 200 {object} utils.Response{data=WidgetResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /widgets/{id} [patch]
func UpdateWidget(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateWidgetRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	widget, err := services.UpdateWidget(id, user.ID, services.WidgetPatch{
		Title:    req.Title,
		Layout:   req.Layout,
		Settings: req.Settings,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Widget updated successfully", newWidgetResponse(widget)))
}

// DeleteWidget godoc
// @Summary Remove a widget
// @Tags widgets
// @Produce json
// @Param id path int true "Widget ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /widgets/{id} [delete]
func DeleteWidget(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := services.DeleteWidget(id, user.ID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Widget deleted successfully", nil))
}

// SaveCode godoc
// @Summary Save edited code on the widget
// @Description Stores the code as the widget's own copy and detaches it from any template. The template is never modified.
// @Tags widgets
// @Accept json
// @Produce json
// @Param id path int true "Widget ID"
// @Param request body SaveCodeRequest true "Widget code"
// @Success 200 {object} utils.Response{data=WidgetResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /widgets/{id}/code [put]
func SaveCode(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req SaveCodeRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	widget, err := services.SaveWidgetCode(id, user.ID, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Widget code saved", newWidgetResponse(widget)))
}

// BindTemplate godoc
// @Summary Bind the widget to a template
// @Description The widget renders the template's current code from now on. No code is copied.
// @Tags widgets
// @Accept json
// @Produce json
// @Param id path int true "Widget ID"
// @Param request body BindTemplateRequest true "Template to follow"
// @Success 200 {object} utils.Response{data=WidgetResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /widgets/{id}/template [put]
func BindTemplate(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req BindTemplateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	widget, err := services.BindWidgetTemplate(c.Request.Context(), id, user.ID, req.TemplateID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Widget bound to template", newWidgetResponse(widget)))
}

// GetResolved godoc
// @Summary Resolve the code a widget renders
// @Description Reports where the code came from and whether a bound template has disappeared
// @Tags widgets
// @Produce json
// @Param id path int true "Widget ID"
// @Success 200 {object} utils.Response{data=ResolvedResponse}
// @Failure 404 {object} utils.Response
// @Router /widgets/{id}/resolved [get]
func GetResolved(c *gin.Context) {
	widget, ok := loadWidget(c)
	if !ok {
		return
	}

	res := services.ResolveWidget(c.Request.Context(), widget)
	frame, err := sandbox.Render(res.Code, sandbox.ModeUntrustedPreview)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.RecordRender(frame.Mode.String(), frame.Empty)

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Success", ResolvedResponse{
		WidgetID:        widget.ID,
		Binding:         newWidgetResponse(widget).Binding,
		Source:          string(res.Source),
		Code:            res.Code,
		TemplateID:      res.TemplateID,
		TemplateName:    res.TemplateName,
		TemplateMissing: res.TemplateMissing,
		Frame:           preview.NewResponse(frame, widget.Title),
	}))
}

// GetFrame godoc
// @Summary Sandboxed widget document
// @Description The isolated HTML document to load in the widget's iframe, or the empty-state document
// @Tags widgets
// @Produce html
// @Param id path int true "Widget ID"
// @Success 200 {string} string "HTML document"
// @Failure 404 {object} utils.Response
// @Router /widgets/{id}/frame [get]
func GetFrame(c *gin.Context) {
	widget, ok := loadWidget(c)
	if !ok {
		return
	}

	res := services.ResolveWidget(c.Request.Context(), widget)
	preview.WriteFrame(c, res.Code, widget.Title, sandbox.ModeUntrustedPreview)
}
