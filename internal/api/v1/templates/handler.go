package templates

import (
	"errors"
	"net/http"

	"hunteros-backend/internal/api/v1/common/preview"
	"hunteros-backend/internal/middleware"
	"hunteros-backend/internal/models"
	"hunteros-backend/internal/sandbox"
	"hunteros-backend/internal/services"
	"hunteros-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Template not found"))
	case errors.Is(err, services.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "You do not own this template"))
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

// CreateTemplate godoc
// @Summary Create a widget template
// @Description Store reusable widget code. Only administrators may publish.
// @Tags templates
// @Accept json
// @Produce json
// @Param request body CreateTemplateRequest true "Create Template Request"
// @Success 201 {object} utils.Response{data=models.Template}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /templates [post]
func CreateTemplate(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateTemplateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if req.IsPublic && !user.IsAdmin() {
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Only administrators can create public templates"))
		return
	}

	template, err := services.CreateTemplate(user.ID, req.Name, req.Description, req.Code, req.IsPublic)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse("Template created successfully", template))
}

// UpdateTemplate godoc
// @Summary Update a widget template
// @Description Partially update a template. A code change creates a new version.
// @Tags templates
// @Accept json
// @Produce json
// @Param id path int true "Template ID"
// @Param request body UpdateTemplateRequest true "Update Template Request"
// @Success 200 {object} utils.Response{data=models.Template}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /templates/{id} [patch]
func UpdateTemplate(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateTemplateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if req.IsPublic != nil && *req.IsPublic && !user.IsAdmin() {
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Only administrators can make templates public"))
		return
	}

	template, err := services.UpdateTemplate(id, user.ID, services.TemplateUpdate{
		Name:        req.Name,
		Description: req.Description,
		Code:        req.Code,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Template updated successfully", template))
}

// DeleteTemplate godoc
// @Summary Delete a widget template
// @Description Widgets bound to the template keep rendering their own fallback code
// @Tags templates
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /templates/{id} [delete]
func DeleteTemplate(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := services.DeleteTemplate(id, user.ID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Template deleted successfully", nil))
}

// GetTemplate godoc
// @Summary Get a widget template
// @Tags templates
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} utils.Response{data=models.Template}
// @Failure 404 {object} utils.Response
// @Router /templates/{id} [get]
func GetTemplate(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}

	template, err := services.GetTemplate(id, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Success", template))
}

// ListTemplates godoc
// @Summary List widget templates
// @Description List templates visible to the user: own templates and public ones
// @Tags templates
// @Produce json
// @Param filter query string false "mine, public or all"
// @Param search query string false "Search in name and description"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} utils.Response{data=utils.ListData}
// @Failure 400 {object} utils.Response
// @Router /templates [get]
func ListTemplates(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var q ListTemplatesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}
	page, limit := utils.Pagination(q.Page, q.Limit)

	filter := services.TemplateFilter(q.Filter)
	if q.Filter == "all" {
		filter = services.TemplateFilterAll
	}

	templates, total, err := services.ListTemplates(user.ID, filter, q.Search, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewListResponse(templates, total, page, limit))
}

// ListTemplateVersions godoc
// @Summary List template versions
// @Tags templates
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} utils.Response{data=[]models.TemplateVersion}
// @Failure 404 {object} utils.Response
// @Router /templates/{id}/versions [get]
func ListTemplateVersions(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}

	versions, err := services.ListTemplateVersions(id, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Success", versions))
}

// RenderTemplate godoc
// @Summary Render a template in the untrusted sandbox
// @Description Returns the isolated HTML document, or JSON with format=json
// @Tags templates
// @Produce html
// @Param id path int true "Template ID"
// @Param format query string false "json for a JSON envelope"
// @Success 200 {string} string "HTML document"
// @Failure 404 {object} utils.Response
// @Router /templates/{id}/render [get]
func RenderTemplate(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}

	template, err := services.GetTemplate(id, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	preview.WriteFrame(c, template.Code, template.Name, sandbox.ModeUntrustedPreview)
}

// PreviewTemplate godoc
// @Summary Preview a template with same-origin privileges
// @Description Admin-only preview for templates that need storage or cookies
// @Tags admin
// @Produce html
// @Param id path int true "Template ID"
// @Success 200 {string} string "HTML document"
// @Failure 404 {object} utils.Response
// @Router /admin/templates/{id}/preview [get]
func PreviewTemplate(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}

	template, err := services.GetTemplateByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	preview.WriteFrame(c, template.Code, template.Name, sandbox.ModeSameOrigin)
}
