package preview

import (
	"net/http"

	"hunteros-backend/internal/metrics"
	"hunteros-backend/internal/sandbox"
	"hunteros-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// Response is the JSON form of a rendered sandbox document.
type Response struct {
	Mode     string   `json:"mode"`
	Empty    bool     `json:"empty"`
	Document string   `json:"document"`
	Iframe   string   `json:"iframe"`
	Warnings []string `json:"warnings"`
}

type RenderRequest struct {
	Code  string `json:"code"`
	Title string `json:"title" binding:"max=100"`
	Mode  string `json:"mode"`
}

func NewResponse(f *sandbox.Frame, title string) Response {
	warnings := f.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return Response{
		Mode:     f.Mode.String(),
		Empty:    f.Empty,
		Document: f.Document,
		Iframe:   f.IframeHTML(title),
		Warnings: warnings,
	}
}

// WriteFrame renders code in mode and writes it as an HTML document with
// its isolation headers, or as JSON when the format query is "json".
func WriteFrame(c *gin.Context, code, title string, mode sandbox.Mode) {
	frame, err := sandbox.Render(code, mode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, err.Error()))
		return
	}
	metrics.RecordRender(mode.String(), frame.Empty)

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, utils.NewSuccessResponse("Success", NewResponse(frame, title)))
		return
	}

	for k, v := range frame.Headers() {
		c.Header(k, v)
	}
	c.String(http.StatusOK, frame.Document)
}

// Render godoc
// @Summary Render code in the sandbox
// @Description Wrap arbitrary widget code into an isolated document, for live previews in the builder
// @Tags common
// @Accept json
// @Produce json
// @Param request body RenderRequest true "Code to render"
// @Success 200 {object} utils.Response{data=preview.Response}
// @Failure 400 {object} utils.Response
// @Router /common/preview [post]
func Render(c *gin.Context) {
	var req RenderRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	mode := sandbox.ModeUntrustedPreview
	if req.Mode != "" {
		parsed, err := sandbox.ParseMode(req.Mode)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
			return
		}
		mode = parsed
	}
	// Same-origin previews are reserved for the admin template preview
	if mode != sandbox.ModeUntrustedPreview {
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Only untrusted previews may be rendered here"))
		return
	}

	frame, err := sandbox.Render(req.Code, mode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, err.Error()))
		return
	}
	metrics.RecordRender(mode.String(), frame.Empty)

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Success", NewResponse(frame, req.Title)))
}
