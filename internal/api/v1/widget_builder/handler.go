package widget_builder

import (
	"net/http"

	"hunteros-backend/internal/generation"
	"hunteros-backend/internal/metrics"
	"hunteros-backend/internal/middleware"
	"hunteros-backend/internal/services"
	"hunteros-backend/internal/utils"
	"hunteros-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const notConfiguredMessage = "The widget builder is not configured"

type Handler struct {
	streamer services.ChatStreamer
}

// NewHandler creates the builder handler. A nil streamer answers every
// request with an error frame.
func NewHandler(streamer services.ChatStreamer) *Handler {
	return &Handler{streamer: streamer}
}

// Generate godoc
// @Summary Generate widget code
// @Description Streams generated widget code as server-sent events. Each frame is `data: <json>`: {"content"} deltas, then {"done":true,"title"} or {"error"}.
// @Tags widget_builder
// @Accept json
// @Produce text/event-stream
// @Param request body GenerateRequest true "Generation request"
// @Success 200 {string} string "event stream"
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /widget-builder/generate [post]
func (h *Handler) Generate(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	var req GenerateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	log := logger.Named("widget_builder").With(zap.Uint("user_id", user.ID))
	ctx := c.Request.Context()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	write := func(frame []byte, kind generation.FrameKind) error {
		if _, err := c.Writer.Write(frame); err != nil {
			return err
		}
		c.Writer.Flush()
		metrics.RecordFrame(kind.String())
		return nil
	}

	if h.streamer == nil {
		_ = write(generation.ErrorFrame(notConfiguredMessage), generation.FrameError)
		return
	}

	title, err := services.GenerateWidget(ctx, h.streamer, req.toGeneration(), func(delta string) error {
		return write(generation.ContentFrame(delta), generation.FrameContent)
	})
	if ctx.Err() != nil {
		log.Info("client disconnected, generation abandoned")
		return
	}
	if err != nil {
		log.Warn("generation failed", zap.Error(err))
		_ = write(generation.ErrorFrame(err.Error()), generation.FrameError)
		return
	}

	_ = write(generation.DoneFrame(title), generation.FrameDone)
}
