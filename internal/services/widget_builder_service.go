package services

import (
	"context"
	"strings"
	"time"

	"hunteros-backend/internal/generation"
	"hunteros-backend/internal/metrics"
)

const widgetBuilderSystemPrompt = `You build small self-contained widgets for a personal dashboard.
Reply with HTML only: markup, inline <style> and inline <script>. No explanations, no markdown.
The widget is rendered inside a sandboxed iframe that fills its grid cell:
- it may run scripts but has no access to cookies, storage or the parent page;
- the body background is transparent and margins are reset;
- use relative sizes so the widget adapts to its cell;
- external resources may fail to load, so prefer inline assets.
You may return either a fragment or a complete <!DOCTYPE html> document.
If you include a <title>, keep it short; it becomes the widget title.`

// BuildGenerationMessages builds the chat prompt for one widget builder call.
// Edit-in-place requests carry the widget's current code and title.
func BuildGenerationMessages(req generation.Request) []ChatMessage {
	messages := []ChatMessage{{Role: "system", Content: widgetBuilderSystemPrompt}}

	if strings.TrimSpace(req.CurrentCode) != "" {
		var b strings.Builder
		b.WriteString("Here is the current widget")
		if title := strings.TrimSpace(req.CurrentTitle); title != "" {
			b.WriteString(" \"")
			b.WriteString(title)
			b.WriteString("\"")
		}
		b.WriteString(":\n\n")
		b.WriteString(req.CurrentCode)
		b.WriteString("\n\nApply the following change and return the complete updated widget.")
		messages = append(messages,
			ChatMessage{Role: "user", Content: b.String()},
			ChatMessage{Role: "assistant", Content: "Understood. What should change?"},
		)
	}

	return append(messages, ChatMessage{Role: "user", Content: req.Message})
}

// GenerateWidget streams one generation through streamer, forwarding each
// delta to onDelta, and returns the title for the completion frame.
func GenerateWidget(ctx context.Context, streamer ChatStreamer, req generation.Request, onDelta func(string) error) (string, error) {
	defer metrics.GenerationStarted()()
	start := time.Now()

	var output strings.Builder
	err := streamer.StreamChatCompletion(ctx, BuildGenerationMessages(req), func(delta string) error {
		output.WriteString(delta)
		return onDelta(delta)
	})

	outcome := "done"
	switch {
	case ctx.Err() != nil:
		outcome = "cancelled"
	case err != nil:
		outcome = "error"
	}
	metrics.RecordGeneration(outcome, time.Since(start))
	if err != nil {
		return "", err
	}

	code := generation.ExtractCode(output.String())
	return generation.InferTitle("", req.CurrentTitle, code, req.Message), nil
}
