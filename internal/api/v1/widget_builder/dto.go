package widget_builder

import "hunteros-backend/internal/generation"

// GenerateRequest asks for a new widget, or for a change to the current one
// when CurrentCode is set.
type GenerateRequest struct {
	Message      string `json:"message" binding:"required,max=4000"`
	CurrentCode  string `json:"currentCode"`
	CurrentTitle string `json:"currentTitle" binding:"max=100"`
}

func (r GenerateRequest) toGeneration() generation.Request {
	return generation.Request{
		Message:      r.Message,
		CurrentCode:  r.CurrentCode,
		CurrentTitle: r.CurrentTitle,
	}
}
