package sandbox

import (
	"errors"
	"fmt"
	"html"
	"strings"
)

// Mode selects how much the rendered frame may touch the host origin.
//
// The zero value is deliberately invalid: every caller has to name the
// isolation level it wants.
type Mode int

const (
	modeUnset Mode = iota
	// ModeUntrustedPreview runs scripts in an opaque origin. The frame cannot
	// read host cookies or storage, and cannot navigate the top-level page.
	ModeUntrustedPreview
	// ModeSameOrigin additionally grants allow-same-origin. Only the admin
	// template preview uses it, accepting host-origin access for fidelity.
	ModeSameOrigin
)

var ErrModeRequired = errors.New("sandbox: isolation mode must be chosen explicitly")

func (m Mode) String() string {
	switch m {
	case ModeUntrustedPreview:
		return "untrusted"
	case ModeSameOrigin:
		return "same-origin"
	default:
		return "unset"
	}
}

// ParseMode maps the query/flag spelling back to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "untrusted", "untrusted-preview":
		return ModeUntrustedPreview, nil
	case "same-origin":
		return ModeSameOrigin, nil
	default:
		return modeUnset, fmt.Errorf("unknown sandbox mode %q", s)
	}
}

// SandboxAttribute is the iframe sandbox attribute value for the mode.
func (m Mode) SandboxAttribute() string {
	switch m {
	case ModeUntrustedPreview:
		return "allow-scripts"
	case ModeSameOrigin:
		return "allow-scripts allow-same-origin"
	default:
		return ""
	}
}

// ContentSecurityPolicy is sent with the frame document. The sandbox directive
// keeps the isolation even if the document is opened outside an iframe.
func (m Mode) ContentSecurityPolicy() string {
	return "sandbox " + m.SandboxAttribute()
}

func (m Mode) valid() bool {
	return m == ModeUntrustedPreview || m == ModeSameOrigin
}

// Frame is a ready-to-serve rendering of widget code.
type Frame struct {
	Mode     Mode
	Empty    bool
	Document string
	Warnings []string
}

// Render wraps code for display in the given isolation mode. Blank code
// produces the empty-state document instead of an empty sandbox.
func Render(code string, mode Mode) (*Frame, error) {
	if !mode.valid() {
		return nil, ErrModeRequired
	}
	if IsBlank(code) {
		return &Frame{Mode: mode, Empty: true, Document: EmptyStateDocument}, nil
	}
	return &Frame{
		Mode:     mode,
		Document: WrapDocument(code),
		Warnings: Inspect(code),
	}, nil
}

// Headers returns the response headers the frame document must be served with.
func (f *Frame) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":           "text/html; charset=utf-8",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "no-referrer",
		"Cache-Control":          "no-store",
	}
	if !f.Empty {
		headers["Content-Security-Policy"] = f.Mode.ContentSecurityPolicy()
	}
	return headers
}

// IframeHTML renders an iframe element embedding the document via srcdoc.
func (f *Frame) IframeHTML(title string) string {
	if f.Empty {
		return fmt.Sprintf(`<iframe title="%s" sandbox="" srcdoc="%s" style="width:100%%;height:100%%;border:none;"></iframe>`,
			html.EscapeString(title), html.EscapeString(f.Document))
	}
	return fmt.Sprintf(`<iframe title="%s" sandbox="%s" referrerpolicy="no-referrer" srcdoc="%s" style="width:100%%;height:100%%;border:none;"></iframe>`,
		html.EscapeString(title), f.Mode.SandboxAttribute(), html.EscapeString(f.Document))
}
