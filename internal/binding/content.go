// Package binding decides which code a custom widget renders and how edits
// are saved: by reference to a live template, or by value as a frozen copy.
package binding

import "strings"

// State is the widget's position in the binding state machine.
type State int

const (
	StateEmpty State = iota
	StateBoundToTemplate
	StateInlinedCode
)

func (s State) String() string {
	switch s {
	case StateBoundToTemplate:
		return "bound_to_template"
	case StateInlinedCode:
		return "inlined_code"
	default:
		return "empty"
	}
}

// Content is the custom-widget content union. Exactly one of the concrete
// types below describes a widget at any time.
type Content interface {
	State() State
	isContent()
}

// Empty is a widget with neither code nor a template.
type Empty struct{}

// ByReference renders the referenced template's current code. Fallback is the
// widget's last inlined copy, rendered only if the template cannot be fetched.
type ByReference struct {
	TemplateID   uint
	TemplateName string
	Fallback     string
}

// ByValue renders a private copy of code owned by the widget.
type ByValue struct {
	Code string
}

func (Empty) State() State       { return StateEmpty }
func (ByReference) State() State { return StateBoundToTemplate }
func (ByValue) State() State     { return StateInlinedCode }

func (Empty) isContent()       {}
func (ByReference) isContent() {}
func (ByValue) isContent()     {}

// Columns is the stored shape of Content on a widget row.
type Columns struct {
	TemplateID   *uint
	TemplateName string
	Code         string
}

// FromColumns rebuilds Content from stored columns. A template id makes the
// widget by-reference and demotes any code to fallback.
func FromColumns(templateID *uint, templateName, code string) Content {
	if templateID != nil && *templateID != 0 {
		return ByReference{TemplateID: *templateID, TemplateName: templateName, Fallback: code}
	}
	if strings.TrimSpace(code) == "" {
		return Empty{}
	}
	return ByValue{Code: code}
}

// ToColumns is the inverse of FromColumns.
func ToColumns(c Content) Columns {
	switch v := c.(type) {
	case ByReference:
		id := v.TemplateID
		return Columns{TemplateID: &id, TemplateName: v.TemplateName, Code: v.Fallback}
	case ByValue:
		return Columns{Code: v.Code}
	default:
		return Columns{}
	}
}

// EditInline is save path A: the edited code becomes the widget's own copy
// and any template reference is dropped. The template itself is untouched.
func EditInline(code string) Content {
	if strings.TrimSpace(code) == "" {
		return Empty{}
	}
	return ByValue{Code: code}
}

// BindTemplate is save path B: the widget follows template id. No template
// code is copied; the widget's previous inlined code is kept as fallback.
func BindTemplate(current Content, id uint, name string) Content {
	return ByReference{TemplateID: id, TemplateName: name, Fallback: InlinedCode(current)}
}

// InlinedCode returns the code the widget owns itself, if any.
func InlinedCode(c Content) string {
	switch v := c.(type) {
	case ByReference:
		return v.Fallback
	case ByValue:
		return v.Code
	default:
		return ""
	}
}
