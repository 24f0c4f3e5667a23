// Package generation implements the AI widget builder stream: the frame
// codec shared by the backend and its clients, a streaming HTTP client, and
// the session state machine that decides which deltas reach visible state.
package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FrameKind classifies one line of the generation stream.
type FrameKind int

const (
	FrameIgnored FrameKind = iota
	FrameContent
	FrameDone
	FrameError
)

func (k FrameKind) String() string {
	switch k {
	case FrameContent:
		return "content"
	case FrameDone:
		return "done"
	case FrameError:
		return "error"
	default:
		return "ignored"
	}
}

const framePrefix = "data:"

var ErrMalformedFrame = errors.New("malformed generation frame")

// Frame is a decoded `data: <json>` line.
type Frame struct {
	Kind    FrameKind
	Content string
	Title   string
	Error   string
}

// payload is the JSON body of a frame. Pointers distinguish an absent field
// from an empty one: {"content":""} is a valid no-op delta.
type payload struct {
	Content *string `json:"content,omitempty"`
	Done    bool    `json:"done,omitempty"`
	Title   string  `json:"title,omitempty"`
	Error   *string `json:"error,omitempty"`
}

// ParseFrame decodes a single stream line. Lines that are not data frames, and
// data frames whose JSON matches none of the known shapes, are FrameIgnored.
// Undecodable JSON yields ErrMalformedFrame.
func ParseFrame(line string) (Frame, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, framePrefix) {
		return Frame{Kind: FrameIgnored}, nil
	}
	data := strings.TrimSpace(strings.TrimPrefix(line, framePrefix))
	if data == "" {
		return Frame{Kind: FrameIgnored}, nil
	}

	var p payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Frame{Kind: FrameIgnored}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch {
	case p.Error != nil:
		return Frame{Kind: FrameError, Error: *p.Error}, nil
	case p.Done:
		return Frame{Kind: FrameDone, Title: p.Title}, nil
	case p.Content != nil:
		return Frame{Kind: FrameContent, Content: *p.Content}, nil
	default:
		return Frame{Kind: FrameIgnored}, nil
	}
}

// ContentFrame encodes a content delta line, including the blank separator.
func ContentFrame(delta string) []byte {
	return encode(payload{Content: &delta})
}

// DoneFrame encodes the completion marker. title may be empty.
func DoneFrame(title string) []byte {
	return encode(payload{Done: true, Title: title})
}

// ErrorFrame encodes a backend error marker.
func ErrorFrame(message string) []byte {
	return encode(payload{Error: &message})
}

func encode(p payload) []byte {
	// payload only holds strings and a bool, Marshal cannot fail
	data, _ := json.Marshal(p)
	out := make([]byte, 0, len(data)+len(framePrefix)+3)
	out = append(out, framePrefix...)
	out = append(out, ' ')
	out = append(out, data...)
	out = append(out, '\n', '\n')
	return out
}
