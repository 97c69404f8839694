package sse

import "strings"

// FrameKind classifies a single line of the stream grammar.
type FrameKind int

const (
	// FrameIgnored covers "id:" lines, blank lines, comments and unknown
	// prefixes.
	FrameIgnored FrameKind = iota

	// FrameEvent is an "event:" line. Frame.Name holds the event name.
	FrameEvent

	// FrameData is a "data:" line. Frame.Data holds the payload.
	FrameData
)

func (k FrameKind) String() string {
	switch k {
	case FrameEvent:
		return "event"
	case FrameData:
		return "data"
	default:
		return "ignored"
	}
}

// Frame is one classified line.
type Frame struct {
	Kind FrameKind

	// Name is the trimmed event name of a FrameEvent.
	Name string

	// Data is the trimmed payload of a FrameData.
	Data string
}

const (
	prefixID    = "id:"
	prefixEvent = "event:"
	prefixData  = "data:"
)

// Parser classifies lines. It remembers the last "event:" name for the
// lifetime of one stream.
type Parser struct {
	currentEvent string
}

// NewParser returns a Parser with no current event.
func NewParser() *Parser {
	return &Parser{}
}

// Parse classifies a complete line (no trailing newline).
func (p *Parser) Parse(line string) Frame {
	switch {
	case strings.HasPrefix(line, prefixID):
		return Frame{Kind: FrameIgnored}

	case strings.HasPrefix(line, prefixEvent):
		p.currentEvent = strings.TrimSpace(line[len(prefixEvent):])
		return Frame{Kind: FrameEvent, Name: p.currentEvent}

	case strings.HasPrefix(line, prefixData):
		return Frame{Kind: FrameData, Data: strings.TrimSpace(line[len(prefixData):])}

	default:
		return Frame{Kind: FrameIgnored}
	}
}

// CurrentEvent returns the last event name seen, or "" if none.
func (p *Parser) CurrentEvent() string {
	return p.currentEvent
}

// Reset clears the current event. Call it only when the stream restarts.
func (p *Parser) Reset() {
	p.currentEvent = ""
}
