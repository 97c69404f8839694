package stream

// MessageKind is the decoded intent of a payload.
type MessageKind int

const (
	// KindContent is a fragment of the answer.
	KindContent MessageKind = iota

	// KindDone signals normal completion.
	KindDone

	// KindError signals a server-side failure. Text holds the reason.
	KindError
)

func (k MessageKind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindDone:
		return "done"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Message is a structured message extracted from a data payload.
type Message struct {
	Kind MessageKind
	Text string
}

// Content returns a content message.
func Content(text string) Message {
	return Message{Kind: KindContent, Text: text}
}

// Done returns a completion message.
func Done() Message {
	return Message{Kind: KindDone}
}

// Failure returns an error message with the given reason.
func Failure(reason string) Message {
	return Message{Kind: KindError, Text: reason}
}
