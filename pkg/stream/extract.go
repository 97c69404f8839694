package stream

import (
	"iter"
	"log/slog"
	"regexp"

	"github.com/tidwall/gjson"

	"github.com/papercomputeco/superbiz/pkg/logger"
)

const (
	typeContent = "content"
	typeDone    = "done"
	typeError   = "error"

	// defaultErrorReason is used when an error message carries no data.
	defaultErrorReason = "<error>"
)

// envelopePattern matches a minimal {"type": "...", "data": "..."|null}
// object. The backend sometimes concatenates several of them in a single
// data line with no separator.
//
// This is a heuristic: a data string containing an escaped quote does not
// match, and text that merely looks like an envelope is split as one.
var envelopePattern = regexp.MustCompile(`\{"type"\s*:\s*"[^"]+"\s*,\s*"data"\s*:\s*(?:"[^"]*"|null)\}`)

// Extractor turns data payloads into structured messages.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor returns an Extractor that reports malformed fragments to l
// at debug level. A nil logger discards them.
func NewExtractor(l *slog.Logger) *Extractor {
	return &Extractor{logger: logger.OrNop(l)}
}

// Extract decodes payload with a nil logger. See Extractor.Extract.
func Extract(payload string) iter.Seq[Message] {
	return NewExtractor(nil).Extract(payload)
}

// Extract yields the messages carried by one data payload, in order:
//
//  1. every concatenated envelope object found by envelopePattern;
//     fragments that fail to parse are skipped;
//  2. otherwise the whole payload parsed as one JSON value; a value without
//     a type becomes content holding the raw payload;
//  3. otherwise the raw payload as content.
//
// Nothing is yielded after an error message. An empty payload yields
// nothing.
func (e *Extractor) Extract(payload string) iter.Seq[Message] {
	return func(yield func(Message) bool) {
		if payload == "" {
			return
		}

		if matches := envelopePattern.FindAllString(payload, -1); len(matches) > 0 {
			for _, fragment := range matches {
				if !gjson.Valid(fragment) {
					e.logger.Debug("skipping malformed fragment",
						"fragment", fragment,
					)
					continue
				}

				msg, ok := envelope(gjson.Parse(fragment))
				if !ok {
					continue
				}
				if !yield(msg) || msg.Kind == KindError {
					return
				}
			}
			return
		}

		if gjson.Valid(payload) {
			root := gjson.Parse(payload)
			if truthy(root.Get("type")) {
				if msg, ok := envelope(root); ok {
					yield(msg)
				}
				return
			}

			yield(Content(payload))
			return
		}

		yield(Content(payload))
	}
}

// envelope maps a parsed object to a message by its type field. Unknown
// types report false.
func envelope(obj gjson.Result) (Message, bool) {
	typ := obj.Get("type")
	if typ.Type != gjson.String {
		return Message{}, false
	}

	data := obj.Get("data")

	switch typ.Str {
	case typeContent:
		return Content(text(data)), true
	case typeDone:
		return Done(), true
	case typeError:
		reason := text(data)
		if reason == "" {
			reason = defaultErrorReason
		}
		return Failure(reason), true
	default:
		return Message{}, false
	}
}

// text returns the string form of a data field, or "" when it is absent,
// null or otherwise falsy.
func text(r gjson.Result) string {
	if !truthy(r) {
		return ""
	}
	if r.Type == gjson.String {
		return r.Str
	}
	return r.Raw
}

// truthy follows the backend's loose notion of a present value: missing,
// null, false, zero and "" are all absent.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	case gjson.True, gjson.JSON:
		return true
	default:
		return false
	}
}
