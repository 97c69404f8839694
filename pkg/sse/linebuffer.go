package sse

import (
	"errors"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LineBuffer reassembles complete lines from a sequence of byte chunks.
//
// Chunks are decoded as UTF-8 with a streaming decoder, so a code point split
// across two chunks comes out whole once its last byte arrives. Decoded text
// is appended to the carry (the unterminated tail of the previous chunk) and
// split on "\n"; every segment but the last is a complete line.
//
// A LineBuffer is not safe for concurrent use. It belongs to one stream.
type LineBuffer struct {
	decoder transform.Transformer

	// pending holds the bytes of an incomplete UTF-8 sequence at the end
	// of the last chunk.
	pending []byte

	// carry never contains "\n".
	carry string
}

// NewLineBuffer returns an empty LineBuffer.
func NewLineBuffer() *LineBuffer {
	return &LineBuffer{
		decoder: unicode.UTF8.NewDecoder(),
	}
}

// Push decodes chunk and returns every line it completes, without the
// trailing "\n" or "\r\n". An empty chunk yields no lines and leaves the
// carry untouched.
func (b *LineBuffer) Push(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}

	text := b.carry + b.decode(chunk, false)

	parts := strings.Split(text, "\n")
	b.carry = parts[len(parts)-1]

	lines := parts[:len(parts)-1]
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}

// Flush is called once the source is exhausted. It returns the carry as a
// final line when the stream ended without a trailing newline, and false
// otherwise. Bytes of a truncated UTF-8 sequence are decoded as U+FFFD.
func (b *LineBuffer) Flush() (string, bool) {
	tail := b.carry + b.decode(nil, true)
	b.carry = ""

	if tail == "" {
		return "", false
	}

	return strings.TrimSuffix(tail, "\r"), true
}

// Discard drops the carry and any pending bytes without returning them.
func (b *LineBuffer) Discard() {
	b.carry = ""
	b.pending = nil
	b.decoder.Reset()
}

// Carry returns the buffered, not yet newline-terminated text.
func (b *LineBuffer) Carry() string {
	return b.carry
}

// decode runs chunk (prefixed by pending bytes) through the streaming
// decoder. With atEOF false, an incomplete trailing sequence is kept in
// pending for the next call.
func (b *LineBuffer) decode(chunk []byte, atEOF bool) string {
	src := chunk
	if len(b.pending) > 0 {
		src = append(b.pending, chunk...)
		b.pending = nil
	}
	if len(src) == 0 && !atEOF {
		return ""
	}

	var out strings.Builder

	// Invalid bytes expand to a 3-byte replacement character.
	dst := make([]byte, 3*len(src)+4)
	for {
		nDst, nSrc, err := b.decoder.Transform(dst, src, atEOF)
		out.Write(dst[:nDst])
		src = src[nSrc:]

		switch {
		case errors.Is(err, transform.ErrShortDst):
			continue
		case errors.Is(err, transform.ErrShortSrc):
			b.pending = append([]byte(nil), src...)
		}

		return out.String()
	}
}
