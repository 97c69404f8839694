// Package sse provides the line-level half of a minimal, purpose-built SSE
// (Server-Sent Events) consumer: a LineBuffer that turns arbitrarily split
// byte chunks into complete text lines, and a Parser that classifies each
// line as an event name, a data payload or something to ignore.
//
// The grammar is the loose one spoken by the SuperBiz backend: a "plain"
// variant with only "data:" lines and a "named-event" variant that may also
// carry "event:" and "id:" lines. Both are handled by the same Parser.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities, nor does it group lines into events on blank lines: every
// "data:" line is treated as its own payload.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse
