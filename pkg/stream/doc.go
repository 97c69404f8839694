// Package stream consumes the event streams of the SuperBiz backend.
//
// A stream is read in arbitrary-sized chunks from a ChunkSource, cut into
// lines and classified by pkg/sse, decoded into structured messages by an
// Extractor and folded into one growing answer by an Assembler. The
// Assembler always ends in exactly one Outcome: completed with the answer,
// or failed with a reason and whatever partial answer had arrived.
//
//	┌─────────────┐   ┌────────────────┐   ┌────────────┐   ┌───────────┐
//	│ ChunkSource │──▶│ sse.LineBuffer │──▶│ sse.Parser │──▶│ Extractor │
//	└─────────────┘   └────────────────┘   └────────────┘   └───────────┘
//	                                                              │
//	                                                              ▼
//	                                                        ┌───────────┐
//	                                                        │ Assembler │──▶ Outcome
//	                                                        └───────────┘
//
// Everything after the pull from the source runs synchronously, so
// messages are applied in strict receipt order.
package stream
