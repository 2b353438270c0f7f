// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
)

// =============================================================================
// STREAM DECODER
// =============================================================================

// DeltaFunc extracts the incremental text from one decoded frame payload.
// It returns "" for frames carrying no text; malformed payloads are
// treated the same way, never as an error.
type DeltaFunc func(data []byte) string

// doneMarker is the terminal frame of an SSE stream.
var doneMarker = []byte("[DONE]")

// DecodeStream incrementally decodes a provider byte stream into growing
// plain text. Two envelope formats are supported behind the one loop:
// "data:"-prefixed SSE frames with a [DONE] terminal marker, and bare
// JSON-lines frames without an event marker.
//
// Frames split across read chunks converge in the buffered reader: a line
// is only handed to the delta func once its newline arrives. After each
// extracted delta, onSnapshot receives the full accumulated text, not
// just the delta. A stream that never yields text returns "" with a nil
// error, so callers can report "empty response" distinctly from a
// transport failure.
func DecodeStream(ctx context.Context, body io.Reader, delta DeltaFunc, onSnapshot SnapshotFunc) (string, error) {
	reader := bufio.NewReader(body)

	var accumulated strings.Builder

	for {
		select {
		case <-ctx.Done():
			return accumulated.String(), ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return accumulated.String(), transportErr("", "stream read failed", err)
		}
		atEOF := err == io.EOF

		payload, ok := framePayload(line)
		if ok {
			if bytes.Equal(payload, doneMarker) {
				return accumulated.String(), nil
			}
			if text := delta(payload); text != "" {
				accumulated.WriteString(text)
				if onSnapshot != nil {
					onSnapshot(accumulated.String())
				}
			}
		}

		if atEOF {
			return accumulated.String(), nil
		}
	}
}

// framePayload strips the envelope from one stream line. It handles the
// "data:" event marker with or without a following space, and passes
// bare JSON lines through unchanged. Blank lines and SSE comment/field
// lines yield no payload.
func framePayload(line []byte) ([]byte, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, false
	}
	if bytes.HasPrefix(trimmed, []byte("data:")) {
		return bytes.TrimSpace(trimmed[5:]), true
	}
	// Other SSE fields (event:, id:, retry:) and comments carry no text.
	if bytes.HasPrefix(trimmed, []byte("event:")) ||
		bytes.HasPrefix(trimmed, []byte("id:")) ||
		bytes.HasPrefix(trimmed, []byte("retry:")) ||
		bytes.HasPrefix(trimmed, []byte(":")) {
		return nil, false
	}
	// Bare JSON-lines frame.
	return trimmed, true
}

// =============================================================================
// CHANNEL-BASED STREAMING
// =============================================================================

// Snapshot is one element of a pull-based stream: the full text so far,
// or a terminal error.
type Snapshot struct {
	Text string
	Err  error
	Done bool
}

// StreamChan runs a streaming send in a goroutine and returns a channel
// of text snapshots. Consumers stop by cancelling the context; the
// channel is closed after the terminal snapshot (Done set, Err carrying
// any failure).
func StreamChan(ctx context.Context, send func(ctx context.Context, onSnapshot SnapshotFunc) (string, error)) <-chan Snapshot {
	ch := make(chan Snapshot, 16)

	go func() {
		defer close(ch)

		final, err := send(ctx, func(textSoFar string) {
			select {
			case ch <- Snapshot{Text: textSoFar}:
			case <-ctx.Done():
			}
		})

		select {
		case ch <- Snapshot{Text: final, Err: err, Done: true}:
		case <-ctx.Done():
		}
	}()

	return ch
}
