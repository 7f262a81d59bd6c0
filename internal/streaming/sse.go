// Package streaming frames upstream output as OpenAI-style server-sent events.
package streaming

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"chatrelay-go/internal/constants"
)

var (
	dataPrefix = []byte("data: ")
	eventEnd   = []byte("\n\n")
	doneFrame  = []byte("data: [DONE]\n\n")
)

// DeltaSource yields text deltas in order and returns io.EOF once the
// upstream finished normally.
type DeltaSource interface {
	Next() (string, error)
}

type deltaChunk struct {
	Choices [1]deltaChoice `json:"choices"`
}

type deltaChoice struct {
	Delta deltaContent `json:"delta"`
}

type deltaContent struct {
	Content string `json:"content"`
}

// EncodeDelta frames one text delta as a complete SSE event:
//
//	data: {"choices":[{"delta":{"content":"..."}}]}\n\n
func EncodeDelta(text string) []byte {
	var buf bytes.Buffer
	buf.Grow(len(text) + 56)
	buf.Write(dataPrefix)
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// encoding a fixed struct of strings cannot fail
	_ = enc.Encode(deltaChunk{Choices: [1]deltaChoice{{Delta: deltaContent{Content: text}}}})
	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return append(out, eventEnd...)
}

// WriteDone writes the terminal sentinel.
func WriteDone(w io.Writer, flush func()) error {
	if _, err := w.Write(doneFrame); err != nil {
		return err
	}
	if flush != nil {
		flush()
	}
	return nil
}

// RelayDeltas writes one event per non-empty delta, flushing after each. On
// io.EOF it writes the [DONE] sentinel and returns nil. Any other error is
// returned as-is and the sentinel is withheld, so the client can tell a
// broken stream from a finished one.
func RelayDeltas(w io.Writer, flush func(), src DeltaSource) (int, error) {
	events := 0
	for {
		text, err := src.Next()
		if errors.Is(err, io.EOF) {
			if werr := WriteDone(w, flush); werr != nil {
				return events, werr
			}
			return events, nil
		}
		if err != nil {
			return events, err
		}
		if text == "" {
			continue
		}
		if _, werr := w.Write(EncodeDelta(text)); werr != nil {
			return events, werr
		}
		if flush != nil {
			flush()
		}
		events++
	}
}

// Copy forwards r to w unchanged, flushing after every read. It returns the
// number of bytes written. io.EOF from r is a normal end and is not returned.
func Copy(w io.Writer, flush func(), r io.Reader) (int64, error) {
	buf := make([]byte, constants.PassthroughBufferSize)
	var total int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			written, werr := w.Write(buf[:n])
			total += int64(written)
			if werr != nil {
				return total, werr
			}
			if flush != nil {
				flush()
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}

// PrepareHeaders sets the event-stream response headers and the 200 status.
func PrepareHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
}

// FlusherFunc adapts w to the flush callback shape, or nil when w cannot flush.
func FlusherFunc(w io.Writer) func() {
	if f, ok := w.(http.Flusher); ok {
		return f.Flush
	}
	return nil
}
