package streaming

import (
	"bufio"
	"bytes"
	"io"

	"chatrelay-go/internal/constants"

	"github.com/tidwall/gjson"
)

// Event is one upstream SSE data payload.
type Event struct {
	Raw []byte
}

// Get reads a gjson path from the payload.
func (e *Event) Get(path string) gjson.Result {
	return gjson.GetBytes(e.Raw, path)
}

// SSEScanner iterates over data events of an upstream SSE stream. Comment,
// event-name and blank lines are skipped, as are payloads that are not JSON.
type SSEScanner struct {
	scanner *bufio.Scanner
}

// NewSSEScanner creates a scanner with standard buffer settings.
func NewSSEScanner(r io.Reader) *SSEScanner {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, constants.SSEScannerInitialBufferSize)
	scanner.Buffer(buf, constants.SSEScannerMaxBufferSize)
	return &SSEScanner{scanner: scanner}
}

// Next returns the next event. done is true when the stream ended, either
// at EOF or at a [DONE] sentinel.
func (s *SSEScanner) Next() (*Event, bool, error) {
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		data := bytes.TrimSpace(line[len("data:"):])
		if len(data) == 0 {
			continue
		}
		if bytes.EqualFold(data, []byte("[DONE]")) {
			return nil, true, nil
		}
		if !gjson.ValidBytes(data) {
			continue
		}
		return &Event{Raw: append([]byte(nil), data...)}, false, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, false, err
	}
	return nil, true, nil
}
