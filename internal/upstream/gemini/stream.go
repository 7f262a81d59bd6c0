package gemini

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "chatrelay-go/internal/errors"
	"chatrelay-go/internal/streaming"

	"github.com/tidwall/gjson"
)

type stream struct {
	body    io.ReadCloser
	scanner *streaming.SSEScanner
}

func newStream(body io.ReadCloser) *stream {
	return &stream{body: body, scanner: streaming.NewSSEScanner(body)}
}

// Next yields the text of the next chunk. Thought parts are skipped. An
// error object inside the stream ends it abnormally.
func (s *stream) Next() (string, error) {
	ev, done, err := s.scanner.Next()
	if err != nil {
		return "", err
	}
	if done {
		return "", io.EOF
	}
	if e := ev.Get("error"); e.Exists() {
		code := int(e.Get("code").Int())
		if code == 0 {
			code = 502
		}
		return "", fmt.Errorf("gemini stream: %w", apperrors.MapHTTPError(code, ev.Raw))
	}
	if reason := ev.Get("promptFeedback.blockReason").String(); reason != "" {
		return "", fmt.Errorf("gemini stream: %w", blockedError("prompt blocked: "+reason))
	}
	text := chunkText(ev)
	if text == "" {
		if reason := ev.Get("candidates.0.finishReason").String(); blockedFinishReasons[reason] {
			return "", fmt.Errorf("gemini stream: %w", blockedError("response blocked: "+reason))
		}
	}
	return text, nil
}

// finish reasons that end a candidate without usable content
var blockedFinishReasons = map[string]bool{
	"SAFETY":             true,
	"RECITATION":         true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
}

func blockedError(msg string) *apperrors.APIError {
	return apperrors.New(http.StatusBadGateway, "content_blocked", "upstream_error", msg)
}

func chunkText(ev *streaming.Event) string {
	var sb strings.Builder
	ev.Get("candidates.0.content.parts").ForEach(func(_, part gjson.Result) bool {
		if part.Get("thought").Bool() {
			return true
		}
		sb.WriteString(part.Get("text").String())
		return true
	})
	return sb.String()
}

func (s *stream) Relay(w io.Writer, flush func()) (int, error) {
	return streaming.RelayDeltas(w, flush, s)
}

func (s *stream) Close() error { return s.body.Close() }
