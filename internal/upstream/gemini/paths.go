package gemini

import (
	"net/url"
	"strings"
)

const (
	// PathModels prefixes model-scoped actions.
	PathModels = "/v1beta/models/"
	// ActionStreamGenerate is the streaming generation action.
	ActionStreamGenerate = ":streamGenerateContent"
)

// StreamURL builds {base}/v1beta/models/{model}:streamGenerateContent?alt=sse
func StreamURL(base, model string) string {
	return strings.TrimRight(base, "/") + PathModels + url.PathEscape(model) + ActionStreamGenerate + "?alt=sse"
}
