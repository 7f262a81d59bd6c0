package constants

const (
	// DefaultMaxTokens bounds the completion length sent to the OpenAI-compatible upstream.
	DefaultMaxTokens = 1000
	// DefaultTemperature is the fixed sampling temperature for the OpenAI-compatible upstream.
	DefaultTemperature = 0.7
	// DefaultGeminiMarker selects the Gemini provider when contained in the requested model name.
	DefaultGeminiMarker = "gemini"
)
