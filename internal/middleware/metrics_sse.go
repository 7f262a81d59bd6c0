package middleware

import (
	"chatrelay-go/internal/conversation"
	"chatrelay-go/internal/monitoring"
)

// RecordSSEEvents adds to the SSE events counter for a provider.
func RecordSSEEvents(provider string, n int) {
	if n <= 0 {
		return
	}
	monitoring.SSEEventsTotal.WithLabelValues(provider).Add(float64(n))
}

// RecordSSEBytes adds to the relayed bytes counter for a provider.
func RecordSSEBytes(provider string, n int64) {
	if n <= 0 {
		return
	}
	monitoring.SSEBytesTotal.WithLabelValues(provider).Add(float64(n))
}

// RecordSSEClose counts a finished stream by close reason for a provider.
func RecordSSEClose(provider, reason string) {
	if reason == "" {
		reason = "other"
	}
	monitoring.SSEClosedTotal.WithLabelValues(provider, reason).Inc()
}

// RecordChatOutcome counts a finished chat request.
func RecordChatOutcome(provider, outcome string) {
	if provider == "" {
		provider = "none"
	}
	monitoring.ChatRequestsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordHistorySelection exports selector statistics.
func RecordHistorySelection(stats conversation.Stats) {
	monitoring.HistoryTurnsIn.Observe(float64(stats.InputTurns))
	monitoring.HistoryTurnsOut.Observe(float64(stats.OutputTurns))
	if stats.StrippedTurns > 0 {
		monitoring.HistoryCodeBlocksStripped.Add(float64(stats.StrippedTurns))
	}
	if stats.EstimateTokens > 0 {
		monitoring.HistoryPromptTokens.Observe(float64(stats.EstimateTokens))
	}
}
