package conversation

import (
	"regexp"
	"strings"
)

const (
	// MaxTurns is the largest history passed through untouched.
	MaxTurns = 10
	// HeadTurns are kept from the start of an oversized history (system prompt + first exchange).
	HeadTurns = 3
	// TailTurns are kept from the end of an oversized history.
	TailTurns = MaxTurns - HeadTurns
	// exemptAssistantTurns is how many of the latest assistant turns keep their code blocks.
	exemptAssistantTurns = 2
)

var fencedBlock = regexp.MustCompile("(?s)```.*?```")

// StripCodeBlocks removes fenced code blocks from every assistant turn except
// the two most recent ones. System and user turns are never modified.
// The input slice is not mutated.
func StripCodeBlocks(turns []Turn) []Turn {
	out, _ := stripCodeBlocks(turns)
	return out
}

func stripCodeBlocks(turns []Turn) ([]Turn, int) {
	out := make([]Turn, len(turns))
	copy(out, turns)

	exempt := 0
	stripped := 0
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Role != RoleAssistant {
			continue
		}
		if exempt < exemptAssistantTurns {
			exempt++
			continue
		}
		out[i].Content = strings.TrimSpace(fencedBlock.ReplaceAllString(out[i].Content, ""))
		stripped++
	}
	return out, stripped
}

// CapLength bounds the history to MaxTurns entries: the first HeadTurns
// followed by the last TailTurns. Histories of MaxTurns or fewer pass through.
func CapLength(turns []Turn) []Turn {
	if len(turns) <= MaxTurns {
		out := make([]Turn, len(turns))
		copy(out, turns)
		return out
	}
	head := turns[:min(HeadTurns, len(turns))]
	tailStart := max(len(turns)-TailTurns, len(head))
	out := make([]Turn, 0, len(head)+len(turns)-tailStart)
	out = append(out, head...)
	return append(out, turns[tailStart:]...)
}

// Select reduces a chat history (ordered by position, ending at the target
// message) to the turns submitted upstream.
func Select(history []Message) []Turn {
	turns, _ := stripCodeBlocks(Turns(history))
	return CapLength(turns)
}

// Stats describes what the selector did to one history.
type Stats struct {
	InputTurns     int
	OutputTurns    int
	StrippedTurns  int
	EstimateTokens int
}

// SelectWithStats is Select plus bookkeeping. counter may be nil.
func SelectWithStats(history []Message, counter TokenCounter) ([]Turn, Stats) {
	turns, stripped := stripCodeBlocks(Turns(history))
	out := CapLength(turns)
	st := Stats{
		InputTurns:    len(history),
		OutputTurns:   len(out),
		StrippedTurns: stripped,
	}
	if counter != nil {
		st.EstimateTokens = CountTurns(counter, out)
	}
	return out, st
}
