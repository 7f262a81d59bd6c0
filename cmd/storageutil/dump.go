package main

import (
	"context"
	"fmt"
	"io"

	"chatrelay-go/internal/conversation"
	store "chatrelay-go/internal/storage"

	"gopkg.in/yaml.v3"
)

type dumpOutput struct {
	ChatID string              `yaml:"chatId"`
	UpTo   int64               `yaml:"upTo"`
	Stats  *dumpStats          `yaml:"stats,omitempty"`
	Turns  []conversation.Turn `yaml:"turns"`
}

type dumpStats struct {
	Input    int `yaml:"input"`
	Output   int `yaml:"output"`
	Stripped int `yaml:"stripped"`
	Tokens   int `yaml:"tokens"`
}

// dump writes the history of chatID up to upTo as yaml. Unless raw is set
// the turns are the ones the chat endpoint would send upstream.
func dump(ctx context.Context, s store.MessageStore, w io.Writer, chatID string, upTo int64, raw bool) error {
	history, err := s.ListHistory(ctx, chatID, upTo)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	if len(history) == 0 {
		return fmt.Errorf("chat %s: %w", chatID, store.ErrNotFound)
	}

	out := dumpOutput{ChatID: chatID, UpTo: history[len(history)-1].Position}
	if raw {
		out.Turns = conversation.Turns(history)
	} else {
		turns, st := conversation.SelectWithStats(history, conversation.HeuristicCounter{})
		out.Turns = turns
		out.Stats = &dumpStats{Input: st.InputTurns, Output: st.OutputTurns, Stripped: st.StrippedTurns, Tokens: st.EstimateTokens}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode dump: %w", err)
	}
	return enc.Close()
}
