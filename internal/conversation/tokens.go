package conversation

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkoukk/tiktoken-go"
	log "github.com/sirupsen/logrus"
)

const (
	encodingCL100kBase = "cl100k_base"
	// per-turn framing overhead (<|start|>role<|end|>) and reply priming, as counted for chat models
	turnOverheadTokens   = 3
	replyPrimingTokens   = 3
	heuristicCharsPerTok = 4
)

// TokenCounter estimates the token length of a text.
type TokenCounter interface {
	Count(text string) int
}

// CountTurns estimates the prompt size of a selected history.
func CountTurns(counter TokenCounter, turns []Turn) int {
	if counter == nil || len(turns) == 0 {
		return 0
	}
	total := replyPrimingTokens
	for _, t := range turns {
		total += counter.Count(string(t.Role)) + counter.Count(t.Content) + turnOverheadTokens
	}
	return total
}

// HeuristicCounter approximates tokens as one per four bytes.
type HeuristicCounter struct{}

func (HeuristicCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + heuristicCharsPerTok - 1) / heuristicCharsPerTok
}

// TiktokenCounter counts with the cl100k_base encoding. The encoding is loaded
// in the background on first use; until it is ready, or if it never loads,
// Count falls back to the heuristic. Count never waits on the load.
type TiktokenCounter struct {
	once sync.Once
	load func() (*tiktoken.Tiktoken, error)
	enc  atomic.Pointer[tiktoken.Tiktoken]
	done chan struct{}
}

// NewTiktokenCounter returns a tiktoken-backed counter. The encoding file may
// be fetched over the network; call Warm at startup to give it a bounded head
// start.
func NewTiktokenCounter() *TiktokenCounter {
	return newTiktokenCounter(func() (*tiktoken.Tiktoken, error) {
		return tiktoken.GetEncoding(encodingCL100kBase)
	})
}

func newTiktokenCounter(load func() (*tiktoken.Tiktoken, error)) *TiktokenCounter {
	return &TiktokenCounter{load: load, done: make(chan struct{})}
}

func (t *TiktokenCounter) start() {
	t.once.Do(func() {
		// the download has no timeout; keep it off request goroutines
		go func() {
			defer close(t.done)
			enc, err := t.load()
			if err != nil {
				log.WithError(err).Warn("tiktoken encoding unavailable; falling back to heuristic token estimate")
				return
			}
			t.enc.Store(enc)
		}()
	})
}

// Warm starts loading the encoding and waits until it is ready or ctx ends.
// It reports whether the encoding is in use.
func (t *TiktokenCounter) Warm(ctx context.Context) bool {
	t.start()
	select {
	case <-t.done:
	case <-ctx.Done():
	}
	return t.enc.Load() != nil
}

func (t *TiktokenCounter) Count(text string) int {
	t.start()
	enc := t.enc.Load()
	if enc == nil {
		return HeuristicCounter{}.Count(text)
	}
	return len(enc.Encode(text, nil, nil))
}
