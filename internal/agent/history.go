package agent

import (
	"fmt"
	"strings"
	"time"
)

// ConversationTurn is one question/answer exchange. The answer is
// stored as an excerpt to keep history summaries bounded.
type ConversationTurn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// answerExcerptLength bounds the stored answer text per turn.
const answerExcerptLength = 300

// History is a fixed-capacity ring buffer of conversation turns. Push
// evicts the oldest turn on overflow. Not safe for concurrent use;
// the owning session serializes access.
type History struct {
	turns []ConversationTurn
	head  int
	size  int
}

// NewHistory creates a history holding at most maxTurns turns.
// Capacities below 1 are coerced to 1.
func NewHistory(maxTurns int) *History {
	if maxTurns < 1 {
		maxTurns = 1
	}
	return &History{turns: make([]ConversationTurn, maxTurns)}
}

// Push records a turn, evicting the oldest when full.
func (h *History) Push(question, answer string) {
	if len(answer) > answerExcerptLength {
		answer = answer[:answerExcerptLength]
	}

	turn := ConversationTurn{Question: question, Answer: answer, Timestamp: time.Now()}

	if h.size < len(h.turns) {
		h.turns[(h.head+h.size)%len(h.turns)] = turn
		h.size++
		return
	}
	h.turns[h.head] = turn
	h.head = (h.head + 1) % len(h.turns)
}

// Len returns the number of stored turns.
func (h *History) Len() int {
	return h.size
}

// Turns returns the stored turns oldest first.
func (h *History) Turns() []ConversationTurn {
	out := make([]ConversationTurn, 0, h.size)
	for i := 0; i < h.size; i++ {
		out = append(out, h.turns[(h.head+i)%len(h.turns)])
	}
	return out
}

// Summary renders the history as numbered Q/A lines for use in rewrite
// prompts. Empty history yields an empty string.
func (h *History) Summary() string {
	if h.size == 0 {
		return ""
	}

	var b strings.Builder
	for i, turn := range h.Turns() {
		fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, turn.Question, turn.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Clear discards all turns.
func (h *History) Clear() {
	h.head = 0
	h.size = 0
}
