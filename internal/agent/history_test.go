package agent

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_PushAndOrder(t *testing.T) {
	h := NewHistory(3)
	h.Push("q1", "a1")
	h.Push("q2", "a2")

	turns := h.Turns()
	assert.Len(t, turns, 2)
	assert.Equal(t, "q1", turns[0].Question)
	assert.Equal(t, "q2", turns[1].Question)
}

func TestHistory_EvictsOldestOnOverflow(t *testing.T) {
	h := NewHistory(2)
	h.Push("q1", "a1")
	h.Push("q2", "a2")
	h.Push("q3", "a3")

	turns := h.Turns()
	assert.Len(t, turns, 2)
	assert.Equal(t, "q2", turns[0].Question)
	assert.Equal(t, "q3", turns[1].Question)
	assert.Equal(t, 2, h.Len())
}

func TestHistory_TruncatesAnswerExcerpt(t *testing.T) {
	h := NewHistory(1)
	h.Push("q", strings.Repeat("x", 1000))

	assert.Len(t, h.Turns()[0].Answer, answerExcerptLength)
}

func TestHistory_Summary(t *testing.T) {
	h := NewHistory(5)
	assert.Empty(t, h.Summary())

	h.Push("What is Paris?", "The capital of France.")
	h.Push("How big is it?", "About 2 million people.")

	s := h.Summary()
	assert.Contains(t, s, "1. Q: What is Paris?")
	assert.Contains(t, s, "2. Q: How big is it?")
	assert.Contains(t, s, "A: The capital of France.")
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory(3)
	h.Push("q", "a")
	h.Clear()

	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Turns())
}

func TestHistory_MinimumCapacity(t *testing.T) {
	h := NewHistory(0)
	h.Push("q1", "a1")
	h.Push("q2", "a2")

	assert.Equal(t, 1, h.Len())
	assert.Equal(t, "q2", h.Turns()[0].Question)
}

func TestSessionManager(t *testing.T) {
	m := NewSessionManager(5)

	s := m.Create()
	assert.NotEmpty(t, s.ID)
	assert.Same(t, s, m.Get(s.ID))
	assert.Same(t, s, m.GetOrCreate(s.ID))
	assert.Equal(t, 1, m.Count())

	other := m.GetOrCreate("")
	assert.NotEqual(t, s.ID, other.ID)
	assert.Equal(t, 2, m.Count())

	m.Delete(s.ID)
	assert.Nil(t, m.Get(s.ID))
	assert.Equal(t, 1, m.Count())
}

func TestSession_WithLockSerializes(t *testing.T) {
	m := NewSessionManager(10)
	s := m.Create()

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func(n int) {
			for j := 0; j < 25; j++ {
				s.WithLock(func(h *History) {
					h.Push(fmt.Sprintf("q-%d-%d", n, j), "a")
				})
			}
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	s.WithLock(func(h *History) {
		assert.Equal(t, 10, h.Len())
	})
}
