// Package responder picks a canned support reply for free text when no
// hosted language model is available.
package responder

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// Response is a selected reply and the category that produced it.
type Response struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
}

// Classify returns the first category whose keywords occur in input.
func Classify(input string) Category {
	return match(input).category
}

// Select answers input, using pick to choose among the category's replies.
// pick receives the number of candidates and must return an index in
// [0, n); out-of-range values are clamped.
func Select(input string, pick func(n int) int) Response {
	r := match(input)
	idx := 0
	if len(r.replies) > 1 && pick != nil {
		idx = pick(len(r.replies))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(r.replies) {
			idx = len(r.replies) - 1
		}
	}
	return Response{Category: r.category, Text: r.replies[idx]}
}

func match(input string) rule {
	normalized := strings.ToLower(input)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(normalized, kw) {
				return r
			}
		}
	}
	return rule{category: Default, replies: defaultReplies}
}

// Selector draws replies from its own random source and is safe for
// concurrent use.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector builds a Selector. A nil source gives an unseeded generator.
func NewSelector(src rand.Source) *Selector {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Selector{rng: rand.New(src)}
}

// Respond answers input with a uniformly random reply from its category.
func (s *Selector) Respond(input string) Response {
	return Select(input, func(n int) int {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.rng.IntN(n)
	})
}
