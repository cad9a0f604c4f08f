package questions

import (
	"math/rand"
	"sync"
	"time"
)

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// Select builds the ordered 4-question set for a verification session.
// The suspicion score does not currently alter which tiers are drawn; the
// pool construction and the fixed doctrine slot are the load-bearing parts.
func Select(bank *Bank, suspicionScore int) []string {
	rngMu.Lock()
	defer rngMu.Unlock()
	return SelectWith(rng, bank, suspicionScore)
}

// SelectWith is Select with an injectable random source.
//
// Position 1: random entry question, excluding the doctrine question when
// possible. Position 2 and 4: random draws without replacement from the
// combined remaining pool. Position 3: always the doctrine question.
func SelectWith(r *rand.Rand, bank *Bank, suspicionScore int) []string {
	_ = suspicionScore

	selected := make([]string, 0, 4)

	// Position 1.
	entryPool := withoutID(bank.Entry, DoctrineID)
	if len(entryPool) == 0 {
		// Last resort: may coincide with the doctrine question.
		entryPool = bank.Entry
	}
	var first string
	if len(entryPool) > 0 {
		first = entryPool[r.Intn(len(entryPool))].Text
	} else {
		first = FallbackFinalText
	}
	selected = append(selected, first)

	// Remaining pool: entry minus doctrine minus position 1, plus all
	// reflective and all psychological tiers.
	var pool []Question
	for _, q := range withoutID(bank.Entry, DoctrineID) {
		if q.Text != first {
			pool = append(pool, q)
		}
	}
	pool = append(pool, bank.Reflective...)
	pool = append(pool, bank.Psychological.Trusted...)
	pool = append(pool, bank.Psychological.Medium...)
	pool = append(pool, bank.Psychological.High...)

	// Position 2. A distinct fallback keeps positions 2 and 4 from
	// duplicating when the pool runs dry.
	if len(pool) > 0 {
		i := r.Intn(len(pool))
		selected = append(selected, pool[i].Text)
		pool = append(pool[:i], pool[i+1:]...)
	} else {
		selected = append(selected, FallbackReflectiveText)
	}

	// Position 3: mandatory doctrine question.
	if doctrine, ok := bank.Doctrine(); ok {
		selected = append(selected, doctrine.Text)
	} else {
		selected = append(selected, FallbackDoctrineText)
	}

	// Position 4.
	if len(pool) > 0 {
		selected = append(selected, pool[r.Intn(len(pool))].Text)
	} else {
		selected = append(selected, FallbackFinalText)
	}

	return selected
}

func withoutID(qs []Question, id string) []Question {
	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		if q.ID != id {
			out = append(out, q)
		}
	}
	return out
}
