package questions

import (
	"math/rand"
	"testing"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestSelectReturnsFourNonEmpty(t *testing.T) {
	bank := DefaultBank()
	for seed := int64(0); seed < 20; seed++ {
		r := rand.New(rand.NewSource(seed))
		qs := SelectWith(r, bank, 2)
		if len(qs) != 4 {
			t.Fatalf("seed %d: expected 4 questions, got %d", seed, len(qs))
		}
		for i, q := range qs {
			if q == "" {
				t.Errorf("seed %d: empty question at position %d", seed, i+1)
			}
		}
	}
}

func TestSelectDoctrineAlwaysThird(t *testing.T) {
	bank := DefaultBank()
	doctrine, ok := bank.Doctrine()
	if !ok {
		t.Fatal("default bank must carry the doctrine question")
	}

	for _, score := range []int{0, 1, 2, 3, 4} {
		for seed := int64(0); seed < 10; seed++ {
			r := rand.New(rand.NewSource(seed))
			qs := SelectWith(r, bank, score)
			if qs[2] != doctrine.Text {
				t.Errorf("score %d seed %d: position 3 = %q, want doctrine", score, seed, qs[2])
			}
			if qs[0] == doctrine.Text || qs[1] == doctrine.Text || qs[3] == doctrine.Text {
				t.Errorf("score %d seed %d: doctrine leaked outside position 3: %v", score, seed, qs)
			}
		}
	}
}

func TestSelectNoDuplicates(t *testing.T) {
	bank := DefaultBank()
	for seed := int64(0); seed < 50; seed++ {
		r := rand.New(rand.NewSource(seed))
		qs := SelectWith(r, bank, 3)
		seen := make(map[string]bool)
		for _, q := range qs {
			if seen[q] {
				t.Fatalf("seed %d: duplicate question %q in %v", seed, q, qs)
			}
			seen[q] = true
		}
	}
}

func TestSelectDoctrineFallbackWhenAbsent(t *testing.T) {
	bank := &Bank{
		Entry: []Question{
			{ID: "E1", Text: "Why are you here?"},
			{ID: "E2", Text: "What do you value?"},
		},
		Reflective: []Question{{ID: "R1", Text: "What inspires you?"}},
	}
	qs := SelectWith(testRand(), bank, 1)
	if qs[2] != FallbackDoctrineText {
		t.Errorf("position 3 = %q, want built-in doctrine fallback", qs[2])
	}
}

func TestSelectEntryOnlyDoctrineLastResort(t *testing.T) {
	// Only the doctrine question exists in entry: position 1 falls back to
	// the full entry set and may coincide with it.
	bank := &Bank{
		Entry: []Question{{ID: DoctrineID, Text: "Doctrine?"}},
	}
	qs := SelectWith(testRand(), bank, 0)
	if len(qs) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(qs))
	}
	if qs[0] != "Doctrine?" {
		t.Errorf("position 1 = %q, want last-resort doctrine", qs[0])
	}
	if qs[2] != "Doctrine?" {
		t.Errorf("position 3 = %q, want doctrine", qs[2])
	}
	if qs[1] == qs[3] {
		t.Errorf("positions 2 and 4 duplicate: %v", qs)
	}
}

func TestSelectExhaustedPoolUsesFallbacks(t *testing.T) {
	bank := &Bank{
		Entry: []Question{
			{ID: "E1", Text: "Why here?"},
			{ID: DoctrineID, Text: "Doctrine?"},
		},
	}
	qs := SelectWith(testRand(), bank, 4)
	if qs[0] != "Why here?" {
		t.Errorf("position 1 = %q", qs[0])
	}
	if qs[1] != FallbackReflectiveText {
		t.Errorf("position 2 = %q, want reflective fallback", qs[1])
	}
	if qs[3] != FallbackFinalText {
		t.Errorf("position 4 = %q, want final fallback", qs[3])
	}
}
