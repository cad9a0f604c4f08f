// Package questions holds the categorized question bank, its hot-reloadable
// snapshot store, and the 4-question selection policy.
package questions

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DoctrineID is the reserved id of the mandatory core-doctrine question.
// The question with this id always occupies position 3 of a selection.
const DoctrineID = "E3"

// Built-in fallback texts used when the bank cannot supply a question.
const (
	FallbackDoctrineText   = "What are your views on Srila Prabhupada and ISKCON?"
	FallbackReflectiveText = "What do you hope to find in a spiritual community?"
	FallbackFinalText      = "How would you handle it if your beliefs were questioned?"
)

// Question is one bank entry.
type Question struct {
	ID   string `yaml:"id"`
	Text string `yaml:"question"`
}

// Tiers groups psychological questions by difficulty.
type Tiers struct {
	Trusted []Question `yaml:"trusted"`
	Medium  []Question `yaml:"medium"`
	High    []Question `yaml:"high"`
}

// Bank is the full categorized question bank. A Bank loaded or built once is
// treated as immutable; reloads produce a fresh Bank.
type Bank struct {
	Entry         []Question `yaml:"entry"`
	Reflective    []Question `yaml:"reflective"`
	Psychological Tiers      `yaml:"psychological"`
}

// Doctrine returns the reserved doctrine question, or false if the bank
// does not carry it.
func (b *Bank) Doctrine() (Question, bool) {
	for _, q := range b.Entry {
		if q.ID == DoctrineID {
			return q, true
		}
	}
	return Question{}, false
}

// Size returns the total number of questions across all categories.
func (b *Bank) Size() int {
	return len(b.Entry) + len(b.Reflective) +
		len(b.Psychological.Trusted) + len(b.Psychological.Medium) + len(b.Psychological.High)
}

// Stats summarizes the bank for the question_stats command and status page.
type Stats struct {
	Entry         int  `json:"entry"`
	Reflective    int  `json:"reflective"`
	Trusted       int  `json:"trusted"`
	Medium        int  `json:"medium"`
	High          int  `json:"high"`
	Total         int  `json:"total"`
	DoctrineFound bool `json:"doctrine_found"`
}

// Stats returns category counts and doctrine-question presence.
func (b *Bank) Stats() Stats {
	_, found := b.Doctrine()
	return Stats{
		Entry:         len(b.Entry),
		Reflective:    len(b.Reflective),
		Trusted:       len(b.Psychological.Trusted),
		Medium:        len(b.Psychological.Medium),
		High:          len(b.Psychological.High),
		Total:         b.Size(),
		DoctrineFound: found,
	}
}

// Validate checks for duplicate or empty ids and empty question texts.
func (b *Bank) Validate() error {
	seen := make(map[string]bool)
	check := func(category string, qs []Question) error {
		for _, q := range qs {
			if q.ID == "" {
				return fmt.Errorf("%s: question with empty id", category)
			}
			if q.Text == "" {
				return fmt.Errorf("%s: question %s has empty text", category, q.ID)
			}
			if seen[q.ID] {
				return fmt.Errorf("%s: duplicate question id %s", category, q.ID)
			}
			seen[q.ID] = true
		}
		return nil
	}

	for _, c := range []struct {
		name string
		qs   []Question
	}{
		{"entry", b.Entry},
		{"reflective", b.Reflective},
		{"psychological.trusted", b.Psychological.Trusted},
		{"psychological.medium", b.Psychological.Medium},
		{"psychological.high", b.Psychological.High},
	} {
		if err := check(c.name, c.qs); err != nil {
			return err
		}
	}
	return nil
}

// DefaultBank returns the built-in bank used when no file is configured or
// the configured file is missing.
func DefaultBank() *Bank {
	return &Bank{
		Entry: []Question{
			{ID: "E1", Text: "What brings you to this Krishna-conscious community?"},
			{ID: "E2", Text: "Are you someone who values respectful dialogue?"},
			{ID: "E3", Text: "What are your views on Srila Prabhupada and ISKCON?"},
		},
		Reflective: []Question{
			{ID: "R1", Text: "What do you feel when you see someone living a spiritual life?"},
			{ID: "R2", Text: "What would you ask Krishna if He stood before you?"},
		},
		Psychological: Tiers{
			Trusted: []Question{{ID: "P1", Text: "What does humility mean to you?"}},
			Medium:  []Question{{ID: "P3", Text: "How would you handle it if your beliefs were mocked?"}},
			High:    []Question{{ID: "P5", Text: "What would you do if a devotee corrected you?"}},
		},
	}
}

// Load reads a question bank from a YAML file.
// Empty path or missing file returns the built-in default bank.
// Invalid YAML or a bank that fails validation returns an error.
func Load(path string) (*Bank, error) {
	if path == "" {
		return DefaultBank(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultBank(), nil
		}
		return nil, fmt.Errorf("read question bank: %w", err)
	}

	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if err := bank.Validate(); err != nil {
		return nil, fmt.Errorf("invalid question bank: %w", err)
	}
	return &bank, nil
}
