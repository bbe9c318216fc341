// Package matcher resolves free text to at most one command.
//
// Strategies run in a fixed order and each returns the first command, in
// listing order, that satisfies it. The default order is exact, substring,
// fuzzy with a similarity threshold of 0.8.
package matcher

import (
	"fmt"
	"strings"

	"voicecmd/model"
	"voicecmd/similarity"
)

// Strategy names one matching pass.
type Strategy string

const (
	Exact     Strategy = "exact"
	Substring Strategy = "substring"
	Fuzzy     Strategy = "fuzzy"
)

const DefaultThreshold = 0.8

// DefaultStrategies is the order used when Options.Strategies is empty.
var DefaultStrategies = []Strategy{Exact, Substring, Fuzzy}

// ParseStrategy converts a configured name into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case Exact, Substring, Fuzzy:
		return st, nil
	}
	return "", fmt.Errorf("unknown match strategy %q", s)
}

// Source supplies a consistent snapshot of commands in listing order.
type Source interface {
	List() []model.Command
}

type Options struct {
	// Threshold is the minimum fuzzy score. Nil means DefaultThreshold.
	Threshold  *float64
	Strategies []Strategy
}

// Result describes a successful match.
type Result struct {
	Command  model.Command
	Strategy Strategy
	Score    float64
}

type Matcher struct {
	source     Source
	threshold  float64
	strategies []Strategy
}

func New(source Source, opts Options) *Matcher {
	m := &Matcher{
		source:     source,
		threshold:  DefaultThreshold,
		strategies: opts.Strategies,
	}
	if opts.Threshold != nil {
		m.threshold = *opts.Threshold
	}
	if len(m.strategies) == 0 {
		m.strategies = DefaultStrategies
	}
	return m
}

// FindMatchingCommand returns the best command for text, if any.
func (m *Matcher) FindMatchingCommand(text string) (model.Command, bool) {
	r, ok := m.Match(text)
	return r.Command, ok
}

// Match runs the configured strategies in order over a single snapshot of
// the source.
func (m *Matcher) Match(text string) (Result, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Result{}, false
	}

	cmds := m.source.List()
	for _, st := range m.strategies {
		if r, ok := m.run(st, normalized, cmds); ok {
			return r, true
		}
	}
	return Result{}, false
}

func (m *Matcher) run(st Strategy, text string, cmds []model.Command) (Result, bool) {
	for _, c := range cmds {
		phrase := strings.ToLower(c.Phrase)
		switch st {
		case Exact:
			if phrase == text {
				return Result{Command: c, Strategy: st, Score: 1}, true
			}
		case Substring:
			if phrase != "" && strings.Contains(text, phrase) {
				return Result{Command: c, Strategy: st, Score: similarity.Score(phrase, text)}, true
			}
		case Fuzzy:
			if score := similarity.Score(phrase, text); score >= m.threshold {
				return Result{Command: c, Strategy: st, Score: score}, true
			}
		}
	}
	return Result{}, false
}
