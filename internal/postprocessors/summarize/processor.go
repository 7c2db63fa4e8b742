// Package summarize provides the LLM summary processor. Summaries are
// appended as derived passages so that retrieval can match at a coarser
// granularity.
package summarize

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Name is the registry name of the processor.
const Name = "summarize"

// Ensure Processor implements the interface.
var _ driven.PassageProcessor = (*Processor)(nil)

// Processor asks an LLM for a short summary of every long enough passage.
type Processor struct {
	llm      driven.LLMService
	prompts  driven.PromptStore
	minChars int
	opts     driven.ChatOptions
}

// Option configures the processor.
type Option func(*Processor)

// WithMinChars sets the minimum passage length, in runes, to summarise.
func WithMinChars(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minChars = n
		}
	}
}

// WithChatOptions sets generation options for summary calls.
func WithChatOptions(opts driven.ChatOptions) Option {
	return func(p *Processor) {
		p.opts = opts
	}
}

// New creates a summary processor. The prompt store may be nil, in which
// case the built-in prompts are used.
func New(llm driven.LLMService, prompts driven.PromptStore, opts ...Option) (*Processor, error) {
	if llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	p := &Processor{
		llm:      llm,
		prompts:  prompts,
		minChars: domain.SummaryMinChars,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process summarises set.Passages and appends the summaries to set.Derived.
// A failed call is recorded as a summary_item warning and skipped.
func (p *Processor) Process(ctx context.Context, set *driven.PassageSet) error {
	system := p.prompt(driven.PromptSummariseSystem)
	template := p.prompt(driven.PromptSummarise)

	eligible := 0
	for _, passage := range set.Passages {
		if utf8.RuneCountInString(passage.Content) >= p.minChars {
			eligible++
		}
	}
	logger.Info("Generating summaries for %d of %d passages", eligible, len(set.Passages))

	for i, passage := range set.Passages {
		if utf8.RuneCountInString(passage.Content) < p.minChars {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		summary, err := p.llm.Chat(ctx, []driven.ChatMessage{
			{Role: driven.RoleSystem, Content: system},
			{Role: driven.RoleUser, Content: render(template, passage.Content)},
		}, p.opts)
		if err == nil && strings.TrimSpace(summary) == "" {
			err = errors.New("empty summary")
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w := domain.NewWarning(domain.WarningSummaryItem, set.Source, p.llm.ModelName(), err)
			if idx, ok := passage.ChunkIndex(); ok {
				w.ChunkIndex = idx
			} else {
				w.ChunkIndex = i
			}
			set.Warn(w)
			continue
		}

		derived := passage.Clone()
		derived.Content = strings.TrimSpace(summary)
		derived.Metadata[domain.MetaIsSummary] = true
		set.Derived = append(set.Derived, derived)
	}
	return nil
}

// prompt loads a prompt from the store, falling back to the built-in text.
func (p *Processor) prompt(name string) string {
	if p.prompts != nil {
		if text, err := p.prompts.Load(name); err == nil && strings.TrimSpace(text) != "" {
			return text
		}
	}
	return driven.DefaultPrompts()[name]
}

// render fills the first %s placeholder with content. Templates without
// one get the content appended after a blank line.
func render(template, content string) string {
	if strings.Contains(template, "%s") {
		return strings.Replace(template, "%s", content, 1)
	}
	return template + "\n\n" + content
}
