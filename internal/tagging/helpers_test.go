package tagging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
	"github.com/lueurxax/portfolio-tagger/internal/core/llm"
	"github.com/lueurxax/portfolio-tagger/internal/core/ports/mocks"
)

const cachingPayload = `{"tags":[{"name":"caching","description":"...","category":"technical","metadata":{"source":"claude","createdAt":1000}}],"associations":[{"tagName":"caching","confidence":0.95,"metadata":{"source":"claude","createdAt":1000,"context":"main topic"}}]}`

type scriptedReply struct {
	text       string
	structured bool
	err        error
}

// scriptedProvider replays replies in order and repeats the last one.
type scriptedProvider struct {
	mu      sync.Mutex
	replies []scriptedReply
	calls   int
	prompts []string
}

func newScriptedProvider(replies ...scriptedReply) *scriptedProvider {
	return &scriptedProvider{replies: replies}
}

func alwaysText(text string) *scriptedProvider {
	return newScriptedProvider(scriptedReply{text: text})
}

func (p *scriptedProvider) Name() llm.ProviderName {
	return "scripted"
}

func (p *scriptedProvider) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.calls
	if idx >= len(p.replies) {
		idx = len(p.replies) - 1
	}

	p.calls++
	p.prompts = append(p.prompts, req.Prompt)

	reply := p.replies[idx]
	if reply.err != nil {
		return nil, fmt.Errorf("scripted: %w: %w", apperrors.ErrModelCall, reply.err)
	}

	return &llm.Response{Text: reply.text, Structured: reply.structured}, nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.calls
}

// recordingSleep captures backoff delays without waiting.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()

	return ctx.Err()
}

func newTestGenerator(provider llm.Provider, store *mocks.TagStore) (*Generator, *recordingSleep) {
	logger := zerolog.Nop()
	gen := NewGenerator(provider, store, GeneratorConfig{}, &logger)

	sleeper := &recordingSleep{}
	gen.sleep = sleeper.sleep

	return gen, sleeper
}

func newTestPipeline(provider llm.Provider, store *mocks.TagStore) (*Pipeline, *recordingSleep) {
	logger := zerolog.Nop()
	gen, sleeper := newTestGenerator(provider, store)

	return NewPipeline(gen, NewPersister(store, &logger), &logger), sleeper
}
