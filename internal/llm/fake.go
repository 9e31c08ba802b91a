package llm

import (
	"context"
	"sync"
)

// FakeProvider is a scripted in-memory provider for tests. Each call
// consumes the next scripted reply; when the script runs out the last
// reply repeats. A reply with a non-nil Err fails the call instead.
type FakeProvider struct {
	mu      sync.Mutex
	name    string
	model   string
	script  []FakeReply
	calls   int
	history [][]Message
}

// FakeReply is one scripted response.
type FakeReply struct {
	Content string
	Err     error
	// Chunks overrides content splitting for ChatStream; when empty the
	// whole Content is emitted as a single chunk.
	Chunks []string
}

// NewFakeProvider creates a fake provider with the given scripted replies.
func NewFakeProvider(replies ...FakeReply) *FakeProvider {
	return &FakeProvider{
		name:   ProviderFake,
		model:  "fake-1",
		script: replies,
	}
}

func (p *FakeProvider) Name() string     { return p.name }
func (p *FakeProvider) Models() []string { return []string{p.model} }

func (p *FakeProvider) Ping(ctx context.Context) error { return nil }

// Calls returns how many Chat/ChatStream calls were made.
func (p *FakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// LastMessages returns the messages of the most recent call.
func (p *FakeProvider) LastMessages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.history) == 0 {
		return nil
	}
	return p.history[len(p.history)-1]
}

func (p *FakeProvider) next(messages []Message) FakeReply {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = append(p.history, messages)
	idx := p.calls
	p.calls++
	if len(p.script) == 0 {
		return FakeReply{}
	}
	if idx >= len(p.script) {
		idx = len(p.script) - 1
	}
	return p.script[idx]
}

func (p *FakeProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reply := p.next(messages)
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &Response{
		Content:      reply.Content,
		FinishReason: FinishStop,
		Provider:     p.name,
		Model:        p.model,
		Usage:        Usage{TotalTokens: len(reply.Content) / 4},
	}, nil
}

func (p *FakeProvider) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reply := p.next(messages)
	if reply.Err != nil {
		return nil, reply.Err
	}

	chunks := reply.Chunks
	if len(chunks) == 0 && reply.Content != "" {
		chunks = []string{reply.Content}
	}

	ch := make(chan StreamChunk, len(chunks)+1)
	go func() {
		defer close(ch)
		for _, c := range chunks {
			select {
			case <-ctx.Done():
				ch <- StreamChunk{Err: ctx.Err()}
				return
			case ch <- StreamChunk{Content: c}:
			}
		}
		ch <- StreamChunk{Done: true, FinishReason: FinishStop}
	}()
	return ch, nil
}
