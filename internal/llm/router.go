package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/saptarishi/jyotishai/internal/config"
)

// Router routes LLM requests to the appropriate provider, applies a
// shared rate limit, retries timed-out requests with exponential
// backoff, and falls back through the provider chain.
//
// Retry policy: only timeout/deadline errors are retried, up to
// maxRetries attempts with backoff base, 2×base, 4×base. Everything
// else fails over to the next provider immediately (or returns, for
// non-retryable errors like a bad API key).
type Router struct {
	mu         sync.RWMutex
	providers  map[string]Provider
	primary    string
	fallbacks  []string
	models     []string // preference order, first entry a provider serves wins
	maxRetries int
	retryBase  time.Duration
	limiter    *rate.Limiter
	log        *logrus.Entry
}

// RouterOption configures the router.
type RouterOption func(*Router)

// WithFallbacks sets the fallback provider chain.
func WithFallbacks(providers ...string) RouterOption {
	return func(r *Router) { r.fallbacks = providers }
}

// WithModelPreference sets the model preference list. For each provider
// the first preferred model it actually serves is used when the caller
// does not pin one.
func WithModelPreference(models ...string) RouterOption {
	return func(r *Router) { r.models = models }
}

// WithMaxRetries sets the maximum number of retry attempts per provider.
func WithMaxRetries(n int) RouterOption {
	return func(r *Router) { r.maxRetries = n }
}

// WithRetryBase sets the base backoff delay. Production default is 10s
// (then 20s, 40s); tests shrink it.
func WithRetryBase(d time.Duration) RouterOption {
	return func(r *Router) { r.retryBase = d }
}

// WithRateLimit sets the shared requests-per-minute budget across all
// providers. Zero or negative disables limiting.
func WithRateLimit(perMinute float64) RouterOption {
	return func(r *Router) {
		if perMinute > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(perMinute/60.0), 1)
		}
	}
}

// WithLogger attaches a logrus entry for routing decisions.
func WithLogger(log *logrus.Entry) RouterOption {
	return func(r *Router) { r.log = log }
}

// NewRouter creates a new LLM router with the given primary provider.
func NewRouter(primary string, opts ...RouterOption) *Router {
	r := &Router{
		providers:  make(map[string]Provider),
		primary:    primary,
		maxRetries: 3,
		retryBase:  10 * time.Second,
		log:        logrus.WithField("component", "llm.router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterProvider adds a provider to the router.
func (r *Router) RegisterProvider(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// GetProvider returns a registered provider by name.
func (r *Router) GetProvider(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Primary returns the primary provider.
func (r *Router) Primary() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[r.primary]
	if !ok {
		return nil, fmt.Errorf("%w: primary provider %q not registered", ErrNoProviders, r.primary)
	}
	return p, nil
}

// Chat routes a chat request through the provider chain with fallback.
// It tries the primary provider first, then falls back in order.
func (r *Router) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	chain := r.providerChain()
	if len(chain) == 0 {
		return nil, ErrNoProviders
	}

	var lastErr error
	for _, providerName := range chain {
		provider, ok := r.GetProvider(providerName)
		if !ok {
			continue
		}

		resp, err := r.chatWithRetry(ctx, provider, messages, r.withPreferredModel(provider, opts))
		if err == nil {
			return resp, nil
		}

		lastErr = err
		r.log.WithError(err).WithField("provider", providerName).Warn("provider failed, trying next")

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isNonRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("llm/router: all providers failed, last error: %w", lastErr)
}

// ChatStream routes a streaming request using the same fallback chain.
// Stream setup failures fall over; mid-stream errors surface on the
// channel untouched (the caller owns the in-flight stream).
func (r *Router) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamChunk, error) {
	chain := r.providerChain()
	if len(chain) == 0 {
		return nil, ErrNoProviders
	}

	var lastErr error
	for _, providerName := range chain {
		provider, ok := r.GetProvider(providerName)
		if !ok {
			continue
		}

		if err := r.wait(ctx); err != nil {
			return nil, err
		}

		ch, err := provider.ChatStream(ctx, messages, r.withPreferredModel(provider, opts))
		if err == nil {
			return ch, nil
		}

		lastErr = err
		r.log.WithError(err).WithField("provider", providerName).Warn("stream provider failed, trying next")

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isNonRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("llm/router: all stream providers failed, last error: %w", lastErr)
}

// HealthCheck pings all registered providers and returns their status.
func (r *Router) HealthCheck(ctx context.Context) map[string]error {
	r.mu.RLock()
	providers := make(map[string]Provider, len(r.providers))
	for k, v := range r.providers {
		providers[k] = v
	}
	r.mu.RUnlock()

	results := make(map[string]error, len(providers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, provider := range providers {
		wg.Add(1)
		go func(n string, p Provider) {
			defer wg.Done()
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			err := p.Ping(pingCtx)
			mu.Lock()
			results[n] = err
			mu.Unlock()
		}(name, provider)
	}

	wg.Wait()
	return results
}

// Name returns the name of the primary provider (satisfies Provider).
func (r *Router) Name() string {
	return "router/" + r.primary
}

// Models returns the union of models from all registered providers (satisfies Provider).
func (r *Router) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []string
	seen := make(map[string]bool)
	for _, p := range r.providers {
		for _, m := range p.Models() {
			if !seen[m] {
				seen[m] = true
				all = append(all, m)
			}
		}
	}
	return all
}

// Ping checks the primary provider's health (satisfies Provider).
func (r *Router) Ping(ctx context.Context) error {
	p, err := r.Primary()
	if err != nil {
		return err
	}
	return p.Ping(ctx)
}

// ProviderNames returns the names of all registered providers.
func (r *Router) ProviderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// ── Internal Helpers ──

func (r *Router) providerChain() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := []string{r.primary}
	for _, fb := range r.fallbacks {
		if fb != r.primary {
			chain = append(chain, fb)
		}
	}
	return chain
}

// withPreferredModel resolves the model from the preference list when
// the caller has not pinned one.
func (r *Router) withPreferredModel(provider Provider, opts *ChatOptions) *ChatOptions {
	if opts != nil && opts.Model != "" {
		return opts
	}
	served := provider.Models()
	for _, want := range r.models {
		for _, have := range served {
			if want == have {
				out := ChatOptions{}
				if opts != nil {
					out = *opts
				}
				out.Model = want
				return &out
			}
		}
	}
	return opts
}

func (r *Router) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}

func (r *Router) chatWithRetry(ctx context.Context, provider Provider,
	messages []Message, opts *ChatOptions) (*Response, error) {

	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if attempt > 0 {
			// 1×, 2×, 4× the base delay
			delay := r.retryBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := r.wait(ctx); err != nil {
			return nil, err
		}

		resp, err := provider.Chat(ctx, messages, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// Only timeouts earn another attempt against the same provider.
		if !IsTimeout(err) {
			return nil, err
		}
		r.log.WithError(err).WithFields(logrus.Fields{
			"provider": provider.Name(),
			"attempt":  attempt + 1,
		}).Warn("timeout, retrying")
	}
	return nil, lastErr
}

func isNonRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Auth errors, invalid model and oversize prompts will fail
	// everywhere; don't burn the fallback chain on them.
	return errors.Is(err, ErrNoAPIKey) || errors.Is(err, ErrInvalidModel) || errors.Is(err, ErrContextLength)
}

// NewRouterFromConfig creates a fully configured Router from the
// application config, instantiating providers for the keys present.
func NewRouterFromConfig(cfg *config.Config) (*Router, error) {
	timeout := time.Duration(cfg.LLM.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	router := NewRouter(cfg.LLM.Primary,
		WithModelPreference(cfg.LLM.Models...),
		WithRateLimit(cfg.LLM.RequestsPerMinute),
	)

	var fallbacks []string
	registered := 0

	if cfg.LLM.OpenAIKey != "" {
		p, err := NewOpenAIProvider(cfg.LLM.OpenAIKey,
			WithOpenAIModel(cfg.LLM.Model),
			WithOpenAIBaseURL(cfg.LLM.BaseURL),
			WithOpenAIHTTPClient(&http.Client{Timeout: timeout}),
		)
		if err == nil {
			router.RegisterProvider(p)
			registered++
			if cfg.LLM.Primary != ProviderOpenAI {
				fallbacks = append(fallbacks, ProviderOpenAI)
			}
		}
	}

	if cfg.LLM.GeminiKey != "" {
		p, err := NewGeminiProvider(cfg.LLM.GeminiKey,
			WithGeminiModel(defaultGeminiModel(cfg.LLM.Model)),
			WithGeminiHTTPClient(&http.Client{Timeout: timeout}),
		)
		if err == nil {
			router.RegisterProvider(p)
			registered++
			if cfg.LLM.Primary != ProviderGemini {
				fallbacks = append(fallbacks, ProviderGemini)
			}
		}
	}

	if registered == 0 {
		return nil, ErrNoProviders
	}

	router.fallbacks = fallbacks
	return router, nil
}

func defaultGeminiModel(model string) string {
	if strings.HasPrefix(model, "gemini") {
		return model
	}
	return "gemini-2.0-flash"
}
