package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/saptarishi/jyotishai/internal/agent/prompts"
	"github.com/saptarishi/jyotishai/internal/astroctx"
	"github.com/saptarishi/jyotishai/internal/llm"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// ── Dependencies ──

// CreditLedger is the slice of the billing layer the orchestrator needs.
type CreditLedger interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Spend(ctx context.Context, userID string, amount int64, reason, note string) (bool, error)
}

// ReportStore persists generated reports keyed by topic and birth hash.
type ReportStore interface {
	SaveInsight(ctx context.Context, topic, birthHash string, data []byte) error
	Insight(ctx context.Context, topic, birthHash string) ([]byte, time.Time, bool, error)
}

// ── Errors ──

var (
	// ErrInsufficientCredits maps to HTTP 402 in the API layer.
	ErrInsufficientCredits = errors.New("agent: insufficient credits")
	// ErrUnparseable means the model reply never yielded valid JSON.
	ErrUnparseable = errors.New("agent: model reply not parseable")
	// ErrUnknownTopic rejects report topics outside the supported set.
	ErrUnknownTopic = errors.New("agent: unknown report topic")
)

// ── Stream Events ──

// Event types emitted over the chat SSE stream.
const (
	EventClassifyStart = "classify_start"
	EventClarify       = "clarify"
	EventContextReady  = "context_ready"
	EventToken         = "token"
	EventComplete      = "complete"
	EventError         = "error"
)

// Event is one server-sent chunk of a chat answer.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// EmitFunc delivers one event to the client; returning an error aborts the
// stream (client gone).
type EmitFunc func(Event) error

// ── Answer Shapes ──

// FAQMeta is the canonicalized question metadata attached to chat answers.
type FAQMeta struct {
	Category          string `json:"category"`
	CanonicalQuestion string `json:"canonical_question"`
}

// ChatAnswer is the parsed model reply to one chat question.
type ChatAnswer struct {
	Text    string  `json:"text"`
	FAQMeta FAQMeta `json:"faq_meta"`
}

// TopicQA is one question/answer pair inside a long-form report.
type TopicQA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TopicAnalysis is the structured body of a long-form report.
type TopicAnalysis struct {
	QuickAnswer       string    `json:"quick_answer"`
	DetailedAnalysis  []TopicQA `json:"detailed_analysis"`
	FinalThoughts     string    `json:"final_thoughts"`
	FollowUpQuestions []string  `json:"follow_up_questions"`
}

// TopicReport wraps an analysis with its cache provenance.
type TopicReport struct {
	Analysis TopicAnalysis `json:"analysis"`
	Cached   bool          `json:"cached"`
}

// ── Orchestrator ──

// Orchestrator stitches classification, context assembly, generation,
// billing and persistence into the two user-facing flows: streamed chat
// and long-form topic reports.
type Orchestrator struct {
	llm        LLM
	classifier *Classifier
	ctxb       *astroctx.Builder
	ledger     CreditLedger
	store      ReportStore
	sessions   *Sessions
	cost       func(reason string) int
	clock      func() time.Time
	streamTTL  time.Duration
	log        *logrus.Entry
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithCostFunc sets the per-reason credit pricing.
func WithCostFunc(f func(reason string) int) OrchestratorOption {
	return func(o *Orchestrator) { o.cost = f }
}

// WithClock fixes the clock, for tests.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.clock = now }
}

// WithStreamTimeout bounds one streamed generation.
func WithStreamTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.streamTTL = d }
}

// WithLogger sets the log entry.
func WithLogger(e *logrus.Entry) OrchestratorOption {
	return func(o *Orchestrator) { o.log = e }
}

// NewOrchestrator wires the orchestrator. The classifier shares the model
// client unless replaced via the classifier's own options later.
func NewOrchestrator(client LLM, ctxb *astroctx.Builder, ledger CreditLedger, store ReportStore, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		llm:       client,
		ctxb:      ctxb,
		ledger:    ledger,
		store:     store,
		sessions:  NewSessions(20),
		cost:      func(string) int { return 1 },
		clock:     time.Now,
		streamTTL: 120 * time.Second,
		log:       logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, op := range opts {
		op(o)
	}
	o.classifier = NewClassifier(client, WithClassifierClock(func() time.Time { return o.clock() }), WithClassifierLogger(o.log))
	return o
}

// Sessions exposes the session registry (the API layer feeds user facts in).
func (o *Orchestrator) Sessions() *Sessions { return o.sessions }

// AskInput is one chat question with its birth data.
type AskInput struct {
	UserID     string
	Question   string
	Birth      models.BirthData
	Language   string
	ForceReady bool
}

// Ask runs the full chat flow, streaming progress through emit. Credits are
// spent only after the model reply parses; a clarification round is free.
func (o *Orchestrator) Ask(ctx context.Context, in AskInput, emit EmitFunc) error {
	price := int64(o.cost("chat"))
	bal, err := o.ledger.Balance(ctx, in.UserID)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	if bal < price {
		return ErrInsufficientCredits
	}

	sess := o.sessions.Get(in.UserID)
	if err := emit(Event{Type: EventClassifyStart}); err != nil {
		return err
	}

	// The classifier reads the D1 chart for its house insights.
	st, err := o.ctxb.Static(ctx, in.Birth)
	if err != nil {
		return fmt.Errorf("static context: %w", err)
	}

	intent, err := o.classifier.Classify(ctx, ClassifyInput{
		Question:           in.Question,
		History:            sess.History(),
		UserFacts:          sess.Facts(),
		ClarificationCount: sess.Clarifications(),
		Language:           in.Language,
		ForceReady:         in.ForceReady,
		Chart:              st.Chart,
	})
	if err != nil {
		return err
	}

	if intent.Status == models.IntentClarify {
		sess.BumpClarifications()
		sess.Append("user", in.Question)
		sess.Append("assistant", intent.Clarification)
		return emit(Event{Type: EventClarify, Data: map[string]interface{}{
			"clarification": intent.Clarification,
			"category":      intent.Category,
		}})
	}

	payload, err := o.chatContext(ctx, in.Birth, st, intent)
	if err != nil {
		return fmt.Errorf("context: %w", err)
	}
	if err := emit(Event{Type: EventContextReady}); err != nil {
		return err
	}

	system := prompts.Compose(prompts.ModulesFor(intent.Mode, intent.Category, intent.NeedsTransits)) +
		"\n\n" + prompts.ChatSchemaTemplate
	user := buildChatUserPrompt(in.Question, payload, intent)

	raw, err := o.streamGeneration(ctx, system, user, emit)
	if err != nil {
		return err
	}

	var answer ChatAnswer
	if err := ExtractJSON(raw, &answer); err != nil {
		o.log.WithError(err).Error("chat reply unparseable")
		return ErrUnparseable
	}
	answer.Text = unescapeMarkup(answer.Text)
	if answer.FAQMeta.Category == "" {
		answer.FAQMeta.Category = intent.Category
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	// Spend only now: a failed parse or a cancelled stream costs nothing.
	ok, err := o.ledger.Spend(ctx, in.UserID, price, "chat", intent.Category)
	if err != nil {
		return fmt.Errorf("spend: %w", err)
	}
	if !ok {
		return ErrInsufficientCredits
	}

	if data, err := json.Marshal(answer); err == nil {
		if err := o.store.SaveInsight(ctx, "chat:"+intent.Category, st.BirthHash, data); err != nil {
			o.log.WithError(err).Warn("chat answer not persisted")
		}
	}

	sess.Append("user", in.Question)
	sess.Append("assistant", answer.Text)

	return emit(Event{Type: EventComplete, Data: map[string]interface{}{
		"text":     answer.Text,
		"faq_meta": answer.FAQMeta,
		"mode":     intent.Mode,
		"category": intent.Category,
	}})
}

// chatContext serializes the context slices the intent asks for.
func (o *Orchestrator) chatContext(ctx context.Context, birth models.BirthData, st *astroctx.Static, intent *models.Intent) (string, error) {
	out := map[string]interface{}{
		"birth_hash":     st.BirthHash,
		"chart":          st.Chart,
		"nakshatras":     st.Nakshatras,
		"dignities":      st.Dignities,
		"yogas":          st.Yogas,
		"chart_insights": intent.ChartInsights,
	}

	divs := make(map[string]*models.DivisionalChart)
	for _, label := range intent.Divisionals {
		if d, ok := st.Divisionals[vargaNumber(label)]; ok {
			divs[label] = d
		}
	}
	if len(divs) > 0 {
		out["divisional_charts"] = divs
	}

	if intent.NeedsTransits && intent.Transits != nil {
		w := astroctx.Window{
			Start: time.Date(intent.Transits.StartYear, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(intent.Transits.EndYear, 12, 31, 0, 0, 0, 0, time.UTC),
		}
		dy, err := o.ctxb.Dynamic(ctx, birth, w)
		if err != nil {
			return "", err
		}
		out["dashas"] = dy.Dashas
		out["transits"] = dy.Transits
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func buildChatUserPrompt(question, contextJSON string, intent *models.Intent) string {
	var b strings.Builder
	b.WriteString("## Chart Context\n")
	b.WriteString(contextJSON)
	b.WriteString("\n\n## Question\n")
	b.WriteString(question)
	if intent.Language != "" && intent.Language != "en" {
		fmt.Fprintf(&b, "\n\nAnswer in the language tagged %q.", intent.Language)
	}
	b.WriteString("\n\n")
	b.WriteString(prompts.FAQTrailer)
	return b.String()
}

// streamGeneration runs one streamed completion, forwarding chunks as token
// events and returning the accumulated text.
func (o *Orchestrator) streamGeneration(ctx context.Context, system, user string, emit EmitFunc) (string, error) {
	sctx, cancel := context.WithTimeout(ctx, o.streamTTL)
	defer cancel()

	msgs := []llm.Message{llm.SystemMessage(system), llm.UserMessage(user)}
	ch, err := o.llm.ChatStream(sctx, msgs, nil)
	if err != nil {
		return "", fmt.Errorf("stream: %w", err)
	}

	var b strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			return "", fmt.Errorf("stream: %w", chunk.Err)
		}
		if chunk.Content != "" {
			b.WriteString(chunk.Content)
			if err := emit(Event{Type: EventToken, Data: chunk.Content}); err != nil {
				return "", err
			}
		}
		if chunk.Done {
			break
		}
	}
	if sctx.Err() != nil && b.Len() == 0 {
		return "", sctx.Err()
	}
	return b.String(), nil
}

// TopicInput requests one long-form report.
type TopicInput struct {
	UserID  string
	Topic   string
	Birth   models.BirthData
	Refresh bool // regenerate even when a stored report exists
}

// TopicAnalysis generates (or returns the stored copy of) a long-form
// report. Cached reads are free; generation spends the topic's price after
// the reply parses.
func (o *Orchestrator) TopicAnalysis(ctx context.Context, in TopicInput) (*TopicReport, error) {
	topic := strings.ToLower(in.Topic)
	if prompts.TopicQuestions(topic) == nil {
		return nil, ErrUnknownTopic
	}
	hash := in.Birth.Hash()

	if !in.Refresh {
		if data, _, found, err := o.store.Insight(ctx, topic, hash); err == nil && found {
			var a TopicAnalysis
			if json.Unmarshal(data, &a) == nil {
				return &TopicReport{Analysis: a, Cached: true}, nil
			}
		}
	}

	price := int64(o.cost(topic))
	bal, err := o.ledger.Balance(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	if bal < price {
		return nil, ErrInsufficientCredits
	}

	now := o.clock()
	w := astroctx.Window{Start: now, End: now.AddDate(2, 0, 0)}
	tc, err := o.ctxb.Topic(ctx, astroctx.Topic(topic), in.Birth, &w)
	if err != nil {
		return nil, fmt.Errorf("topic context: %w", err)
	}
	ctxJSON, err := json.Marshal(tc)
	if err != nil {
		return nil, err
	}

	system := prompts.Compose(prompts.ModulesFor(models.ModeAnalyzeTopic, topic, true)) +
		"\n\n" + prompts.TopicSchemaTemplate

	gctx, cancel := context.WithTimeout(ctx, o.streamTTL)
	defer cancel()
	resp, err := o.llm.Chat(gctx, []llm.Message{
		llm.SystemMessage(system),
		llm.UserMessage(prompts.TopicUserPrompt(topic, string(ctxJSON))),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	var analysis TopicAnalysis
	if err := ExtractJSON(resp.Content, &analysis); err != nil {
		o.log.WithError(err).Error("topic reply unparseable")
		return nil, ErrUnparseable
	}
	analysis.QuickAnswer = unescapeMarkup(analysis.QuickAnswer)
	analysis.FinalThoughts = unescapeMarkup(analysis.FinalThoughts)
	for i := range analysis.DetailedAnalysis {
		analysis.DetailedAnalysis[i].Answer = unescapeMarkup(analysis.DetailedAnalysis[i].Answer)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	ok, err := o.ledger.Spend(ctx, in.UserID, price, topic, "report")
	if err != nil {
		return nil, fmt.Errorf("spend: %w", err)
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}

	if data, err := json.Marshal(analysis); err == nil {
		if err := o.store.SaveInsight(ctx, topic, hash, data); err != nil {
			o.log.WithError(err).Warn("report not persisted")
		}
	}
	return &TopicReport{Analysis: analysis, Cached: false}, nil
}

// unescapeMarkup reverses entity-escaping on the markup tags answers carry.
func unescapeMarkup(s string) string {
	if strings.ContainsRune(s, '&') {
		return html.UnescapeString(s)
	}
	return s
}

// vargaNumber maps a varga label to its division number; Karkamsa rides on
// the D9 mapping.
func vargaNumber(label string) int {
	switch strings.ToUpper(label) {
	case "D1":
		return 1
	case "D2":
		return 2
	case "D3":
		return 3
	case "D4":
		return 4
	case "D7":
		return 7
	case "D9", "KARKAMSA":
		return 9
	case "D10":
		return 10
	case "D12":
		return 12
	case "D16":
		return 16
	case "D20":
		return 20
	case "D24":
		return 24
	case "D27":
		return 27
	case "D30":
		return 30
	case "D40":
		return 40
	case "D45":
		return 45
	case "D60":
		return 60
	default:
		return 0
	}
}
