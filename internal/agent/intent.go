package agent

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/saptarishi/jyotishai/internal/agent/prompts"
	"github.com/saptarishi/jyotishai/internal/llm"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// LLM is the slice of the model client the agent layer needs. Both the
// provider router and individual providers satisfy it.
type LLM interface {
	Chat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.Response, error)
	ChatStream(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (<-chan llm.StreamChunk, error)
}

// ClassifyInput carries one question plus its conversational surroundings
// into the classifier.
type ClassifyInput struct {
	Question           string
	History            []string
	UserFacts          map[string]string
	ClarificationCount int
	Language           string
	ForceReady         bool
	Chart              *models.NatalChart // D1, for chart insights
}

// Classifier turns a free-text question into a structured Intent. The model
// does the heavy lifting; hard rules below override it where it cannot be
// trusted (clarification cap, transit detection, varga defaults).
type Classifier struct {
	llm     LLM
	clock   func() time.Time
	timeout time.Duration
	log     *logrus.Entry
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithClassifierTimeout bounds the model call.
func WithClassifierTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) { c.timeout = d }
}

// WithClassifierClock fixes the clock, for tests.
func WithClassifierClock(now func() time.Time) ClassifierOption {
	return func(c *Classifier) { c.clock = now }
}

// WithClassifierLogger sets the log entry.
func WithClassifierLogger(e *logrus.Entry) ClassifierOption {
	return func(c *Classifier) { c.log = e }
}

// NewClassifier creates a Classifier backed by the given model client.
func NewClassifier(client LLM, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		llm:     client,
		clock:   time.Now,
		timeout: 5 * time.Second,
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify produces the Intent for one question. A model failure never fails
// the call: the rule classifier takes over so the question is always routed.
func (c *Classifier) Classify(ctx context.Context, in ClassifyInput) (*models.Intent, error) {
	year := c.clock().Year()

	// A short correction or continuation after a full answer is routed
	// deterministically: the thread already has its context, so the model
	// never gets a chance to ask another clarifying question.
	if isFollowUp(in.Question, in.History) {
		intent := ruleClassify(in.Question)
		c.enforce(&intent, in, year)
		return &intent, nil
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msgs := []llm.Message{
		llm.SystemMessage(prompts.ClassifierInstruction),
		llm.UserMessage(prompts.ClassifierUserPrompt(in.Question, in.History, in.UserFacts, in.ClarificationCount, year)),
	}

	var intent models.Intent
	resp, err := c.llm.Chat(cctx, msgs, &llm.ChatOptions{Temperature: 0})
	if err != nil {
		c.log.WithError(err).Warn("intent model call failed, using rule classifier")
		intent = ruleClassify(in.Question)
	} else if err := ExtractJSON(resp.Content, &intent); err != nil {
		c.log.WithError(err).Warn("intent parse failed, using rule classifier")
		intent = ruleClassify(in.Question)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	c.enforce(&intent, in, year)
	return &intent, nil
}

// enforce applies the rules the model is not allowed to break.
func (c *Classifier) enforce(intent *models.Intent, in ClassifyInput, year int) {
	// At most one clarification per thread.
	if intent.Status == models.IntentClarify && (in.ClarificationCount >= 1 || in.ForceReady) {
		intent.Status = models.IntentReady
		intent.Clarification = ""
	}
	if intent.Status != models.IntentClarify {
		intent.Status = models.IntentReady
		intent.Clarification = ""
	}
	if intent.Mode == "" {
		intent.Mode = models.ModeAnalyzePersonality
	}
	if intent.Category == "" {
		intent.Category = "general"
	}
	if intent.ContextType != "annual" {
		intent.ContextType = "birth"
	}
	if intent.Language == "" {
		if in.Language != "" {
			intent.Language = in.Language
		} else {
			intent.Language = "en"
		}
	}

	// Transit detection: a when-question, an explicit year, or a predictive
	// mode all require transit scanning even if the model said otherwise.
	if wantsTiming(in.Question) || mentionsYear(in.Question) || intent.Mode.IsPredictive() {
		intent.NeedsTransits = true
	}
	if intent.NeedsTransits {
		if intent.Transits == nil {
			intent.Transits = &models.TransitRequest{StartYear: year, EndYear: year + 2}
		}
		if intent.Transits.StartYear == 0 {
			intent.Transits.StartYear = year
		}
		if intent.Transits.EndYear < intent.Transits.StartYear {
			intent.Transits.EndYear = intent.Transits.StartYear + 2
		}
	} else {
		intent.Transits = nil
	}

	if len(intent.Divisionals) == 0 {
		intent.Divisionals = defaultVargas(intent.Category)
	}

	if intent.Status == models.IntentReady && len(intent.ChartInsights) == 0 && in.Chart != nil {
		intent.ChartInsights = buildChartInsights(in.Chart, intent.Category)
	}
}

// defaultVargas returns the varga set a category is read with.
func defaultVargas(category string) []string {
	switch strings.ToLower(category) {
	case "marriage":
		return []string{"D1", "D9", "D7"}
	case "career":
		return []string{"D1", "D9", "D10", "Karkamsa"}
	case "wealth":
		return []string{"D1", "D2", "D9"}
	case "progeny":
		return []string{"D1", "D7", "D9"}
	case "health":
		return []string{"D1", "D9"}
	default:
		return []string{"D1"}
	}
}

// ── Rule Classifier (model-failure fallback) ──

var (
	timingWords = []string{"when", "kab", "which year", "what year", "how long until", "at what age"}
	dailyWords  = []string{"today", "tomorrow", "daily", "aaj"}
	categoryWords = map[string][]string{
		"marriage": {"marriage", "marry", "spouse", "wedding", "shaadi", "wife", "husband"},
		"career":   {"career", "job", "promotion", "business", "work", "profession"},
		"wealth":   {"wealth", "money", "rich", "income", "property", "finance"},
		"health":   {"health", "disease", "illness", "surgery", "medical"},
		"progeny":  {"child", "children", "pregnan", "progeny", "baby", "son", "daughter"},
	}
)

// correctionOpeners mark a user message that amends the previous answer
// rather than opening a new thread.
var correctionOpeners = []string{"no,", "no ", "not that", "i meant", "i mean", "actually"}

// isFollowUp reports whether the message continues an already-answered
// thread: the previous assistant turn was a full answer (not a clarifying
// question) and the user sent a one-to-three-word reply or a correction.
func isFollowUp(question string, history []string) bool {
	if len(history) == 0 {
		return false
	}
	last := strings.TrimSpace(history[len(history)-1])
	if !strings.HasPrefix(last, "assistant: ") {
		return false
	}
	if strings.HasSuffix(last, "?") {
		return false // a clarification still awaits its answer
	}
	if len(strings.Fields(question)) <= 3 {
		return true
	}
	q := strings.ToLower(strings.TrimSpace(question))
	for _, w := range correctionOpeners {
		if strings.HasPrefix(q, w) {
			return true
		}
	}
	return false
}

func containsAny(q string, words []string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

func wantsTiming(question string) bool {
	return containsAny(strings.ToLower(question), timingWords)
}

// mentionsYear reports whether the question names a four-digit year in the
// range the transit scanner can serve.
func mentionsYear(question string) bool {
	fields := strings.FieldsFunc(question, func(r rune) bool {
		return r < '0' || r > '9'
	})
	for _, f := range fields {
		if len(f) != 4 {
			continue
		}
		if y, err := strconv.Atoi(f); err == nil && y >= 2024 && y <= 2099 {
			return true
		}
	}
	return false
}

// ruleClassify is the deterministic fallback when the model output is
// unusable. Always READY; timing and category detection by keyword.
func ruleClassify(question string) models.Intent {
	q := strings.ToLower(question)

	mode := models.ModeAnalyzePersonality
	switch {
	case containsAny(q, dailyWords):
		mode = models.ModePredictDaily
	case containsAny(q, timingWords):
		mode = models.ModePredictEventTiming
	}

	category := "general"
	for cat, words := range categoryWords {
		if containsAny(q, words) {
			category = cat
			break
		}
	}

	return models.Intent{
		Status:   models.IntentReady,
		Mode:     mode,
		Category: category,
	}
}

// ── Chart Insights ──

// insightHouses orders the houses surveyed per category; the first entries
// matter most so the 5–7 cap trims from the tail.
var insightHouses = map[string][]int{
	"marriage": {7, 1, 2, 4, 8, 12, 5},
	"career":   {10, 1, 6, 2, 11, 9, 3},
	"wealth":   {2, 11, 1, 9, 5, 8, 10},
	"health":   {1, 6, 8, 12, 3, 5, 10},
	"progeny":  {5, 1, 7, 9, 2, 11, 4},
	"general":  {1, 10, 7, 4, 2, 9, 5},
}

// buildChartInsights derives 5–7 one-line observations from the D1 chart,
// ordered by the houses most relevant to the category.
func buildChartInsights(chart *models.NatalChart, category string) []string {
	houses, ok := insightHouses[strings.ToLower(category)]
	if !ok {
		houses = insightHouses["general"]
	}

	insights := make([]string, 0, 7)
	insights = append(insights,
		models.SignName(chart.AscSign)+" rises; "+models.SignLord(chart.AscSign).String()+
			" as lagna lord sits in house "+strconv.Itoa(houseOfBody(chart, models.SignLord(chart.AscSign))))

	for _, h := range houses {
		if len(insights) >= 7 {
			break
		}
		sign := chart.SignOfHouse(h)
		occupants := chart.PlanetsInHouse(h)
		lord := models.SignLord(sign)
		var b strings.Builder
		b.WriteString("House ")
		b.WriteString(strconv.Itoa(h))
		b.WriteString(" is ")
		b.WriteString(models.SignName(sign))
		if len(occupants) > 0 {
			names := make([]string, len(occupants))
			for i, o := range occupants {
				names[i] = o.String()
			}
			b.WriteString(" holding ")
			b.WriteString(strings.Join(names, ", "))
		} else {
			b.WriteString(", empty")
		}
		b.WriteString("; its lord ")
		b.WriteString(lord.String())
		b.WriteString(" is in house ")
		b.WriteString(strconv.Itoa(houseOfBody(chart, lord)))
		insights = append(insights, b.String())
	}
	return insights
}

func houseOfBody(chart *models.NatalChart, b models.Body) int {
	if p, ok := chart.Planets[b]; ok {
		return chart.HouseOf(p.Sign)
	}
	return 0
}
