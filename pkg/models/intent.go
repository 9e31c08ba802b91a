package models

// IntentStatus is the classification outcome.
type IntentStatus string

const (
	IntentClarify IntentStatus = "CLARIFY"
	IntentReady   IntentStatus = "READY"
)

// IntentMode enumerates the supported answer modes.
type IntentMode string

const (
	ModePredictDaily         IntentMode = "PREDICT_DAILY"
	ModePredictPeriod        IntentMode = "PREDICT_PERIOD_OUTLOOK"
	ModePredictEventTiming   IntentMode = "PREDICT_EVENT_TIMING"
	ModePredictEventsPeriod  IntentMode = "PREDICT_EVENTS_FOR_PERIOD"
	ModeAnalyzeTopic         IntentMode = "ANALYZE_TOPIC_POTENTIAL"
	ModeAnalyzePersonality   IntentMode = "ANALYZE_PERSONALITY"
	ModeAnalyzeRootCause     IntentMode = "ANALYZE_ROOT_CAUSE"
	ModeRecommendRemedy      IntentMode = "RECOMMEND_REMEDY_FOR_PROBLEM"
	ModeLifespanEventTiming  IntentMode = "LIFESPAN_EVENT_TIMING"
	ModeMundane              IntentMode = "MUNDANE"
)

// IsPredictive reports whether the mode implies transit scanning.
func (m IntentMode) IsPredictive() bool {
	switch m {
	case ModePredictDaily, ModePredictPeriod, ModePredictEventTiming,
		ModePredictEventsPeriod, ModeLifespanEventTiming:
		return true
	}
	return false
}

// TransitRequest bounds the transit scan an intent asks for.
type TransitRequest struct {
	StartYear     int `json:"start_year"`
	EndYear       int `json:"end_year"`
	MonthsPerYear int `json:"months_per_year,omitempty"`
}

// Intent is the structured classification of one chat question.
type Intent struct {
	Status        IntentStatus    `json:"status"`
	Clarification string          `json:"clarification,omitempty"` // only when Status==CLARIFY
	Mode          IntentMode      `json:"mode"`
	Category      string          `json:"category"`     // topic tag: career, marriage, wealth, health, progeny, general
	ContextType   string          `json:"context_type"` // "birth" | "annual"
	NeedsTransits bool            `json:"needs_transits"`
	Transits      *TransitRequest `json:"transit_request,omitempty"`
	Divisionals   []string        `json:"divisional_charts,omitempty"` // D labels, e.g. "D1","D9","Karkamsa"
	ChartInsights []string        `json:"chart_insights,omitempty"`    // 5–7 per-house remarks when READY
	Language      string          `json:"language,omitempty"`
}
