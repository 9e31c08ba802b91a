package prompts

import (
	"strings"
	"testing"

	"github.com/saptarishi/jyotishai/pkg/models"
)

// ════════════════════════════════════════════
// Module Selection
// ════════════════════════════════════════════

func TestModulesForAlwaysLeadsWithCore(t *testing.T) {
	keys := ModulesFor(models.ModeAnalyzePersonality, "general", false)
	if len(keys) == 0 || keys[0] != ModuleCore {
		t.Fatalf("expected core first, got %v", keys)
	}
}

func TestModulesForPredictiveAddsTiming(t *testing.T) {
	keys := ModulesFor(models.ModePredictEventTiming, "general", true)
	wantOrder := []string{ModuleCore, ModuleTiming, ModuleTransits}
	if len(keys) != len(wantOrder) {
		t.Fatalf("keys = %v", keys)
	}
	for i, k := range wantOrder {
		if keys[i] != k {
			t.Errorf("keys[%d] = %s, want %s", i, keys[i], k)
		}
	}
}

func TestModulesForMarriage(t *testing.T) {
	keys := ModulesFor(models.ModeAnalyzeTopic, "marriage", false)
	has := func(k string) bool {
		for _, x := range keys {
			if x == k {
				return true
			}
		}
		return false
	}
	if !has(ModuleJaimini) || !has(ModuleDivisional) {
		t.Fatalf("marriage should include jaimini+divisional, got %v", keys)
	}
}

func TestModulesForHealth(t *testing.T) {
	keys := ModulesFor(models.ModeAnalyzeRootCause, "health", false)
	joined := strings.Join(keys, ",")
	if !strings.Contains(joined, ModuleHealthKota) || !strings.Contains(joined, ModuleHealthMrityu) {
		t.Fatalf("health should include kota+mrityu, got %v", keys)
	}
}

func TestComposeSkipsUnknownKeys(t *testing.T) {
	out := Compose([]string{ModuleCore, "no-such-module", ModuleNadi})
	if !strings.Contains(out, "JyotishAI") {
		t.Error("missing core instruction")
	}
	if !strings.Contains(out, "Nadi Method") {
		t.Error("missing nadi instruction")
	}
	if strings.Contains(out, "no-such-module") {
		t.Error("unknown key leaked into output")
	}
}

func TestModuleLookup(t *testing.T) {
	if _, ok := Module(ModuleTransits); !ok {
		t.Error("transits module should exist")
	}
	if _, ok := Module("bogus"); ok {
		t.Error("bogus module should not exist")
	}
}

// ════════════════════════════════════════════
// Classifier Prompt
// ════════════════════════════════════════════

func TestClassifierInstructionNamesEveryMode(t *testing.T) {
	modes := []models.IntentMode{
		models.ModePredictDaily, models.ModePredictPeriod,
		models.ModePredictEventTiming, models.ModePredictEventsPeriod,
		models.ModeAnalyzeTopic, models.ModeAnalyzePersonality,
		models.ModeAnalyzeRootCause, models.ModeRecommendRemedy,
		models.ModeLifespanEventTiming, models.ModeMundane,
	}
	for _, m := range modes {
		if !strings.Contains(ClassifierInstruction, string(m)) {
			t.Errorf("classifier prompt missing mode %s", m)
		}
	}
}

func TestClassifierUserPromptForcesReadyAfterClarification(t *testing.T) {
	p := ClassifierUserPrompt("yes, about my job", nil, nil, 1, 2026)
	if !strings.Contains(p, "Do NOT clarify again") {
		t.Error("expected the no-more-clarifications directive")
	}
	p = ClassifierUserPrompt("when will I marry?", nil, nil, 0, 2026)
	if strings.Contains(p, "Do NOT clarify again") {
		t.Error("directive should be absent on a fresh question")
	}
}

func TestClassifierUserPromptIncludesHistoryAndFacts(t *testing.T) {
	p := ClassifierUserPrompt("what about next year?",
		[]string{"user: when will I marry?", "assistant: likely 2027-2028"},
		map[string]string{"occupation": "engineer"}, 0, 2026)
	for _, want := range []string{"when will I marry", "occupation: engineer", "Current year: 2026", "what about next year?"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

// ════════════════════════════════════════════
// Topic Reports
// ════════════════════════════════════════════

func TestTopicQuestionsCoverEveryTopic(t *testing.T) {
	for _, topic := range []string{"marriage", "career", "wealth", "health", "progeny"} {
		qs := TopicQuestions(topic)
		if len(qs) != 5 {
			t.Errorf("%s: want 5 questions, got %d", topic, len(qs))
		}
	}
	if TopicQuestions("astral-projection") != nil {
		t.Error("unknown topic should return nil")
	}
}

func TestTopicUserPromptNumbersQuestions(t *testing.T) {
	p := TopicUserPrompt("career", `{"chart":"..."}`)
	if !strings.Contains(p, "1. ") || !strings.Contains(p, "5. ") {
		t.Fatalf("questions not numbered:\n%s", p)
	}
	if !strings.Contains(p, `{"chart":"..."}`) {
		t.Error("context JSON missing from prompt")
	}
}

func TestSchemasMentionRequiredFields(t *testing.T) {
	for _, f := range []string{"text", "faq_meta", "canonical_question"} {
		if !strings.Contains(ChatSchemaTemplate, f) {
			t.Errorf("chat schema missing %q", f)
		}
	}
	for _, f := range []string{"quick_answer", "detailed_analysis", "final_thoughts", "follow_up_questions"} {
		if !strings.Contains(TopicSchemaTemplate, f) {
			t.Errorf("topic schema missing %q", f)
		}
	}
}
