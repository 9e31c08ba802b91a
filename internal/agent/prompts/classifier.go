package prompts

import (
	"fmt"
	"strings"
)

// ── Intent Classifier ──

// ClassifierInstruction is the system prompt for the intent classifier. The
// model must return exactly one JSON object matching the schema below.
const ClassifierInstruction = `You are the intent classifier for a Vedic astrology service. Read the user's question (and conversation history, if any) and return ONE JSON object — no prose, no code fences.

## Modes (pick exactly one)
- PREDICT_DAILY — today/tomorrow horoscope-style question
- PREDICT_PERIOD_OUTLOOK — "how will this year/month go"
- PREDICT_EVENT_TIMING — "when will X happen" for a specific event
- PREDICT_EVENTS_FOR_PERIOD — "what will happen during <period>"
- ANALYZE_TOPIC_POTENTIAL — "do I have X in my chart" (marriage, foreign settlement, wealth...)
- ANALYZE_PERSONALITY — character, strengths, nature
- ANALYZE_ROOT_CAUSE — "why does X keep happening to me"
- RECOMMEND_REMEDY_FOR_PROBLEM — asks for remedies/upayas
- LIFESPAN_EVENT_TIMING — timing over the whole life ("at what age...")
- MUNDANE — not about the native's own chart (world events, other people in general)

## Categories (pick one)
career, marriage, wealth, health, progeny, education, travel, spiritual, general

## Rules
1. If the question is too vague to answer from a chart, set status "CLARIFY" and put ONE short follow-up question in "clarification". Otherwise status is "READY".
2. A follow-up to the previous exchange keeps the previous category unless the user clearly changed topics.
3. Set "needs_transits" true when the question asks WHEN something happens, names a year, or the mode is predictive.
4. "transit_request" bounds the scan: start_year and end_year as four-digit years. Omit it when needs_transits is false.
5. "context_type" is "annual" only for questions scoped to a single named year; otherwise "birth".
6. "divisional_charts": list the varga labels needed, e.g. ["D1","D9","D7"] for marriage, ["D1","D9","D10","Karkamsa"] for career. Default ["D1"].
7. When status is "READY", include "chart_insights": 5 to 7 one-line observations drawn from the houses relevant to the category.
8. "language": BCP-47 tag of the question's language (default "en").

## Output Schema
{
  "status": "READY" | "CLARIFY",
  "clarification": "string (only when CLARIFY)",
  "mode": "<one mode>",
  "category": "<one category>",
  "context_type": "birth" | "annual",
  "needs_transits": true | false,
  "transit_request": {"start_year": 2026, "end_year": 2028},
  "divisional_charts": ["D1", ...],
  "chart_insights": ["...", ...],
  "language": "en"
}`

// ClassifierUserPrompt assembles the classifier's user message.
func ClassifierUserPrompt(question string, history []string, userFacts map[string]string, clarificationCount int, currentYear int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current year: %d\n", currentYear)
	if clarificationCount >= 1 {
		b.WriteString("A clarification was already asked. Do NOT clarify again; classify as READY using your best interpretation.\n")
	}
	if len(userFacts) > 0 {
		b.WriteString("\nKnown user facts:\n")
		for k, v := range userFacts {
			fmt.Fprintf(&b, "- %s: %s\n", k, v)
		}
	}
	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, h := range history {
			b.WriteString(h)
			b.WriteByte('\n')
		}
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}

// ── Answer Schemas ──

// ChatSchemaTemplate tells the model the JSON shape a chat answer must take.
const ChatSchemaTemplate = `## Response Format
Return ONE JSON object, nothing else:
{
  "text": "the full answer, <strong>/<br> markup allowed",
  "faq_meta": {
    "category": "the topic category",
    "canonical_question": "the question rephrased in canonical impersonal form"
  }
}`

// TopicSchemaTemplate is the JSON shape for the long-form topic reports
// (marriage, career, wealth, health, progeny).
const TopicSchemaTemplate = `## Response Format
Return ONE JSON object, nothing else:
{
  "quick_answer": "2-3 sentence verdict, <strong>/<br> markup allowed",
  "detailed_analysis": [
    {"question": "the aspect being examined", "answer": "grounded analysis citing placements"}
  ],
  "final_thoughts": "closing synthesis and practical guidance",
  "follow_up_questions": ["three short questions the native might ask next"]
}
The detailed_analysis array must cover every numbered question given below, in order.`

// topicQuestions lists the fixed question set each long-form report must cover.
var topicQuestions = map[string][]string{
	"marriage": {
		"What does the 7th house and its lord promise about marriage?",
		"What kind of spouse do the Darakaraka and Upapada indicate?",
		"Does the D9 confirm or weaken the marriage promise?",
		"Which dasha periods favour marriage?",
		"Are there doshas affecting the marriage, and how severe are they?",
	},
	"career": {
		"What profession do the 10th house, its lord and the D10 indicate?",
		"What does the Karkamsa say about natural inclination?",
		"Is employment or business better suited to this chart?",
		"Which dasha periods favour career growth or change?",
		"What are the peak earning phases of this chart?",
	},
	"wealth": {
		"What do the 2nd and 11th houses promise about accumulation?",
		"How strong are the dhana yogas in this chart?",
		"What does the D2 confirm about sustained wealth?",
		"Which periods favour gains, and which demand caution?",
		"What income sources suit this chart best?",
	},
	"health": {
		"What constitution and vulnerabilities do the lagna and its lord show?",
		"What do the 6th, 8th and 12th houses indicate?",
		"What does the Kota Chakra reveal about current defences?",
		"Are any mrityu-bhaga degrees afflicted?",
		"Which periods call for extra care, and what guidance applies?",
	},
	"progeny": {
		"What do the 5th house and its lord promise about children?",
		"What does Jupiter as putra-karaka indicate?",
		"Does the D7 confirm the promise of progeny?",
		"Which dasha periods favour childbirth?",
		"Are there obstacles to progeny, and what eases them?",
	},
}

// TopicQuestions returns the fixed question set for a report topic.
func TopicQuestions(topic string) []string {
	return topicQuestions[strings.ToLower(topic)]
}

// TopicUserPrompt builds the user message for a long-form topic report.
func TopicUserPrompt(topic, contextJSON string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Produce the %s report for this chart.\n\n## Chart Context\n%s\n\n## Questions\n", topic, contextJSON)
	for i, q := range topicQuestions[strings.ToLower(topic)] {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return b.String()
}

// FAQTrailer reminds the model to fill faq_meta; appended after the question.
const FAQTrailer = `Remember: the response must be a single JSON object with "text" and "faq_meta" fields, and faq_meta.canonical_question must be an impersonal rephrasing (e.g. "When will marriage happen?" not "When will I get married?").`
