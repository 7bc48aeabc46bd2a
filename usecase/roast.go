package usecase

import (
	"math/rand"
	"strings"
)

// RoastType identifies which kind of canned roast was requested.
type RoastType string

const (
	RoastTypeSelf     RoastType = "self_roast"
	RoastTypeComeback RoastType = "comeback"
	RoastTypeGeneral  RoastType = "general_roast"
)

// RoastTarget identifies who the roast is aimed at.
type RoastTarget string

const (
	RoastTargetSelf  RoastTarget = "self"
	RoastTargetUser  RoastTarget = "user"
	RoastTargetOther RoastTarget = "other"
)

// RoastDecision is the result of classifying a query for roast intent.
// Classification is deterministic for a given query; only the rendered
// response text is randomized.
type RoastDecision struct {
	IsRoast  bool
	Type     RoastType
	Target   RoastTarget
	Category string
	Context  string
}

var selfRoastKeywords = []string{
	"roast yourself", "insult yourself", "self roast", "roast marsha",
}

var comebackKeywords = []string{
	"comeback", "response to", "what should i say", "reply to",
	"someone said", "they told me", "how do i respond",
}

var roastKeywords = []string{
	"roast", "roast me", "insult", "insult me", "burn", "savage",
	"comeback", "witty response", "sarcastic", "make fun",
	"judge me", "criticize", "tear me apart", "destroy me",
}

// roastTopics maps each category to its trigger keywords. Checked in the
// order given by roastTopicOrder; first match wins.
var roastTopics = map[string][]string{
	"procrastination": {"procrastinate", "lazy", "delay", "later", "tomorrow", "unproductive", "put off"},
	"bad_decisions":   {"decision", "choice", "mistake", "stupid", "dumb", "bad idea", "regret", "poor judgement"},
	"technology":      {"computer", "phone", "app", "tech", "wifi", "internet", "software", "hardware", "device", "technology"},
	"work":            {"work", "job", "boss", "meeting", "office", "career", "cubicle", "9-to-5"},
	"lifestyle":       {"life", "relationship", "friend", "family", "habits", "personality", "routine"},
}

var roastTopicOrder = []string{"procrastination", "bad_decisions", "technology", "work", "lifestyle"}

// ClassifyRoast detects whether the query asks for a roast or comeback.
// Keyword sets are checked in priority order: a query matching both self-roast
// and general-roast keywords classifies as a self roast.
func ClassifyRoast(query string) RoastDecision {
	lower := strings.ToLower(query)

	if containsAny(lower, selfRoastKeywords) {
		return RoastDecision{
			IsRoast: true,
			Type:    RoastTypeSelf,
			Target:  RoastTargetSelf,
			Context: query,
		}
	}

	if containsAny(lower, comebackKeywords) {
		return RoastDecision{
			IsRoast: true,
			Type:    RoastTypeComeback,
			Target:  RoastTargetOther,
			Context: query,
		}
	}

	if containsAny(lower, roastKeywords) {
		return RoastDecision{
			IsRoast:  true,
			Type:     RoastTypeGeneral,
			Target:   RoastTargetUser,
			Category: categorizeRoastTopic(lower),
			Context:  query,
		}
	}

	return RoastDecision{}
}

func categorizeRoastTopic(lowerQuery string) string {
	for _, category := range roastTopicOrder {
		if containsAny(lowerQuery, roastTopics[category]) {
			return category
		}
	}
	return "generic"
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// RoastRenderer turns a RoastDecision into response text. The random source
// is injected so tests can pin template selection.
type RoastRenderer struct {
	rng *rand.Rand
}

// NewRoastRenderer creates a renderer drawing templates from src.
func NewRoastRenderer(src rand.Source) *RoastRenderer {
	return &RoastRenderer{rng: rand.New(src)}
}

// Render produces the full roast response for a positive decision, suffixed
// with a closing tagline. It returns an empty string when the decision is not
// a roast; callers check decision.IsRoast, not the rendered string.
func (r *RoastRenderer) Render(decision RoastDecision) string {
	if !decision.IsRoast {
		return ""
	}

	var roast string
	switch decision.Type {
	case RoastTypeSelf:
		roast = r.pick(selfRoasts)
	case RoastTypeComeback:
		roast = r.pick(comebackTemplates[comebackStyle(decision.Context)])
	default:
		templates, ok := roastTemplates[decision.Category]
		if !ok {
			templates = roastTemplates["generic"]
		}
		roast = r.pick(templates)
	}

	return roast + r.pick(roastTaglines)
}

// comebackStyle sub-classifies the mood of a comeback request.
func comebackStyle(context string) string {
	lower := strings.ToLower(context)
	switch {
	case containsAny(lower, []string{"mean", "rude", "harsh", "cruel"}):
		return "savage"
	case containsAny(lower, []string{"funny", "clever", "smart"}):
		return "witty"
	default:
		return "playful"
	}
}

func (r *RoastRenderer) pick(options []string) string {
	return options[r.rng.Intn(len(options))]
}
