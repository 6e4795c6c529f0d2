package intent

import (
	"strings"

	"github.com/zhouzirui/arogya-chat/backend/internal/model/catalog"
	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
)

// Predicate tests already-normalized user text.
type Predicate func(normalized string) bool

// Rule maps a predicate to the catalog topic and message type it selects.
type Rule struct {
	Topic catalog.Topic
	Type  chat.MessageType
	Match Predicate
}

// Decision is the outcome of classifying one user message.
type Decision struct {
	Topic   catalog.Topic
	Type    chat.MessageType
	Matched bool
}

// KeywordSource provides localized trigger words per topic.
type KeywordSource interface {
	Keywords(lang chat.Language, topic catalog.Topic) []string
}

// baseKeywords always apply, whatever the active language.
var baseKeywords = []struct {
	topic    catalog.Topic
	kind     chat.MessageType
	keywords []string
}{
	{catalog.Prevention, chat.TypeInfo, []string{"prevent"}},
	{catalog.Symptoms, chat.TypeInfo, []string{"symptom", "fever", "cough"}},
	{catalog.Vaccination, chat.TypeInfo, []string{"vaccin"}},
	{catalog.Alert, chat.TypeAlert, []string{"alert"}},
}

// ContainsAny matches when the text contains any of words, ignoring case.
func ContainsAny(words ...string) Predicate {
	lowered := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			lowered = append(lowered, w)
		}
	}
	return func(normalized string) bool {
		for _, w := range lowered {
			if strings.Contains(normalized, w) {
				return true
			}
		}
		return false
	}
}

// Rules builds the ordered rule table for lang: prevention, symptoms, vaccination, alert.
func Rules(source KeywordSource, lang chat.Language) []Rule {
	rules := make([]Rule, 0, len(baseKeywords))
	for _, base := range baseKeywords {
		words := append([]string(nil), base.keywords...)
		if source != nil {
			words = append(words, source.Keywords(lang, base.topic)...)
		}
		rules = append(rules, Rule{Topic: base.topic, Type: base.kind, Match: ContainsAny(words...)})
	}
	return rules
}

// Classify evaluates rules top to bottom and returns the first match,
// or the fallback topic with a plain text type.
func Classify(rules []Rule, text string) Decision {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized != "" {
		for _, rule := range rules {
			if rule.Match != nil && rule.Match(normalized) {
				return Decision{Topic: rule.Topic, Type: rule.Type, Matched: true}
			}
		}
	}
	return Decision{Topic: catalog.Fallback, Type: chat.TypeText}
}
