package dialog

import "strings"

// IntentClassifier detects the cross-cutting conversational intents that
// short-circuit the per-state dispatch. Keyword lists are locale content,
// so deployments can swap the classifier without touching the engine.
type IntentClassifier interface {
	IsOrderComplete(text string) bool
	IsAddMore(text string) bool
	IsGreeting(text string) bool
}

// KeywordIntents is the default Korean keyword classifier.
type KeywordIntents struct {
	Complete []string
	AddMore  []string
	Greeting []string
}

func DefaultIntents() KeywordIntents {
	return KeywordIntents{
		Complete: []string{"주문 완료", "주문완료", "결제", "계산", "끝", "그게 다", "이제 됐어", "다 됐어"},
		AddMore:  []string{"더 주문", "더주문", "추가", "더 시킬", "또 주문", "하나 더"},
		Greeting: []string{"안녕", "주문할게", "주문하고 싶", "주문 할래", "여기요"},
	}
}

func (k KeywordIntents) IsOrderComplete(text string) bool { return containsAny(text, k.Complete) }
func (k KeywordIntents) IsAddMore(text string) bool       { return containsAny(text, k.AddMore) }
func (k KeywordIntents) IsGreeting(text string) bool      { return containsAny(text, k.Greeting) }

func containsAny(text string, keywords []string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
