// Package menu resolves free-form utterances to catalog items. Lookup is
// synonym-table first, with an optional model-backed suggester as fallback
// for near misses.
package menu

// Item is one sellable catalog entry. Price is in KRW.
type Item struct {
	ID          int64
	Name        string // internal code, e.g. "americano"
	DisplayName string // customer-facing name, e.g. "아메리카노"
	Category    string
	Price       int
}

type ResultKind int

const (
	KindNoMatch ResultKind = iota
	KindDirectMatch
	KindAmbiguousMatch
	KindSuggestion
)

func (k ResultKind) String() string {
	switch k {
	case KindDirectMatch:
		return "DIRECT_MATCH"
	case KindAmbiguousMatch:
		return "AMBIGUOUS_MATCH"
	case KindSuggestion:
		return "SUGGESTION"
	default:
		return "NO_MATCH"
	}
}

// SearchResult is a tagged variant: exactly the fields for its kind are set.
type SearchResult struct {
	Kind       ResultKind
	Item       *Item  // DirectMatch
	Candidates []Item // AmbiguousMatch, Suggestion
	Message    string // Suggestion only: model-phrased reply text
}

func DirectMatch(item Item) SearchResult {
	return SearchResult{Kind: KindDirectMatch, Item: &item}
}

func AmbiguousMatch(candidates []Item) SearchResult {
	return SearchResult{Kind: KindAmbiguousMatch, Candidates: candidates}
}

func Suggestion(message string, candidates []Item) SearchResult {
	return SearchResult{Kind: KindSuggestion, Message: message, Candidates: candidates}
}

func NoMatch() SearchResult {
	return SearchResult{Kind: KindNoMatch}
}
