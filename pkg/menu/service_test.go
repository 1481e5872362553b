package menu

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeSuggester struct {
	message    string
	candidates []Item
	err        error
	lastInput  string
}

func (f *fakeSuggester) Suggest(_ context.Context, input string, _ []Item) (string, []Item, error) {
	f.lastInput = input
	return f.message, f.candidates, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"아메리카노":        "아메리카노",
		" 아메리카노 ":      "아메리카노",
		"아메리카노 주세요!":   "아메리카노주세요",
		"Cafe Latte.": "cafelatte",
		"":            "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestSearch_DirectMatchViaSynonym(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	store.Add(Item{ID: 1, Name: "americano", DisplayName: "아메리카노", Price: 4000}, "아메")
	svc := NewService(store, nil, testLogger())

	result, err := svc.Search(context.Background(), " 아메 ")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if result.Kind != KindDirectMatch {
		t.Fatalf("kind=%v, want DIRECT_MATCH", result.Kind)
	}
	if result.Item.Price != 4000 {
		t.Fatalf("price=%d, want 4000", result.Item.Price)
	}
}

func TestSearch_AmbiguousSynonym(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	store.Add(Item{ID: 1, Name: "iced-americano", DisplayName: "아이스 아메리카노", Price: 4000}, "아아")
	store.Add(Item{ID: 2, Name: "iced-americano-decaf", DisplayName: "디카페인 아이스 아메리카노", Price: 4500}, "아아")
	svc := NewService(store, nil, testLogger())

	result, err := svc.Search(context.Background(), "아아")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if result.Kind != KindAmbiguousMatch {
		t.Fatalf("kind=%v, want AMBIGUOUS_MATCH", result.Kind)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("candidates=%d, want 2", len(result.Candidates))
	}
}

func TestSearch_FallsBackToSuggester(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	store.Add(Item{ID: 1, Name: "cafe-latte", DisplayName: "카페라떼", Price: 4500})
	suggester := &fakeSuggester{
		message:    "혹시 카페라떼 중에서 찾으시는 건가요?",
		candidates: []Item{{ID: 1, Name: "cafe-latte", DisplayName: "카페라떼", Price: 4500}},
	}
	svc := NewService(store, suggester, testLogger())

	result, err := svc.Search(context.Background(), "바닐라 라떼")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if result.Kind != KindSuggestion {
		t.Fatalf("kind=%v, want SUGGESTION", result.Kind)
	}
	if suggester.lastInput != "바닐라 라떼" {
		t.Fatalf("suggester saw %q", suggester.lastInput)
	}
}

func TestSearch_SuggesterErrorDegradesToNoMatch(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	svc := NewService(store, &fakeSuggester{err: errors.New("quota exceeded")}, testLogger())

	result, err := svc.Search(context.Background(), "짜장면")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if result.Kind != KindNoMatch {
		t.Fatalf("kind=%v, want NO_MATCH", result.Kind)
	}
}

func TestSearch_NoSuggesterNoMatch(t *testing.T) {
	t.Parallel()

	svc := NewService(NewMemoryStore(), nil, testLogger())
	result, err := svc.Search(context.Background(), "김치찌개")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if result.Kind != KindNoMatch {
		t.Fatalf("kind=%v, want NO_MATCH", result.Kind)
	}
}
