// Package gemini suggests menu candidates for utterances the synonym index
// cannot resolve, using the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/kioskvoice/ordergate/pkg/menu"
)

const (
	defaultModel  = "gemini-2.0-flash"
	noMatchMarker = "NO_MATCH"
	maxCandidates = 2
)

// Suggester asks Gemini for the closest catalog items to a free-form
// utterance. It implements menu.Suggester.
type Suggester struct {
	client *genai.Client
	model  string

	// generate is swapped in tests.
	generate func(ctx context.Context, prompt string) (string, error)
}

type Option func(*Suggester)

func WithModel(model string) Option {
	return func(s *Suggester) { s.model = model }
}

func NewSuggester(client *genai.Client, opts ...Option) *Suggester {
	s := &Suggester{
		client: client,
		model:  defaultModel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.generate == nil {
		s.generate = s.generateContent
	}
	return s
}

func (s *Suggester) generateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

// Suggest returns a clarification message and up to two catalog candidates,
// or no candidates when the model answers NO_MATCH.
func (s *Suggester) Suggest(ctx context.Context, input string, catalog []menu.Item) (string, []menu.Item, error) {
	if len(catalog) == 0 {
		return "", nil, nil
	}

	answer, err := s.generate(ctx, buildPrompt(input, catalog))
	if err != nil {
		return "", nil, err
	}

	candidates := matchCandidates(answer, catalog)
	if len(candidates) == 0 {
		return "", nil, nil
	}

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.DisplayName)
	}
	message := fmt.Sprintf("혹시 %s 중에서 찾으시는 건가요?", strings.Join(names, ", "))
	return message, candidates, nil
}

func buildPrompt(input string, catalog []menu.Item) string {
	var b strings.Builder
	b.WriteString("당신은 카페 키오스크의 메뉴 검색 도우미입니다.\n")
	b.WriteString("아래 메뉴 목록에서 사용자의 말과 가장 가까운 메뉴를 최대 ")
	fmt.Fprintf(&b, "%d개 골라주세요.\n", maxCandidates)
	b.WriteString("메뉴 이름만 한 줄에 하나씩 답하고, 비슷한 메뉴가 전혀 없으면 ")
	b.WriteString(noMatchMarker)
	b.WriteString(" 라고만 답하세요.\n\n메뉴 목록:\n")
	for _, item := range catalog {
		fmt.Fprintf(&b, "- %s\n", item.DisplayName)
	}
	fmt.Fprintf(&b, "\n사용자의 말: %q\n", input)
	return b.String()
}

// matchCandidates keeps only answer lines naming a real catalog item, in
// answer order, capped at maxCandidates. The model sometimes decorates its
// answer with bullets or extra prose, so matching is by containment.
func matchCandidates(answer string, catalog []menu.Item) []menu.Item {
	if strings.Contains(answer, noMatchMarker) {
		return nil
	}

	var out []menu.Item
	seen := make(map[int64]bool)
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*• \t"))
		if line == "" {
			continue
		}
		for _, item := range catalog {
			if seen[item.ID] {
				continue
			}
			if strings.Contains(line, item.DisplayName) || (item.Name != "" && strings.Contains(line, item.Name)) {
				out = append(out, item)
				seen[item.ID] = true
				break
			}
		}
		if len(out) >= maxCandidates {
			break
		}
	}
	return out
}
