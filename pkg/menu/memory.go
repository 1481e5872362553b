package menu

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is a map-backed Store used in tests and in deployments that
// run without Postgres.
type MemoryStore struct {
	mu       sync.RWMutex
	items    []Item
	synonyms map[string][]int64 // normalized synonym -> item ids
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{synonyms: make(map[string][]int64)}
}

// Add registers an item with its spoken synonyms. The item's display name
// and code are always matchable.
func (m *MemoryStore) Add(item Item, synonyms ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, item)
	keys := append([]string{item.DisplayName, item.Name}, synonyms...)
	for _, key := range keys {
		normalized := Normalize(key)
		if normalized == "" {
			continue
		}
		m.synonyms[normalized] = append(m.synonyms[normalized], item.ID)
	}
}

// FindBySynonym resolves an utterance against the synonym index. An exact
// hit wins; otherwise any synonym contained in the utterance matches, so
// "아메리카노2개" still finds the americano.
func (m *MemoryStore) FindBySynonym(_ context.Context, normalized string) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.synonyms[normalized]
	if len(ids) == 0 && normalized != "" {
		seen := make(map[int64]bool)
		for syn, synIDs := range m.synonyms {
			if !strings.Contains(normalized, syn) {
				continue
			}
			for _, id := range synIDs {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var out []Item
	for _, item := range m.items {
		for _, id := range ids {
			if item.ID == id {
				out = append(out, item)
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) ActiveItems(_ context.Context) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out, nil
}

// DefaultCatalog seeds the built-in café catalog used when no database is
// configured.
func DefaultCatalog() *MemoryStore {
	store := NewMemoryStore()
	store.Add(Item{ID: 1, Name: "americano", DisplayName: "아메리카노", Category: "커피", Price: 4000}, "아메")
	store.Add(Item{ID: 2, Name: "cafe-latte", DisplayName: "카페라떼", Category: "커피", Price: 4500}, "라떼")
	store.Add(Item{ID: 3, Name: "cappuccino", DisplayName: "카푸치노", Category: "커피", Price: 4500})
	store.Add(Item{ID: 4, Name: "caramel-macchiato", DisplayName: "캐러멜 마키아토", Category: "커피", Price: 5000}, "마키아토")
	store.Add(Item{ID: 5, Name: "cola", DisplayName: "코카콜라", Category: "음료", Price: 2500}, "콜라")
	store.Add(Item{ID: 6, Name: "sprite", DisplayName: "스프라이트", Category: "음료", Price: 2500}, "사이다")
	store.Add(Item{ID: 7, Name: "orange-juice", DisplayName: "오렌지 주스", Category: "음료", Price: 3500}, "주스")
	store.Add(Item{ID: 8, Name: "french-fries", DisplayName: "프렌치프라이", Category: "사이드", Price: 2800}, "감자튀김")
	store.Add(Item{ID: 9, Name: "chicken-nuggets", DisplayName: "치킨 너겟", Category: "사이드", Price: 3500}, "너겟")
	store.Add(Item{ID: 10, Name: "apple-pie", DisplayName: "애플파이", Category: "디저트", Price: 2200})
	return store
}
