package models

import "fmt"

// Paginated is the list envelope every collection endpoint wraps its
// results in: {"count": n, "next": url|null, "previous": url|null,
// "results": [...]}.
type Paginated[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Validate checks every item in the envelope. A single malformed item
// fails the whole envelope; callers never see partial results.
func (p *Paginated[T]) Validate() error {
	if p.Count < 0 {
		return fmt.Errorf("pagination: negative count %d", p.Count)
	}
	for i := range p.Results {
		if err := Validate(&p.Results[i]); err != nil {
			return fmt.Errorf("pagination: result %d: %w", i, err)
		}
	}
	return nil
}

// Page builds a single-page envelope around items.
func Page[T any](items []T) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	return Paginated[T]{Count: len(items), Results: items}
}
