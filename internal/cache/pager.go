package cache

import (
	"context"
	"sync"

	"horrorvault/internal/models"
)

// PageFunc loads one 1-based page of a query.
type PageFunc[T any] func(ctx context.Context, page int) (models.PagedResult[T], error)

// Pager accumulates the pages of one logical query into a single ordered
// sequence. Items that reappear on later pages are dropped.
type Pager[T any] struct {
	mu    sync.Mutex
	fetch PageFunc[T]
	id    func(T) int

	items      []T
	seen       map[int]struct{}
	page       int
	totalPages int
	total      int
}

func NewPager[T any](fetch PageFunc[T], id func(T) int) *Pager[T] {
	return &Pager[T]{
		fetch: fetch,
		id:    id,
		seen:  make(map[int]struct{}),
	}
}

// Next loads the following page. It returns false with a nil error once the
// last page has been loaded. A failed load leaves the pager unchanged.
func (p *Pager[T]) Next(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasMore() {
		return false, nil
	}

	result, err := p.fetch(ctx, p.page+1)
	if err != nil {
		return false, err
	}

	for _, item := range result.Results {
		id := p.id(item)
		if _, dup := p.seen[id]; dup {
			continue
		}
		p.seen[id] = struct{}{}
		p.items = append(p.items, item)
	}
	p.page++
	p.totalPages = result.TotalPages
	p.total = result.TotalResults
	return true, nil
}

// LoadThrough loads pages until page n is loaded or the query runs out.
func (p *Pager[T]) LoadThrough(ctx context.Context, n int) error {
	for p.Pages() < n {
		more, err := p.Next(ctx)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// Items returns a copy of everything loaded so far.
func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

func (p *Pager[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore()
}

// Pages is the number of pages loaded.
func (p *Pager[T]) Pages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// Total is the upstream total_results of the last loaded page.
func (p *Pager[T]) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

func (p *Pager[T]) hasMore() bool {
	return p.page == 0 || p.page < p.totalPages
}
