/**
 * @description
 * Incremental market feed: turns the paginated market list endpoint into a
 * growing, de-duplicated sequence and tracks which items arrived with the
 * most recent page.
 *
 * Key features:
 * - At most one page request in flight; extra LoadMore calls are no-ops.
 * - Every request carries the generation that issued it. A response whose
 *   generation no longer matches (filter changed, Reset) is discarded.
 * - Market ids already accumulated are never appended twice.
 *
 * @notes
 * - The feed never retries. A failure parks it in Failed until the filter
 *   changes or Reset is called.
 */

package feed

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/polydebate"
)

// DefaultPageSize is used when a non-positive page size is configured
const DefaultPageSize = 20

// Filter identifies one result set
type Filter struct {
	Category string `json:"category,omitempty"`
	TagID    string `json:"tag_id,omitempty"`
	Search   string `json:"search,omitempty"`
}

// Normalize trims and lower-cases the parts of a filter that are compared
func (f Filter) Normalize() Filter {
	return Filter{
		Category: strings.ToLower(strings.TrimSpace(f.Category)),
		TagID:    strings.TrimSpace(f.TagID),
		Search:   strings.TrimSpace(f.Search),
	}
}

// localSearch reports whether the search term must be applied client-side:
// the category-path listings ignore the search parameter.
func (f Filter) localSearch() bool {
	return f.Search != "" && polydebate.IsPathCategory(f.Category)
}

// Fetcher loads one page for a filter
type Fetcher func(ctx context.Context, filter Filter, offset, limit int) (*models.MarketPage, error)

// Item is an accumulated market plus its presentational "new" tag
type Item struct {
	Market models.Market
	New    bool
}

// Snapshot is a consistent copy of the feed's caller-visible state
type Snapshot struct {
	Filter     Filter
	State      State
	Items      []Item
	HasMore    bool
	Offset     int
	Generation uint64
}

// Err returns the failure carried by a Failed state, if any
func (s Snapshot) Err() error {
	if f, ok := s.State.(Failed); ok {
		return f.Err
	}
	return nil
}

// Feed accumulates pages for one filter at a time
type Feed struct {
	fetch    Fetcher
	pageSize int

	mu       sync.Mutex
	filter   Filter
	gen      uint64
	state    State
	items    []Item
	seen     map[string]struct{}
	offset   int
	hasMore  bool
	inFlight bool
}

// New creates an idle feed
func New(fetch Fetcher, pageSize int) *Feed {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	f := &Feed{fetch: fetch, pageSize: pageSize}
	f.resetLocked()
	return f
}

func (f *Feed) resetLocked() {
	f.gen++
	f.state = Idle{}
	f.items = nil
	f.seen = make(map[string]struct{})
	f.offset = 0
	f.hasMore = true
	f.inFlight = false
}

// SetFilter switches the feed to a new filter. Accumulated results are
// discarded and pagination restarts at offset zero. Returns false when the
// filter is unchanged, in which case nothing is reset.
func (f *Feed) SetFilter(filter Filter) bool {
	filter = filter.Normalize()

	f.mu.Lock()
	defer f.mu.Unlock()

	if filter == f.filter {
		return false
	}
	f.filter = filter
	f.resetLocked()
	return true
}

// Reset discards accumulated results for the current filter, clearing a Failed state
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

// LoadMore requests the next page. It returns true when a page was applied.
// It is a no-op when a request is already in flight, when the last response
// reported no more data, or when the feed has failed.
func (f *Feed) LoadMore(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return false, nil
	}
	if failed, ok := f.state.(Failed); ok {
		f.mu.Unlock()
		return false, failed.Err
	}
	_, idle := f.state.(Idle)
	if !idle && !f.hasMore {
		f.mu.Unlock()
		return false, nil
	}

	prev := f.state
	f.inFlight = true
	f.state = Loading{Initial: idle}
	gen, filter, offset, limit := f.gen, f.filter, f.offset, f.pageSize
	f.mu.Unlock()

	page, err := f.fetch(ctx, filter, offset, limit)

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.gen {
		logger.Debug("Discarding stale market page (generation %d, current %d)", gen, f.gen)
		return false, nil
	}
	f.inFlight = false

	if err != nil {
		if errors.Is(err, context.Canceled) {
			f.state = prev
			return false, err
		}
		f.state = Failed{Err: err}
		return false, err
	}

	for i := range f.items {
		f.items[i].New = false
	}
	for _, m := range page.Markets {
		if _, dup := f.seen[m.ID]; dup {
			continue
		}
		f.seen[m.ID] = struct{}{}
		f.items = append(f.items, Item{Market: m, New: true})
	}
	f.offset += len(page.Markets)
	f.hasMore = page.HasMore && len(page.Markets) > 0
	f.state = Ready{}
	return true, nil
}

// EnsureLoaded loads the first page if nothing has been requested yet
func (f *Feed) EnsureLoaded(ctx context.Context) error {
	f.mu.Lock()
	_, idle := f.state.(Idle)
	f.mu.Unlock()
	if !idle {
		return nil
	}
	_, err := f.LoadMore(ctx)
	return err
}

// Snapshot returns a copy of the current state. A search term on a
// category-path listing is applied here, over the accumulated items.
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := make([]Item, 0, len(f.items))
	needle := strings.ToLower(f.filter.Search)
	for _, it := range f.items {
		if f.filter.localSearch() && !matches(it.Market, needle) {
			continue
		}
		items = append(items, it)
	}
	return Snapshot{
		Filter:     f.filter,
		State:      f.state,
		Items:      items,
		HasMore:    f.hasMore,
		Offset:     f.offset,
		Generation: f.gen,
	}
}

func matches(m models.Market, needle string) bool {
	return strings.Contains(strings.ToLower(m.Question), needle) ||
		strings.Contains(strings.ToLower(m.Category), needle)
}
