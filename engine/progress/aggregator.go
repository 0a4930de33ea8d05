package progress

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-robot/common"
)

// itemState tracks the byte counters of a single fetched item.
type itemState struct {
	loaded int64
	total  int64
	done   bool
}

// aggregator is the implementation of the Aggregator interface.
type aggregator struct {
	mu    sync.Mutex
	items map[string]*itemState
	order []string

	onProgress func(percentage float64)
}

// Tracker receives progress events for individual fetches. Each fetch is identified by the
// item key it was started with (typically its URL).
type Tracker interface {
	// ItemStart registers a new item before any bytes are received.
	//
	// Parameters:
	//   - item: the item key
	ItemStart(item string)

	// ItemProgress reports the bytes received so far for an item.
	// A non-positive total means the size is unknown; the item then counts as
	// loaded bytes over loaded bytes until it ends.
	//
	// Parameters:
	//   - item: the item key
	//   - loaded: bytes received so far
	//   - total: expected total bytes, or <= 0 if unknown
	ItemProgress(item string, loaded, total int64)

	// ItemEnd marks an item as fully received.
	//
	// Parameters:
	//   - item: the item key
	ItemEnd(item string)

	// ItemError marks an item as finished without success.
	//
	// Parameters:
	//   - item: the item key
	ItemError(item string)
}

// Aggregator combines the byte counters of every tracked item into one percentage.
// One Aggregator serves one batch of fetches; it is safe for concurrent use.
type Aggregator interface {
	Tracker

	// Percentage returns loaded/total * 100 across all items, rounded to two decimals
	// and clamped to [0, 100]. It is 0 before any sized progress has been reported.
	//
	// Returns:
	//   - float64: the aggregate percentage
	Percentage() float64

	// Bytes returns the aggregate byte counters.
	//
	// Returns:
	//   - loaded: bytes received across all items
	//   - total: expected bytes across all items
	Bytes() (loaded, total int64)

	// Items returns how many registered items have finished.
	//
	// Returns:
	//   - done: items that ended or failed
	//   - total: items registered
	Items() (done, total int)
}

var _ Aggregator = &aggregator{}

// NewAggregator creates a new Aggregator with the given options applied.
//
// Parameters:
//   - options: functional options to configure the aggregator
//
// Returns:
//   - Aggregator: the new aggregator
func NewAggregator(options ...AggregatorBuilderOption) Aggregator {
	a := &aggregator{
		items: make(map[string]*itemState),
	}
	for _, option := range options {
		option(a)
	}
	return a
}

func (a *aggregator) ItemStart(item string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.item(item)
	a.notify()
}

func (a *aggregator) ItemProgress(item string, loaded, total int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.item(item)
	loaded = max(loaded, 0)
	if total <= 0 {
		total = loaded
	}
	st.loaded = min(loaded, total)
	st.total = total
	a.notify()
}

func (a *aggregator) ItemEnd(item string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.item(item)
	st.total = max(st.total, st.loaded)
	st.loaded = st.total
	st.done = true
	a.notify()
}

func (a *aggregator) ItemError(item string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.item(item)
	st.total = st.loaded
	st.done = true
	a.notify()
}

func (a *aggregator) Percentage() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.percentage()
}

func (a *aggregator) Bytes() (loaded, total int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bytes()
}

func (a *aggregator) Items() (done, total int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, key := range a.order {
		if a.items[key].done {
			done++
		}
	}
	return done, len(a.order)
}

// item returns the state for key, registering it on first use. Callers hold a.mu.
func (a *aggregator) item(key string) *itemState {
	st, ok := a.items[key]
	if !ok {
		st = &itemState{}
		a.items[key] = st
		a.order = append(a.order, key)
	}
	return st
}

func (a *aggregator) bytes() (loaded, total int64) {
	for _, st := range a.items {
		loaded += st.loaded
		total += st.total
	}
	return loaded, total
}

func (a *aggregator) percentage() float64 {
	loaded, total := a.bytes()
	if total <= 0 {
		return 0
	}
	pct := common.RoundTo(float64(loaded)/float64(total)*100, 2)
	return min(max(pct, 0), 100)
}

// notify publishes the current percentage. Callers hold a.mu so updates reach the
// callback in the order they were applied.
func (a *aggregator) notify() {
	if a.onProgress != nil {
		a.onProgress(a.percentage())
	}
}
