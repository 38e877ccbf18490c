// Package listctl implements the paginated, searchable list view shared by
// every dashboard screen.
//
// A Controller owns one view over a named collection: the current query,
// the last page of records, the bulk selection and the loading flags. Free
// text search is debounced, paging is immediate, single removals are
// optimistic with rollback and bulk actions are pessimistic. Only the result
// of the most recently issued fetch is ever applied.
package listctl

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/metrics"
	"github.com/simp-lee/newsdesk/internal/notify"
)

// DefaultDebounce is the quiet period after the last keystroke before a
// search fetch fires.
const DefaultDebounce = 300 * time.Millisecond

// Timer is the part of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Messages are the notification texts of a screen. Empty fields fall back
// to generic wording.
type Messages struct {
	Created      string
	Updated      string
	Removed      string
	BulkRemoved  string
	BulkApplied  string
	FetchFailed  string
	CreateFailed string
	UpdateFailed string
	RemoveFailed string
	BulkFailed   string
	// BulkApplyFailed defaults to BulkFailed.
	BulkApplyFailed string
}

func (m Messages) withDefaults() Messages {
	def := func(s *string, v string) {
		if *s == "" {
			*s = v
		}
	}
	def(&m.Created, "Record created")
	def(&m.Updated, "Record updated")
	def(&m.Removed, "Record deleted")
	def(&m.BulkRemoved, "Selected records deleted")
	def(&m.BulkApplied, "Selected records updated")
	def(&m.FetchFailed, "Failed to load records")
	def(&m.CreateFailed, "Failed to create record")
	def(&m.UpdateFailed, "Failed to update record")
	def(&m.RemoveFailed, "Delete failed")
	def(&m.BulkFailed, "Bulk action failed")
	def(&m.BulkApplyFailed, m.BulkFailed)
	return m
}

// Config describes one list screen.
type Config[T any] struct {
	// Name identifies the screen in logs and metrics.
	Name       string
	Collection domain.Collection[T]
	Notifier   notify.Notifier
	// ID extracts the record id.
	ID func(T) string

	SearchFields []string
	// OrderBy is the sort column, always descending unless Ascending is set.
	OrderBy   string
	Ascending bool

	Debounce time.Duration
	Limit    int
	MaxLimit int

	// Validate checks a draft before Create contacts the collection.
	Validate func(T) error
	// Insert replaces Collection.Insert for screens that create records
	// through another collaborator.
	Insert func(ctx context.Context, draft T) error
	// CreatedMessage overrides Messages.Created per record.
	CreatedMessage func(draft T) string

	Messages Messages
	Logger   *slog.Logger
	// AfterFunc schedules debounced fetches; defaults to time.AfterFunc.
	AfterFunc AfterFunc
}

// Tuning holds the settings shared by every screen of the dashboard.
type Tuning struct {
	Debounce time.Duration
	Limit    int
	MaxLimit int
	Logger   *slog.Logger
}

// Tuned returns cfg with the settings of t.
func Tuned[T any](t Tuning, cfg Config[T]) Config[T] {
	cfg.Debounce = t.Debounce
	cfg.Limit = t.Limit
	cfg.MaxLimit = t.MaxLimit
	cfg.Logger = t.Logger
	return cfg
}

// View is an immutable snapshot of a controller.
type View[T any] struct {
	Query      domain.Query
	Records    []T
	TotalCount int64
	TotalPages int
	Loading    bool
	Saving     bool
	BulkMode   bool
	Selected   map[string]bool
	FormOpen   bool
}

// HasPrev reports whether a previous page exists.
func (v View[T]) HasPrev() bool { return v.Query.Page > 1 }

// HasNext reports whether a next page exists.
func (v View[T]) HasNext() bool { return v.Query.Page < v.TotalPages }

// SelectedCount returns the size of the bulk selection.
func (v View[T]) SelectedCount() int { return len(v.Selected) }

// Controller is the live state of one list view. It is safe for concurrent use.
type Controller[T any] struct {
	cfg   Config[T]
	msgs  Messages
	log   *slog.Logger
	after AfterFunc

	mu       sync.Mutex
	query    domain.Query
	records  []T
	total    int64
	fetching int
	saving   int
	// seq is the token of the most recently issued fetch.
	seq uint64
	// generation changes whenever a fetch result replaces the page.
	generation uint64
	timer      Timer
	// debounceGen invalidates timers that fired after being superseded.
	debounceGen uint64
	bulk        bool
	selected    map[string]struct{}
	formOpen    bool
	closed      bool
	subs        map[chan struct{}]struct{}
}

// New creates a controller with the default query.
func New[T any](cfg Config[T]) *Controller[T] {
	if cfg.Collection == nil {
		panic("listctl.New: collection must not be nil")
	}
	if cfg.ID == nil {
		panic("listctl.New: id func must not be nil")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Limit <= 0 {
		cfg.Limit = domain.DefaultLimit
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	after := cfg.AfterFunc
	if after == nil {
		after = realAfterFunc
	}

	q := domain.DefaultQuery()
	q.Limit = cfg.Limit
	return &Controller[T]{
		cfg:      cfg,
		msgs:     cfg.Messages.withDefaults(),
		log:      log.With(slog.String("screen", cfg.Name)),
		after:    after,
		query:    q,
		selected: make(map[string]struct{}),
		subs:     make(map[chan struct{}]struct{}),
	}
}

// View returns a snapshot of the current state.
func (c *Controller[T]) View() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	selected := make(map[string]bool, len(c.selected))
	for id := range c.selected {
		selected[id] = true
	}
	return View[T]{
		Query:      c.query,
		Records:    slices.Clone(c.records),
		TotalCount: c.total,
		TotalPages: domain.TotalPages(c.total, c.query.Limit),
		Loading:    c.fetching > 0,
		Saving:     c.saving > 0,
		BulkMode:   c.bulk,
		Selected:   selected,
		FormOpen:   c.formOpen,
	}
}

// SetSearchTerm updates the search term, resets the page to 1 and schedules
// a fetch after the debounce window. Every call restarts the window, so a
// burst of keystrokes issues a single fetch with the last term.
func (c *Controller[T]) SetSearchTerm(term string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.query.SearchTerm = term
	c.query.Page = 1
	c.stopTimerLocked()
	gen := c.debounceGen
	c.timer = c.after(c.cfg.Debounce, func() { c.debounced(gen) })
	c.mu.Unlock()
	c.changed()
}

func (c *Controller[T]) debounced(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.debounceGen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()
	c.Fetch(context.Background())
}

// stopTimerLocked cancels a pending debounced fetch.
func (c *Controller[T]) stopTimerLocked() {
	c.debounceGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// SetPage moves to page n and fetches immediately. Pages below 1 are
// rejected; the caller bounds n by the displayed page count.
func (c *Controller[T]) SetPage(ctx context.Context, n int) error {
	if n < 1 {
		return domain.Validation("page must be at least 1")
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.query.Page = n
	c.stopTimerLocked()
	c.mu.Unlock()

	c.Fetch(ctx)
	return nil
}

// SetLimit changes the page size, resets the page to 1 and fetches.
func (c *Controller[T]) SetLimit(ctx context.Context, n int) error {
	if n < 1 {
		return domain.Validation("limit must be at least 1")
	}
	if c.cfg.MaxLimit > 0 && n > c.cfg.MaxLimit {
		n = c.cfg.MaxLimit
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.query.Limit = n
	c.query.Page = 1
	c.stopTimerLocked()
	c.mu.Unlock()

	c.Fetch(ctx)
	return nil
}

// Fetch queries the collection with the current query and replaces the page
// with the result. A failure keeps the previous page and raises one error
// notification. Results of fetches superseded by a newer one are dropped.
func (c *Controller[T]) Fetch(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.seq++
	token, q := c.seq, c.query
	c.fetching++
	c.mu.Unlock()
	c.changed()

	defer func() {
		c.mu.Lock()
		c.fetching--
		c.mu.Unlock()
		c.changed()
	}()

	start := time.Now()
	records, total, err := c.cfg.Collection.Query(ctx, domain.QueryOptions{
		Search:       q.SearchTerm,
		SearchFields: c.cfg.SearchFields,
		OrderBy:      c.cfg.OrderBy,
		Ascending:    c.cfg.Ascending,
		Offset:       q.Offset(),
		Limit:        q.Limit,
	})
	metrics.ListFetchDuration.WithLabelValues(c.cfg.Name).Observe(time.Since(start).Seconds())

	c.mu.Lock()
	if token != c.seq {
		c.mu.Unlock()
		metrics.ListStaleResponses.WithLabelValues(c.cfg.Name).Inc()
		c.log.DebugContext(ctx, "discarding superseded list response", slog.Uint64("token", token))
		return
	}
	if err != nil {
		c.mu.Unlock()
		metrics.ListFetchTotal.WithLabelValues(c.cfg.Name, "error").Inc()
		c.log.WarnContext(ctx, "list fetch failed", slog.Any("error", err))
		_ = c.fail(c.msgs.FetchFailed, err)
		return
	}
	if records == nil {
		records = []T{}
	}
	c.records = records
	c.total = total
	c.generation++
	c.mu.Unlock()
	metrics.ListFetchTotal.WithLabelValues(c.cfg.Name, "ok").Inc()
}

// OpenForm marks the creation form as open.
func (c *Controller[T]) OpenForm() {
	c.mu.Lock()
	c.formOpen = true
	c.mu.Unlock()
	c.changed()
}

// CloseForm marks the creation form as closed.
func (c *Controller[T]) CloseForm() {
	c.mu.Lock()
	c.formOpen = false
	c.mu.Unlock()
	c.changed()
}

// Create validates draft, inserts it and re-fetches page 1. A validation
// failure is returned without contacting the collection. Nothing is inserted
// into the page locally; ordering after insert is the collection's concern.
func (c *Controller[T]) Create(ctx context.Context, draft T) error {
	return c.CreateWith(ctx, draft, nil)
}

// CreateWith is Create storing the draft through insert, for drafts that
// travel with data the record does not hold (a password). A nil insert
// falls back to the configured one.
func (c *Controller[T]) CreateWith(ctx context.Context, draft T, insert func(context.Context, T) error) error {
	if c.cfg.Validate != nil {
		if err := c.cfg.Validate(draft); err != nil {
			return c.fail(c.msgs.CreateFailed, err)
		}
	}
	if insert == nil {
		insert = c.cfg.Insert
	}

	err := c.whileSaving(func() error {
		if insert != nil {
			return insert(ctx, draft)
		}
		return c.cfg.Collection.Insert(ctx, &draft)
	})
	if err != nil {
		c.log.WarnContext(ctx, "create failed", slog.Any("error", err))
		return c.fail(c.msgs.CreateFailed, err)
	}

	c.mu.Lock()
	c.formOpen = false
	c.query.Page = 1
	c.mu.Unlock()

	msg := c.msgs.Created
	if c.cfg.CreatedMessage != nil {
		msg = c.cfg.CreatedMessage(draft)
	}
	c.succeed(msg)
	c.Fetch(ctx)
	return nil
}

// Update sends patch for id. On success the page is re-fetched only when the
// view is on page 1, where an edited record resurfaces under recency order.
func (c *Controller[T]) Update(ctx context.Context, id string, patch domain.Patch) error {
	err := c.whileSaving(func() error {
		return c.cfg.Collection.Update(ctx, id, patch)
	})
	if err != nil {
		c.log.WarnContext(ctx, "update failed", slog.String("id", id), slog.Any("error", err))
		return c.fail(c.msgs.UpdateFailed, err)
	}

	c.succeed(c.msgs.Updated)

	c.mu.Lock()
	onFirstPage := c.query.Page == 1
	c.mu.Unlock()
	if onFirstPage {
		c.Fetch(ctx)
	}
	return nil
}

// Remove deletes id optimistically: the record leaves the page before the
// collection is called and is put back at its position if the call fails.
// On success the total count drops by one.
func (c *Controller[T]) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	gen := c.generation
	idx := slices.IndexFunc(c.records, func(r T) bool { return c.cfg.ID(r) == id })
	var removed T
	if idx >= 0 {
		removed = c.records[idx]
		c.records = slices.Delete(slices.Clone(c.records), idx, idx+1)
	}
	delete(c.selected, id)
	c.mu.Unlock()
	c.changed()

	err := c.whileSaving(func() error {
		return c.cfg.Collection.Delete(ctx, id)
	})

	c.mu.Lock()
	// A fetch that landed meanwhile already shows the collection's truth.
	samePage := c.generation == gen
	if err != nil {
		if idx >= 0 && samePage {
			pos := min(idx, len(c.records))
			c.records = slices.Insert(slices.Clone(c.records), pos, removed)
		}
		c.mu.Unlock()
		metrics.ListRollbacks.WithLabelValues(c.cfg.Name).Inc()
		c.log.WarnContext(ctx, "remove failed, rolled back", slog.String("id", id), slog.Any("error", err))
		c.changed()
		return c.fail(c.msgs.RemoveFailed, err)
	}
	if idx >= 0 && samePage && c.total > 0 {
		c.total--
	}
	c.mu.Unlock()
	c.changed()
	c.succeed(c.msgs.Removed)
	return nil
}

// BulkRemove deletes every id. The page and selection are left untouched
// until the collection confirms; then the selection is cleared and the page
// re-fetched. An empty id list is a no-op.
func (c *Controller[T]) BulkRemove(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.runBulk(ctx, c.msgs.BulkRemoved, c.msgs.BulkFailed, func() error {
		return c.cfg.Collection.BulkDelete(ctx, ids)
	})
}

// BulkApply applies patch to every id with the same confirmation rules as
// BulkRemove.
func (c *Controller[T]) BulkApply(ctx context.Context, ids []string, patch domain.Patch) error {
	if len(ids) == 0 {
		return nil
	}
	return c.runBulk(ctx, c.msgs.BulkApplied, c.msgs.BulkApplyFailed, func() error {
		return c.cfg.Collection.BulkUpdate(ctx, ids, patch)
	})
}

func (c *Controller[T]) runBulk(ctx context.Context, okMsg, failMsg string, call func() error) error {
	if err := c.whileSaving(call); err != nil {
		c.log.WarnContext(ctx, "bulk action failed", slog.Any("error", err))
		return c.fail(failMsg, err)
	}

	c.mu.Lock()
	clear(c.selected)
	c.mu.Unlock()

	c.succeed(okMsg)
	c.Fetch(ctx)
	return nil
}

// SetBulkMode turns multi-row selection on or off. The selection is cleared
// either way.
func (c *Controller[T]) SetBulkMode(on bool) {
	c.mu.Lock()
	c.bulk = on
	clear(c.selected)
	c.mu.Unlock()
	c.changed()
}

// ToggleSelected flips the selection of id while bulk mode is on and reports
// whether id is now selected.
func (c *Controller[T]) ToggleSelected(id string) bool {
	c.mu.Lock()
	if !c.bulk {
		c.mu.Unlock()
		return false
	}
	_, on := c.selected[id]
	if on {
		delete(c.selected, id)
	} else {
		c.selected[id] = struct{}{}
	}
	c.mu.Unlock()
	c.changed()
	return !on
}

// SelectPage selects or deselects every record on the current page.
func (c *Controller[T]) SelectPage(on bool) {
	c.mu.Lock()
	if !c.bulk {
		c.mu.Unlock()
		return
	}
	for _, r := range c.records {
		if on {
			c.selected[c.cfg.ID(r)] = struct{}{}
		} else {
			delete(c.selected, c.cfg.ID(r))
		}
	}
	c.mu.Unlock()
	c.changed()
}

// Selection returns the selected ids in sorted order.
func (c *Controller[T]) Selection() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Subscribe returns a channel that receives (coalesced) after every state
// change, and a function to stop the subscription. The channel is closed
// when the controller is closed.
func (c *Controller[T]) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			if _, ok := c.subs[ch]; ok {
				delete(c.subs, ch)
				close(ch)
			}
			c.mu.Unlock()
		})
	}
}

// Close cancels any pending debounced fetch and ends all subscriptions.
// Results of in-flight fetches are ignored afterwards.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.seq++
	for ch := range c.subs {
		close(ch)
		delete(c.subs, ch)
	}
}

func (c *Controller[T]) changed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (c *Controller[T]) whileSaving(fn func() error) error {
	c.mu.Lock()
	c.saving++
	c.mu.Unlock()
	c.changed()

	defer func() {
		c.mu.Lock()
		c.saving--
		c.mu.Unlock()
		c.changed()
	}()
	return fn()
}

// fail announces err and returns it marked as reported.
func (c *Controller[T]) fail(fallback string, err error) error {
	msg := domain.PublicMessage(err, fallback)
	c.emit(notify.Notification{Kind: notify.Error, Title: "Error", Message: msg})
	return reportedError{err}
}

// reportedError wraps an error the controller has already announced.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// Reported reports whether err was already announced through the
// controller's notifier, so callers must not announce it again.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

func (c *Controller[T]) succeed(msg string) {
	c.emit(notify.Notification{Kind: notify.Success, Title: "Success", Message: msg})
}

func (c *Controller[T]) emit(n notify.Notification) {
	metrics.NotificationsTotal.WithLabelValues(c.cfg.Name, string(n.Kind)).Inc()
	c.cfg.Notifier.Notify(n)
}
