package detail

import (
	"context"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/beacondash/internal/logging"
)

// DefaultPollInterval is the refresh interval for visible rows.
const DefaultPollInterval = 5 * time.Second

// Variables are the parameters of one detail fetch.
type Variables map[string]any

// VariablesFunc derives fetch parameters from an item id. It must be pure.
type VariablesFunc func(itemID string) Variables

// FetchFunc performs the remote fetch. It must honour ctx cancellation.
type FetchFunc[R any] func(ctx context.Context, vars Variables) (R, error)

// ExtractFunc isolates one item's payload from a response. A nil result means
// the item no longer exists.
type ExtractFunc[T, R any] func(resp R, itemID string) *T

// TickFunc schedules fn after d. tea.Tick satisfies it.
type TickFunc func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// Config configures a Binding.
type Config[T, R any] struct {
	// Variables defaults to {"id": itemID}.
	Variables VariablesFunc

	Fetch FetchFunc[R]

	// Extract defaults to asserting the response to T or *T.
	Extract ExtractFunc[T, R]

	// PollInterval defaults to DefaultPollInterval. Negative disables polling.
	PollInterval time.Duration

	// Tick defaults to tea.Tick.
	Tick TickFunc

	// Context is the parent of every fetch context and carries the logger.
	Context context.Context

	// Now defaults to time.Now.
	Now func() time.Time
}

// FetchedMsg carries a fetch result back to the binding that issued it.
type FetchedMsg[R any] struct {
	Binding  uint64
	ItemID   string
	Seq      uint64
	Response R
	Err      error
}

// PollMsg is a poll tick for one binding.
type PollMsg struct {
	Binding uint64
	ItemID  string
	Seq     uint64
}

//nolint:gochecknoglobals // Process-wide generation counter for bindings.
var bindingIDs atomic.Uint64

// Binding is the data state of one row, keyed by item id.
type Binding[T, R any] struct {
	id     uint64
	itemID string
	cfg    Config[T, R]

	data      *T
	loading   bool
	visible   bool
	closed    bool
	lastErr   error
	fetches   int
	updatedAt time.Time

	fetchSeq uint64
	pollSeq  uint64
	cancel   context.CancelFunc
}

// New creates an idle binding for itemID. Call Start to issue the first fetch.
func New[T, R any](itemID string, cfg Config[T, R]) *Binding[T, R] {
	if cfg.Variables == nil {
		cfg.Variables = func(id string) Variables { return Variables{"id": id} }
	}
	if cfg.Extract == nil {
		cfg.Extract = assertExtract[T, R]
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Tick == nil {
		cfg.Tick = tea.Tick
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Binding[T, R]{
		id:     bindingIDs.Add(1),
		itemID: itemID,
		cfg:    cfg,
	}
}

// Start issues the initial fetch.
func (b *Binding[T, R]) Start() tea.Cmd {
	if b.closed {
		return nil
	}
	return b.fetch()
}

// SetVisible updates the polling gate. Becoming visible schedules the next
// poll; becoming hidden invalidates any pending tick so no further fetch is
// issued until the row is visible again.
func (b *Binding[T, R]) SetVisible(visible bool) tea.Cmd {
	if b.closed || visible == b.visible {
		return nil
	}
	b.visible = visible
	b.pollSeq++
	if !visible {
		return nil
	}
	return b.schedule()
}

// Update applies a FetchedMsg or PollMsg addressed to this binding. It reports
// whether the row's data or loading state changed.
func (b *Binding[T, R]) Update(msg tea.Msg) (bool, tea.Cmd) {
	if b.closed {
		return false, nil
	}
	switch msg := msg.(type) {
	case FetchedMsg[R]:
		return b.handleFetched(msg), nil
	case PollMsg:
		return b.handlePoll(msg)
	}
	return false, nil
}

func (b *Binding[T, R]) handleFetched(msg FetchedMsg[R]) bool {
	if msg.Binding != b.id || msg.ItemID != b.itemID || msg.Seq != b.fetchSeq {
		return false
	}
	b.loading = false
	b.release()

	if msg.Err != nil {
		b.lastErr = msg.Err
		logging.FromContext(b.cfg.Context).Debug().
			Str(logging.FieldComponent, "detail").
			Str(logging.FieldItemID, b.itemID).
			Err(msg.Err).
			Msg("row fetch failed, keeping previous data")
		return true
	}

	b.lastErr = nil
	b.data = b.cfg.Extract(msg.Response, b.itemID)
	b.updatedAt = b.cfg.Now()
	return true
}

func (b *Binding[T, R]) handlePoll(msg PollMsg) (bool, tea.Cmd) {
	if msg.Binding != b.id || msg.ItemID != b.itemID || msg.Seq != b.pollSeq || !b.visible {
		return false, nil
	}
	next := b.schedule()
	if b.loading {
		return false, next
	}
	return true, tea.Batch(b.fetch(), next)
}

// Rebind points the binding at a different item. In-flight fetches and
// pending ticks for the previous id are invalidated and the data is cleared.
func (b *Binding[T, R]) Rebind(itemID string) tea.Cmd {
	if b.closed || itemID == b.itemID {
		return nil
	}
	b.release()
	b.fetchSeq++
	b.pollSeq++
	b.itemID = itemID
	b.data = nil
	b.lastErr = nil
	b.loading = false
	b.updatedAt = time.Time{}

	cmds := []tea.Cmd{b.fetch()}
	if b.visible {
		cmds = append(cmds, b.schedule())
	}
	return tea.Batch(cmds...)
}

// Close cancels any in-flight fetch and invalidates pending ticks. A closed
// binding ignores every message.
func (b *Binding[T, R]) Close() {
	if b.closed {
		return
	}
	b.closed = true
	b.release()
	b.fetchSeq++
	b.pollSeq++
	b.loading = false
	b.visible = false
}

// Data returns the last extracted item, or nil.
func (b *Binding[T, R]) Data() *T { return b.data }

// Loading reports whether a fetch is in flight.
func (b *Binding[T, R]) Loading() bool { return b.loading }

// Visible reports the polling gate.
func (b *Binding[T, R]) Visible() bool { return b.visible }

// Closed reports whether Close was called.
func (b *Binding[T, R]) Closed() bool { return b.closed }

// Err returns the error of the last completed fetch.
func (b *Binding[T, R]) Err() error { return b.lastErr }

// Fetches returns how many fetches the binding has issued.
func (b *Binding[T, R]) Fetches() int { return b.fetches }

// ItemID returns the bound item id.
func (b *Binding[T, R]) ItemID() string { return b.itemID }

// ID returns the binding generation carried by its messages.
func (b *Binding[T, R]) ID() uint64 { return b.id }

// UpdatedAt returns when data was last replaced.
func (b *Binding[T, R]) UpdatedAt() time.Time { return b.updatedAt }

func (b *Binding[T, R]) fetch() tea.Cmd {
	b.release()
	b.fetchSeq++
	b.loading = true
	b.fetches++

	ctx, cancel := context.WithCancel(b.cfg.Context)
	b.cancel = cancel

	id, itemID, seq := b.id, b.itemID, b.fetchSeq
	vars := b.cfg.Variables(itemID)
	fetch := b.cfg.Fetch
	return func() tea.Msg {
		msg := FetchedMsg[R]{Binding: id, ItemID: itemID, Seq: seq}
		if fetch == nil {
			return msg
		}
		msg.Response, msg.Err = fetch(ctx, vars)
		return msg
	}
}

func (b *Binding[T, R]) schedule() tea.Cmd {
	if b.cfg.PollInterval < 0 {
		return nil
	}
	id, itemID, seq := b.id, b.itemID, b.pollSeq
	return b.cfg.Tick(b.cfg.PollInterval, func(time.Time) tea.Msg {
		return PollMsg{Binding: id, ItemID: itemID, Seq: seq}
	})
}

func (b *Binding[T, R]) release() {
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func assertExtract[T, R any](resp R, _ string) *T {
	switch v := any(resp).(type) {
	case *T:
		return v
	case T:
		return &v
	}
	return nil
}
