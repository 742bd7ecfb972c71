// Package tables maintains a live projection of a venue's floor:
// table status, guest counts and the order each table is linked to.
package tables

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medgentai/qr-code-menus-made-easy-sub004/realtime"
	"github.com/medgentai/qr-code-menus-made-easy-sub004/rest"
)

type connection interface {
	Acquire(ctx context.Context, token string) error
	Release()
	JoinRoom(rt realtime.RoomType, id string)
	On(event string, fn realtime.Handler) realtime.Subscription
	Off(sub realtime.Subscription)
}

type api interface {
	ListTables(ctx context.Context, venueID string) ([]rest.Table, error)
	UpdateTable(ctx context.Context, tableID string, req rest.UpdateTableRequest) (*rest.Table, error)
}

// command snapshots a table's mutable fields before an optimistic
// write so a failed REST call can restore them.
type command struct {
	id             uuid.UUID
	status         rest.TableStatus
	guestCount     int
	currentOrderID string
}

// Feed binds the local table collection to the shared realtime
// session and the REST API.
type Feed struct {
	conn    connection
	client  api
	logger  realtime.Logger
	orgID   string
	venueID string

	mu       sync.Mutex
	started  bool
	active   bool
	tables   []rest.Table
	pending  map[string]command
	subs     []realtime.Subscription
	onChange func()
	onError  func(error)
}

// NewFeed constructs a feed scoped to an organization and venue.
func NewFeed(conn connection, client api, orgID, venueID string) *Feed {
	return &Feed{
		conn:    conn,
		client:  client,
		logger:  realtime.NopLogger(),
		orgID:   orgID,
		venueID: venueID,
		pending: make(map[string]command),
	}
}

// SetLogger overrides logger (optional).
func (f *Feed) SetLogger(l realtime.Logger) {
	if l != nil {
		f.logger = l
	}
}

// OnChange registers the callback fired after every collection change.
func (f *Feed) OnChange(fn func()) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// OnError registers the callback fired for seed and mutation failures.
func (f *Feed) OnError(fn func(error)) {
	f.mu.Lock()
	f.onError = fn
	f.mu.Unlock()
}

// Start mirrors orders.Feed.Start for the table domain. An empty
// organization id makes it a no-op.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	f.mu.Unlock()

	if f.orgID == "" {
		return nil
	}

	if err := f.conn.Acquire(ctx, ""); err != nil {
		f.mu.Lock()
		f.started = false
		f.mu.Unlock()
		return fmt.Errorf("acquire connection: %w", err)
	}

	f.mu.Lock()
	f.active = true
	f.mu.Unlock()

	f.conn.JoinRoom(realtime.RoomOrganization, f.orgID)
	if f.venueID != "" {
		f.conn.JoinRoom(realtime.RoomVenue, f.venueID)
	}

	subs := []realtime.Subscription{
		f.conn.On(realtime.EventTableUpdated, f.handleTableUpdated),
		f.conn.On(realtime.EventOrderTableUpdated, f.handleTableUpdated),
	}
	f.mu.Lock()
	f.subs = subs
	f.mu.Unlock()

	go func() {
		if err := f.Refresh(ctx); err != nil {
			f.fireError(err)
		}
	}()
	return nil
}

// Refresh replaces the collection with the server's current state. A
// result arriving after Stop is dropped.
func (f *Feed) Refresh(ctx context.Context) error {
	if f.venueID == "" {
		return nil
	}
	list, err := f.client.ListTables(ctx, f.venueID)
	if err != nil {
		return fmt.Errorf("seed tables: %w", err)
	}
	f.mu.Lock()
	if !f.active {
		f.mu.Unlock()
		return nil
	}
	f.tables = list
	f.mu.Unlock()
	f.fireChange()
	return nil
}

// Stop deregisters the feed's handlers and releases its reference on
// the shared session. A stopped feed may be started again.
func (f *Feed) Stop() {
	f.mu.Lock()
	if !f.active {
		f.mu.Unlock()
		return
	}
	f.active = false
	f.started = false
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()

	for _, s := range subs {
		f.conn.Off(s)
	}
	f.conn.Release()
}

// Mutations

// UpdateTableStatus applies the new status locally first, then issues
// the REST call, reverting on failure.
func (f *Feed) UpdateTableStatus(ctx context.Context, tableID string, status rest.TableStatus) error {
	f.mu.Lock()
	idx := f.indexLocked(tableID)
	if idx < 0 {
		f.mu.Unlock()
		return fmt.Errorf("table %s not tracked", tableID)
	}
	cmd := f.snapshotLocked(idx)
	f.pending[tableID] = cmd
	f.tables[idx].Status = status
	if status == rest.TableAvailable {
		f.tables[idx].GuestCount = 0
		f.tables[idx].CurrentOrderID = ""
	}
	f.mu.Unlock()
	f.fireChange()

	req := rest.UpdateTableRequest{Status: &status}
	if _, err := f.client.UpdateTable(ctx, tableID, req); err != nil {
		f.revert(tableID, cmd)
		err = fmt.Errorf("update table %s: %w", tableID, err)
		f.fireError(err)
		return err
	}

	f.confirm(tableID, cmd)
	return nil
}

// SeatGuests marks the table occupied with the given party size.
func (f *Feed) SeatGuests(ctx context.Context, tableID string, guests int) error {
	f.mu.Lock()
	idx := f.indexLocked(tableID)
	if idx < 0 {
		f.mu.Unlock()
		return fmt.Errorf("table %s not tracked", tableID)
	}
	cmd := f.snapshotLocked(idx)
	f.pending[tableID] = cmd
	f.tables[idx].Status = rest.TableOccupied
	f.tables[idx].GuestCount = guests
	f.mu.Unlock()
	f.fireChange()

	status := rest.TableOccupied
	req := rest.UpdateTableRequest{Status: &status, GuestCount: &guests}
	if _, err := f.client.UpdateTable(ctx, tableID, req); err != nil {
		f.revert(tableID, cmd)
		err = fmt.Errorf("seat guests at table %s: %w", tableID, err)
		f.fireError(err)
		return err
	}

	f.confirm(tableID, cmd)
	return nil
}

// Event handlers

// handleTableUpdated serves both tableUpdated and orderTableUpdated:
// the payloads share a shape, the latter carrying the order linkage.
func (f *Feed) handleTableUpdated(data json.RawMessage) {
	var ev realtime.TableEvent
	if err := realtime.UnmarshalData(data, &ev); err != nil {
		f.fireError(realtime.WrapError(realtime.ErrorSerialization, "decode table event", err))
		return
	}
	f.mu.Lock()
	idx := f.indexLocked(ev.TableID)
	if idx < 0 {
		f.mu.Unlock()
		f.logger.Debug("dropping update for unknown table", map[string]any{"tableId": ev.TableID})
		return
	}
	delete(f.pending, ev.TableID)
	t := &f.tables[idx]
	if ev.Status != "" {
		t.Status = rest.TableStatus(ev.Status)
	}
	t.GuestCount = ev.GuestCount
	t.CurrentOrderID = ev.CurrentOrderID
	if ev.TS > 0 {
		t.UpdatedAt = time.UnixMilli(ev.TS)
	}
	f.mu.Unlock()
	f.fireChange()
}

// internals

func (f *Feed) indexLocked(tableID string) int {
	for i := range f.tables {
		if f.tables[i].ID == tableID {
			return i
		}
	}
	return -1
}

func (f *Feed) snapshotLocked(idx int) command {
	t := f.tables[idx]
	return command{
		id:             uuid.New(),
		status:         t.Status,
		guestCount:     t.GuestCount,
		currentOrderID: t.CurrentOrderID,
	}
}

func (f *Feed) revert(tableID string, cmd command) {
	f.mu.Lock()
	cur, ok := f.pending[tableID]
	if !ok || cur.id != cmd.id {
		f.mu.Unlock()
		return
	}
	delete(f.pending, tableID)
	if idx := f.indexLocked(tableID); idx >= 0 {
		f.tables[idx].Status = cmd.status
		f.tables[idx].GuestCount = cmd.guestCount
		f.tables[idx].CurrentOrderID = cmd.currentOrderID
	}
	f.mu.Unlock()
	f.fireChange()
}

func (f *Feed) confirm(tableID string, cmd command) {
	f.mu.Lock()
	if cur, ok := f.pending[tableID]; ok && cur.id == cmd.id {
		delete(f.pending, tableID)
	}
	f.mu.Unlock()
}

func (f *Feed) fireChange() {
	f.mu.Lock()
	fn := f.onChange
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (f *Feed) fireError(err error) {
	f.mu.Lock()
	fn := f.onError
	f.mu.Unlock()
	if fn != nil && err != nil {
		fn(err)
	}
}
