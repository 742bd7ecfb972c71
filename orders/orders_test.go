package orders

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medgentai/qr-code-menus-made-easy-sub004/realtime"
	"github.com/medgentai/qr-code-menus-made-easy-sub004/rest"
)

// fakeConn satisfies the feed's connection interface and exposes a
// real dispatcher so tests can push server events.
type fakeConn struct {
	bus      *realtime.Dispatcher
	mu       sync.Mutex
	acquired int
	released int
	rooms    []realtime.Room
}

func newFakeConn() *fakeConn {
	return &fakeConn{bus: realtime.NewDispatcher(nil)}
}

func (c *fakeConn) Acquire(context.Context, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acquired++
	return nil
}

func (c *fakeConn) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released++
}

func (c *fakeConn) JoinRoom(rt realtime.RoomType, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms = append(c.rooms, realtime.Room{Type: rt, ID: id})
}

func (c *fakeConn) On(event string, fn realtime.Handler) realtime.Subscription {
	return c.bus.On(event, fn)
}

func (c *fakeConn) Off(sub realtime.Subscription) { c.bus.Off(sub) }

func (c *fakeConn) emit(t *testing.T, event string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	c.bus.Dispatch(realtime.Outbound{Event: event, Data: raw})
}

func (c *fakeConn) counts() (acquired, released int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquired, c.released
}

type fakeAPI struct {
	mu         sync.Mutex
	orders     []rest.Order
	listCalls  int
	updateErr  error
	updateHook func()
	updated    []string
}

func (a *fakeAPI) ListOrders(context.Context, string) ([]rest.Order, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listCalls++
	out := make([]rest.Order, len(a.orders))
	copy(out, a.orders)
	return out, nil
}

func (a *fakeAPI) UpdateOrderStatus(_ context.Context, orderID string, status rest.OrderStatus) (*rest.Order, error) {
	if a.updateHook != nil {
		a.updateHook()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.updateErr != nil {
		return nil, a.updateErr
	}
	a.updated = append(a.updated, orderID)
	return &rest.Order{ID: orderID, Status: status}, nil
}

func (a *fakeAPI) UpdateOrderItemStatus(_ context.Context, orderID, itemID string, status rest.OrderStatus) (*rest.Order, error) {
	if a.updateHook != nil {
		a.updateHook()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.updateErr != nil {
		return nil, a.updateErr
	}
	a.updated = append(a.updated, orderID+"/"+itemID)
	return &rest.Order{ID: orderID}, nil
}

func seedOrders() []rest.Order {
	return []rest.Order{
		{ID: "ord1", VenueID: "v1", TableID: "t1", Status: rest.OrderPending, Items: []rest.OrderItem{
			{ID: "it1", Name: "Margherita", Quantity: 1, Status: rest.OrderPending},
		}},
		{ID: "ord2", VenueID: "v1", Status: rest.OrderPreparing},
	}
}

func startFeed(t *testing.T, conn *fakeConn, api *fakeAPI) *Feed {
	t.Helper()
	f := NewFeed(conn, api, "org1", "v1")
	require.NoError(t, f.Start(context.Background()))
	require.Eventually(t, func() bool { return f.Len() == len(api.orders) },
		2*time.Second, 5*time.Millisecond, "seed fetch never applied")
	return f
}

func TestStartWithoutOrganization(t *testing.T) {
	conn := newFakeConn()
	api := &fakeAPI{orders: seedOrders()}
	f := NewFeed(conn, api, "", "v1")

	require.NoError(t, f.Start(context.Background()))

	acquired, _ := conn.counts()
	assert.Zero(t, acquired, "no connection without an organization")
	assert.Zero(t, f.Len())
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Zero(t, api.listCalls, "no fetch without an organization")
}

func TestStartSeedsAndJoinsRooms(t *testing.T) {
	conn := newFakeConn()
	api := &fakeAPI{orders: seedOrders()}
	f := startFeed(t, conn, api)

	assert.Equal(t, 2, f.Len())
	conn.mu.Lock()
	rooms := conn.rooms
	conn.mu.Unlock()
	require.Len(t, rooms, 2)
	assert.Equal(t, realtime.RoomOrganization, rooms[0].Type)
	assert.Equal(t, realtime.RoomVenue, rooms[1].Type)
}

func TestNewOrderPrepended(t *testing.T) {
	conn := newFakeConn()
	api := &fakeAPI{orders: seedOrders()}
	f := startFeed(t, conn, api)

	conn.emit(t, realtime.EventNewOrder, rest.Order{ID: "ord3", VenueID: "v1", Status: rest.OrderPending})

	got := f.Orders()
	require.Len(t, got, 3)
	assert.Equal(t, "ord3", got[0].ID, "new orders are prepended")
}

func TestOrderUpdatedAppliesFields(t *testing.T) {
	conn := newFakeConn()
	api := &fakeAPI{orders: seedOrders()}
	f := startFeed(t, conn, api)

	conn.emit(t, realtime.EventOrderUpdated, realtime.OrderEvent{
		OrderID: "ord1",
		VenueID: "v1",
		Status:  string(rest.OrderReady),
		TS:      1700000000000,
	})

	o, ok := f.Get("ord1")
	require.True(t, ok)
	assert.Equal(t, rest.OrderReady, o.Status)
	assert.Equal(t, time.UnixMilli(1700000000000), o.UpdatedAt)
}

func TestUpdateForUnknownOrderDropped(t *testing.T) {
	conn := newFakeConn()
	api := &fakeAPI{orders: seedOrders()}
	f := startFeed(t, conn, api)

	conn.emit(t, realtime.EventOrderUpdated, realtime.OrderEvent{
		OrderID: "ghost",
		Status:  string(rest.OrderReady),
	})

	assert.Equal(t, 2, f.Len(), "update must not create an entry")
	_, ok := f.Get("ghost")
	assert.False(t, ok)
}

func TestOrderItemUpdated(t *testing.T) {
	conn := newFakeConn()
	api := &fakeAPI{orders: seedOrders()}
	f := startFeed(t, conn, api)

	conn.emit(t, realtime.EventOrderItemUpdated, realtime.OrderItemEvent{
		OrderID: "ord1",
		ItemID:  "it1",
		Status:  string(rest.OrderReady),
	})

	o, _ := f.Get("ord1")
	require.Len(t, o.Items, 1)
	assert.Equal(t, rest.OrderReady, o.Items[0].Status)
}

func TestOptimisticUpdateRevertedOnFailure(t *testing.T) {
	conn := newFakeConn()
	api := &fakeAPI{orders: seedOrders(), updateErr: errors.New("backend down")}
	f := startFeed(t, conn, api)

	var surfaced error
	f.OnError(func(err error) { surfaced = err })

	err := f.UpdateOrderStatus(context.Background(), "ord1", rest.OrderReady)
	require.Error(t, err)
	require.Error(t, surfaced)

	o, _ := f.Get("ord1")
	assert.Equal(t, rest.OrderPending, o.Status, "failed optimistic write must be reverted")
}

func TestServerEventDiscardsOptimisticCommand(t *testing.T) {
	conn := newFakeConn()
	api := &fakeAPI{orders: seedOrders(), updateErr: errors.New("backend down")}
	// The authoritative event lands while the REST call is in flight;
	// the later failure must not clobber it.
	api.updateHook = func() {
		conn.emit(t, realtime.EventOrderUpdated, realtime.OrderEvent{
			OrderID: "ord1",
			Status:  string(rest.OrderServed),
		})
	}
	f := startFeed(t, conn, api)

	err := f.UpdateOrderStatus(context.Background(), "ord1", rest.OrderReady)
	require.Error(t, err)

	o, _ := f.Get("ord1")
	assert.Equal(t, rest.OrderServed, o.Status, "authoritative write wins over revert")
}

func TestUpdateSucceedsKeepsOptimisticValue(t *testing.T) {
	conn := newFakeConn()
	api := &fakeAPI{orders: seedOrders()}
	f := startFeed(t, conn, api)

	require.NoError(t, f.UpdateOrderStatus(context.Background(), "ord2", rest.OrderReady))

	o, _ := f.Get("ord2")
	assert.Equal(t, rest.OrderReady, o.Status)
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, []string{"ord2"}, api.updated)
}

func TestDerivedViews(t *testing.T) {
	conn := newFakeConn()
	api := &fakeAPI{orders: []rest.Order{
		{ID: "a", TableID: "t1", Status: rest.OrderPending},
		{ID: "b", TableID: "t1", Status: rest.OrderReady},
		{ID: "c", Status: rest.OrderCompleted},
		{ID: "d", Status: rest.OrderReady},
	}}
	f := startFeed(t, conn, api)

	counts := f.CountsByStatus()
	assert.Equal(t, 2, counts[rest.OrderReady])
	assert.Equal(t, 1, counts[rest.OrderPending])
	assert.Len(t, f.Active(), 3)
	assert.Len(t, f.ByStatus(rest.OrderReady), 2)
	assert.Len(t, f.ForTable("t1"), 2)
}

func TestRestartAfterStop(t *testing.T) {
	conn := newFakeConn()
	api := &fakeAPI{orders: seedOrders()}
	f := startFeed(t, conn, api)

	f.Stop()
	seeded := make(chan struct{}, 1)
	f.OnChange(func() {
		select {
		case seeded <- struct{}{}:
		default:
		}
	})
	require.NoError(t, f.Start(context.Background()))
	select {
	case <-seeded:
	case <-time.After(2 * time.Second):
		t.Fatal("restart never re-seeded")
	}

	api.mu.Lock()
	assert.Equal(t, 2, api.listCalls)
	api.mu.Unlock()
	acquired, released := conn.counts()
	assert.Equal(t, 2, acquired, "restart must take a fresh reference")
	assert.Equal(t, 1, released)

	// The restarted feed is live again.
	conn.emit(t, realtime.EventNewOrder, rest.Order{ID: "ord3", VenueID: "v1"})
	assert.Equal(t, 3, f.Len())
}

func TestViewsDetachedFromLaterEvents(t *testing.T) {
	conn := newFakeConn()
	api := &fakeAPI{orders: seedOrders()}
	f := startFeed(t, conn, api)

	before, ok := f.Get("ord1")
	require.True(t, ok)
	list := f.Orders()

	conn.emit(t, realtime.EventOrderItemUpdated, realtime.OrderItemEvent{
		OrderID: "ord1",
		ItemID:  "it1",
		Status:  string(rest.OrderReady),
	})

	assert.Equal(t, rest.OrderPending, before.Items[0].Status,
		"snapshot must not track later item updates")
	for _, o := range list {
		if o.ID == "ord1" {
			assert.Equal(t, rest.OrderPending, o.Items[0].Status)
		}
	}

	after, _ := f.Get("ord1")
	assert.Equal(t, rest.OrderReady, after.Items[0].Status)
}

func TestStopReleasesAndDeregisters(t *testing.T) {
	conn := newFakeConn()
	api := &fakeAPI{orders: seedOrders()}
	f := startFeed(t, conn, api)

	f.Stop()

	_, released := conn.counts()
	assert.Equal(t, 1, released)

	// Events after Stop no longer mutate the collection.
	conn.emit(t, realtime.EventNewOrder, rest.Order{ID: "late"})
	assert.Equal(t, 2, f.Len())

	// A fetch landing after Stop is dropped.
	require.NoError(t, f.Refresh(context.Background()))
	assert.Equal(t, 2, f.Len())
}
