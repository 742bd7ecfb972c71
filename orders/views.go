package orders

import "github.com/medgentai/qr-code-menus-made-easy-sub004/rest"

// Derived views over the local collection. Each call recomputes from
// the current state; returned orders are detached copies, including
// their item slices, safe to keep across changes.

// cloneOrder detaches an order from the feed's backing storage. Item
// updates mutate items in place, so the slice must be copied too.
func cloneOrder(o rest.Order) rest.Order {
	if len(o.Items) > 0 {
		items := make([]rest.OrderItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}

// Orders returns the full collection, newest first.
func (f *Feed) Orders() []rest.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]rest.Order, len(f.orders))
	for i, o := range f.orders {
		out[i] = cloneOrder(o)
	}
	return out
}

// Len returns the number of tracked orders.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

// Get returns a tracked order by id.
func (f *Feed) Get(orderID string) (rest.Order, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if idx := f.indexLocked(orderID); idx >= 0 {
		return cloneOrder(f.orders[idx]), true
	}
	return rest.Order{}, false
}

// ByStatus returns the orders currently in the given status.
func (f *Feed) ByStatus(status rest.OrderStatus) []rest.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []rest.Order
	for _, o := range f.orders {
		if o.Status == status {
			out = append(out, cloneOrder(o))
		}
	}
	return out
}

// Active returns orders that have not reached a terminal status.
func (f *Feed) Active() []rest.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []rest.Order
	for _, o := range f.orders {
		if !o.Status.Terminal() {
			out = append(out, cloneOrder(o))
		}
	}
	return out
}

// CountsByStatus returns how many orders sit in each status.
func (f *Feed) CountsByStatus() map[rest.OrderStatus]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[rest.OrderStatus]int)
	for _, o := range f.orders {
		out[o.Status]++
	}
	return out
}

// ForTable returns the orders linked to a table, newest first.
func (f *Feed) ForTable(tableID string) []rest.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []rest.Order
	for _, o := range f.orders {
		if o.TableID == tableID {
			out = append(out, cloneOrder(o))
		}
	}
	return out
}
