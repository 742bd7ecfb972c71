package realtime

// OrderEvent is the payload of orderUpdated and orderTableUpdated
// events: a delta against an order the client already holds.
type OrderEvent struct {
	OrderID    string `json:"orderId"`
	VenueID    string `json:"venueId"`
	TableID    string `json:"tableId,omitempty"`
	Status     string `json:"status"`
	GuestCount int    `json:"guestCount,omitempty"`
	Message    string `json:"message,omitempty"`
	TS         int64  `json:"ts"`
}

// OrderItemEvent is the payload of orderItemUpdated events.
type OrderItemEvent struct {
	OrderID string `json:"orderId"`
	ItemID  string `json:"itemId"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	TS      int64  `json:"ts"`
}

// TableEvent is the payload of tableUpdated and orderTableUpdated
// events. CurrentOrderID links the table to its active order and may
// be empty when the table is cleared.
type TableEvent struct {
	TableID        string `json:"tableId"`
	VenueID        string `json:"venueId"`
	Status         string `json:"status"`
	GuestCount     int    `json:"guestCount"`
	CurrentOrderID string `json:"currentOrderId,omitempty"`
	Message        string `json:"message,omitempty"`
	TS             int64  `json:"ts"`
}
