package rest

import "time"

// Order lifecycle

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderPreparing OrderStatus = "PREPARING"
	OrderReady     OrderStatus = "READY"
	OrderServed    OrderStatus = "SERVED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether the status ends the order lifecycle.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// TableStatus represents the occupancy state of a table.
type TableStatus string

const (
	TableAvailable    TableStatus = "AVAILABLE"
	TableOccupied     TableStatus = "OCCUPIED"
	TableReserved     TableStatus = "RESERVED"
	TableOutOfService TableStatus = "OUT_OF_SERVICE"
)

// Authentication types

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse contains the token returned after authentication.
type TokenResponse struct {
	Token string `json:"token"`
}

// Tenancy types

// Organization is a tenant owning venues.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Plan      string    `json:"plan,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Venue is a physical location under an organization.
type Venue struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Address        string    `json:"address,omitempty"`
	Timezone       string    `json:"timezone,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Menu is a published menu for a venue.
type Menu struct {
	ID        string    `json:"id"`
	VenueID   string    `json:"venueId"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Order types

// OrderItem is a line item on an order.
type OrderItem struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	UnitPrice string      `json:"unitPrice"`
	Status    OrderStatus `json:"status"`
	Notes     string      `json:"notes,omitempty"`
}

// Order is the server's view of a guest order.
type Order struct {
	ID         string      `json:"id"`
	VenueID    string      `json:"venueId"`
	TableID    string      `json:"tableId,omitempty"`
	GuestName  string      `json:"guestName,omitempty"`
	GuestCount int         `json:"guestCount,omitempty"`
	Status     OrderStatus `json:"status"`
	Items      []OrderItem `json:"items,omitempty"`
	Total      string      `json:"total,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// UpdateOrderStatusRequest changes an order's lifecycle state.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// UpdateOrderItemStatusRequest changes a line item's state.
type UpdateOrderItemStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// Table types

// Table is a seatable unit inside a venue.
type Table struct {
	ID             string      `json:"id"`
	VenueID        string      `json:"venueId"`
	Name           string      `json:"name"`
	Capacity       int         `json:"capacity"`
	GuestCount     int         `json:"guestCount"`
	Status         TableStatus `json:"status"`
	CurrentOrderID string      `json:"currentOrderId,omitempty"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// UpdateTableRequest patches mutable table fields. Nil fields are
// left unchanged by the server.
type UpdateTableRequest struct {
	Status         *TableStatus `json:"status,omitempty"`
	GuestCount     *int         `json:"guestCount,omitempty"`
	CurrentOrderID *string      `json:"currentOrderId,omitempty"`
}

// QR code types

// QRCode links a physical table to the venue menu.
type QRCode struct {
	ID        string    `json:"id"`
	VenueID   string    `json:"venueId"`
	TableID   string    `json:"tableId"`
	URL       string    `json:"url"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateQRCodeRequest is the request body for minting a table QR code.
type CreateQRCodeRequest struct {
	TableID string `json:"tableId"`
	Label   string `json:"label,omitempty"`
}

// Billing types

// Subscription summarizes an organization's billing state.
type Subscription struct {
	OrganizationID string     `json:"organizationId"`
	Plan           string     `json:"plan"`
	Status         string     `json:"status"`
	VenueLimit     int        `json:"venueLimit"`
	RenewsAt       *time.Time `json:"renewsAt,omitempty"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
