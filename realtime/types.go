package realtime

import "encoding/json"

const (
	ProtocolVersion = 1

	inboundHello = "hello"
	inboundJoin  = "joinRoom"
	inboundLeave = "leaveRoom"

	outboundEvent = "event"
	outboundError = "error"
)

// Server event names.
const (
	EventNewOrder          = "newOrder"
	EventOrderUpdated      = "orderUpdated"
	EventOrderItemUpdated  = "orderItemUpdated"
	EventTableUpdated      = "tableUpdated"
	EventOrderTableUpdated = "orderTableUpdated"
)

// RoomType identifies the scope of a logical room.
type RoomType string

const (
	RoomOrganization RoomType = "organization"
	RoomVenue        RoomType = "venue"
	RoomTable        RoomType = "table"
	RoomOrder        RoomType = "order"
)

func (t RoomType) known() bool {
	switch t {
	case RoomOrganization, RoomVenue, RoomTable, RoomOrder:
		return true
	}
	return false
}

// Room is a (type, id) pair the transport uses to target event delivery.
type Room struct {
	Type RoomType
	ID   string
}

// Inbound represents the envelope from client to server.
type Inbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Outbound is the envelope server -> client.
type Outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// HelloPayload initiates the session.
type HelloPayload struct {
	Protocol int    `json:"protocol,omitempty"`
	Token    string `json:"token,omitempty"`
	Session  string `json:"session,omitempty"`
}

// RoomPayload subscribes to or leaves a room.
type RoomPayload struct {
	RoomType RoomType `json:"roomType"`
	RoomID   string   `json:"roomId"`
}

// Error describes a protocol error.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Msg
}

// UnmarshalData decodes RawMessage into target.
func UnmarshalData(data json.RawMessage, v any) error {
	return json.Unmarshal(data, v)
}
