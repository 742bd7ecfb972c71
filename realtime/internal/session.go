// Package internal holds the websocket session plumbing shared by the
// realtime manager: dialing, JSON framing, and per-operation deadlines.
package internal

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Timeouts bounds each phase of a session. Zero values disable the
// corresponding deadline.
type Timeouts struct {
	Handshake time.Duration
	Read      time.Duration
	Write     time.Duration
}

// Session is a live websocket connection carrying JSON frames with
// read and write deadlines applied per operation.
type Session struct {
	ws *websocket.Conn
	t  Timeouts
}

// Dial validates the endpoint URL and opens a websocket session,
// bounding the handshake with Timeouts.Handshake.
func Dial(ctx context.Context, rawURL string, t Timeouts) (*Session, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse realtime URL: %w", err)
	}

	dialCtx := ctx
	if t.Handshake > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, t.Handshake)
		defer cancel()
	}

	ws, _, err := websocket.Dial(dialCtx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return &Session{ws: ws, t: t}, nil
}

func (s *Session) Read(ctx context.Context, v any) error {
	if s.t.Read > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.t.Read)
		defer cancel()
	}
	return wsjson.Read(ctx, s.ws, v)
}

func (s *Session) Write(ctx context.Context, v any) error {
	if s.t.Write > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.t.Write)
		defer cancel()
	}
	return wsjson.Write(ctx, s.ws, v)
}

func (s *Session) Close(code websocket.StatusCode, reason string) error {
	return s.ws.Close(code, reason)
}
