package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kangminLeo/Ironbot/internal/domain"
)

// EventHandler consumes decoded feed events.
type EventHandler interface {
	HandleVoiceState(ctx context.Context, ev domain.VoiceState)
	HandleMessage(ctx context.Context, communityID, participantID int64, bot bool)
}

// Feed is a websocket client for the gateway event stream. It reconnects with
// doubling backoff; events sent while the connection is down are simply lost,
// which the reconciliation sweep compensates for.
type Feed struct {
	url     string
	token   string
	handler EventHandler

	pingEvery  time.Duration
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewFeed(url, token string, handler EventHandler) *Feed {
	return &Feed{
		url:        url,
		token:      token,
		handler:    handler,
		pingEvery:  15 * time.Second,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Run maintains the connection until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) {
	backoff := f.minBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := f.dial(ctx)
		if err != nil {
			slog.Warn("feed: dial failed", "url", f.url, "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > f.maxBackoff {
				backoff = f.maxBackoff
			}
			continue
		}

		slog.Info("feed: connected", "url", f.url)
		backoff = f.minBackoff
		f.readLoop(ctx, conn)
		_ = conn.Close()
	}
}

func (f *Feed) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if f.token != "" {
		header.Set("Authorization", "Bearer "+f.token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, f.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

func (f *Feed) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go f.pingLoop(ctx, conn, done)

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(2 * f.pingEvery))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * f.pingEvery))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("feed: read failed", "err", err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("feed: bad frame", "err", err)
			continue
		}
		f.handle(ctx, msg)
	}
}

func (f *Feed) handle(ctx context.Context, msg Message) {
	switch msg.Type {
	case TypeVoiceState:
		var p VoiceStatePayload
		if err := decode(msg.Payload, &p); err != nil {
			slog.Debug("feed: bad voice_state payload", "err", err)
			return
		}
		f.handler.HandleVoiceState(ctx, p.toDomain())
	case TypeMessage:
		var p MessagePayload
		if err := decode(msg.Payload, &p); err != nil {
			slog.Debug("feed: bad message payload", "err", err)
			return
		}
		f.handler.HandleMessage(ctx, p.CommunityID, p.ParticipantID, p.Bot)
	default:
		// ignore
	}
}

func (f *Feed) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(f.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			_ = conn.Close()
			return
		case <-done:
			return
		}
	}
}
