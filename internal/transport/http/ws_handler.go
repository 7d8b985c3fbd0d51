package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"certprep/internal/app"
	"certprep/internal/domain"
	"certprep/pkg/logger"
	"certprep/pkg/metrics"
	"github.com/gorilla/websocket"
)

// maxContentBytes bounds inline question files sent over the socket.
const maxContentBytes = 8 << 20

// WSHandler runs one quiz flow per websocket connection.
type WSHandler struct {
	loader   *app.Loader
	board    *app.Leaderboard
	log      logger.Logger
	metrics  *metrics.Recorder
	upgrader websocket.Upgrader
}

func NewWSHandler(loader *app.Loader, board *app.Leaderboard, log logger.Logger, rec *metrics.Recorder, allowedOrigins []string) *WSHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &WSHandler{
		loader:  loader,
		board:   board,
		log:     log,
		metrics: rec,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type loadPayload struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type selectPayload struct {
	Key string `json:"key"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

var errUnsupported = errors.New("unsupported message type")

// ServeWS upgrades HTTP requests to websockets and drives a Flow from client intents.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "ws upgrade failed", logger.Error(err))
		return
	}
	conn.SetReadLimit(maxContentBytes + 4096)
	h.serve(r.Context(), conn)
}

// wsConn is the part of *websocket.Conn used by serve.
type wsConn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// serve runs the read loop until the client goes away or a write fails.
// A failed write closes the connection so the pending read returns too.
func (h *WSHandler) serve(ctx context.Context, conn wsConn) {
	defer conn.Close()
	flow := app.NewFlow(h.board, app.WithFlowLogger(h.log), app.WithFlowMetrics(h.metrics))

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug(ctx, "ws write error", logger.Error(err))
				_ = conn.Close()
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	for ok := push(stateMessage(flow)); ok; {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.apply(ctx, flow, inbound); err != nil {
			ok = push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			continue
		}
		ok = push(stateMessage(flow))
	}

	close(send)
	<-writerDone
}

// apply translates one intent into a flow event. Errors are protocol errors
// only; load failures become part of the state.
func (h *WSHandler) apply(ctx context.Context, flow *app.Flow, msg inboundMessage) error {
	var ev app.Event
	switch msg.Type {
	case "load":
		var p loadPayload
		if err := decodePayload(msg.Payload, &p); err != nil || (p.Name == "" && p.Content == "") {
			return errors.New("invalid load payload")
		}
		if len(p.Content) > maxContentBytes {
			return errors.New("question file too large")
		}
		if flow.State().Screen != app.ScreenHome {
			return nil
		}
		questions, err := h.load(ctx, p)
		if err != nil {
			ev = app.LoadFailed{Err: err}
		} else {
			ev = app.Loaded{Questions: questions}
		}
	case "select":
		var p selectPayload
		if err := decodePayload(msg.Payload, &p); err != nil || p.Key == "" {
			return errors.New("invalid select payload")
		}
		ev = app.SelectOption{Key: p.Key}
	case "submit":
		ev = app.Submit{}
	case "explain":
		ev = app.RevealExplanation{}
	case "next":
		ev = app.Next{}
	case "retry":
		ev = app.RetryIncorrect{}
	case "home":
		ev = app.GoHome{}
	case "leaderboard":
		ev = app.OpenLeaderboard{}
	case "back":
		ev = app.CloseLeaderboard{}
	case "clear":
		ev = app.ClearLeaderboard{}
	default:
		return errUnsupported
	}
	flow.Dispatch(ctx, ev)
	return nil
}

func (h *WSHandler) load(ctx context.Context, p loadPayload) ([]domain.Question, error) {
	if p.Content != "" {
		return h.loader.Parse(ctx, []byte(p.Content))
	}
	return h.loader.Load(ctx, p.Name)
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	return json.Unmarshal(raw, dst)
}

func stateMessage(flow *app.Flow) outboundMessage[any] {
	return outboundMessage[any]{Type: "state", Payload: NewStateView(flow.State())}
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(strings.TrimSuffix(o, "/"), origin) {
				return true
			}
		}
		return false
	}
}
