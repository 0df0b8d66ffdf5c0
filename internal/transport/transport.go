package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/deathcards/tableclient/pkg/types"
)

// Handler receives the raw payload of one named server event.
type Handler func(payload json.RawMessage)

// Bus is the narrow subscription surface consumed by the rest of the
// client. The returned func unsubscribes the handler.
type Bus interface {
	On(event string, fn Handler) (off func())
}

// Subscriber is a persistent WebSocket connection that fans server-pushed
// events out to in-process handlers keyed by event name. The registry
// works without a live connection, so tests can dispatch directly.
type Subscriber struct {
	url string
	log *zap.Logger

	mu       sync.Mutex
	nextID   int
	handlers map[string]map[int]Handler
	conn     *websocket.Conn

	done chan struct{}
}

// New builds a subscriber for the given socket URL. Connect must be called
// before any events arrive.
func New(url string, log *zap.Logger) *Subscriber {
	return &Subscriber{
		url:      url,
		log:      log,
		handlers: make(map[string]map[int]Handler),
		done:     make(chan struct{}),
	}
}

// On registers a handler for a named event and returns its unsubscribe func.
func (s *Subscriber) On(event string, fn Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	if s.handlers[event] == nil {
		s.handlers[event] = make(map[int]Handler)
	}
	s.handlers[event][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers[event], id)
	}
}

// Connect dials the server and starts the read loop.
func (s *Subscriber) Connect(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, s.url, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	go s.readLoop(ctx, conn)
	return nil
}

// Done is closed once the read loop exits.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Close tears the connection down. Safe to call more than once.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close(websocket.StatusNormalClosure, "bye")
}

func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer close(s.done)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				s.log.Info("conexión cerrada por el servidor")
			default:
				if !errors.Is(err, context.Canceled) {
					s.log.Warn("lectura del socket falló", zap.Error(err))
				}
			}
			return
		}
		s.Dispatch(data)
	}
}

// Dispatch parses one raw envelope and invokes every handler registered for
// its event name. Unknown events are ignored.
func (s *Subscriber) Dispatch(raw []byte) {
	var env types.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.log.Warn("mensaje del servidor ilegible", zap.Error(err))
		return
	}
	if env.Event == "" {
		return
	}

	s.mu.Lock()
	fns := make([]Handler, 0, len(s.handlers[env.Event]))
	for _, fn := range s.handlers[env.Event] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if len(fns) == 0 {
		s.log.Debug("evento sin suscriptores", zap.String("evento", env.Event))
		return
	}
	for _, fn := range fns {
		fn(env.Payload)
	}
}
