package host

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gavelworks/gavel/internal/platform/metrics"
)

const (
	sessionSendBuffer = 64
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = 50 * time.Second
	maxMessageSize    = 4096
)

// session is one connected websocket client. Outbound frames flow through a
// buffered channel drained by a dedicated writer goroutine; a full buffer
// counts as a failed offer and the caller decides whether to retry.
type session struct {
	conn *websocket.Conn
	out  chan []byte
	once sync.Once
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.out)
	})
}

// offer enqueues a frame without blocking the apply loop.
func (s *session) offer(frame []byte) bool {
	select {
	case s.out <- frame:
		return true
	default:
		return false
	}
}

func (s *session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// inbound carries a client frame into the apply loop together with the
// session that sent it, so replies can target the right connection.
type inbound struct {
	from  *session
	frame []byte
}

// hub owns the session set and implements the reply/broadcast sink the wire
// responder writes to. The sessions map is guarded by a mutex because
// register and unregister happen on connection goroutines while Reply and
// Broadcast run on the apply loop.
type hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader
	inbound  chan inbound

	// done unblocks read loops parked on a full inbound channel once the
	// apply loop has stopped draining it.
	done     chan struct{}
	doneOnce sync.Once

	mu       sync.Mutex
	sessions map[*session]struct{}

	// current is the session whose command is being applied. It is only
	// touched by the apply loop.
	current *session
}

func newHub(log zerolog.Logger) *hub {
	return &hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		inbound:  make(chan inbound, 256),
		done:     make(chan struct{}),
		sessions: make(map[*session]struct{}),
	}
}

func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	s := &session{
		conn: conn,
		out:  make(chan []byte, sessionSendBuffer),
	}

	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
	metrics.SessionOpened()
	h.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("session opened")

	go s.writeLoop()
	h.readLoop(s)
}

func (h *hub) readLoop(s *session) {
	defer h.drop(s)

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn().Err(err).Msg("session read")
			}
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		if !h.enqueue(s, frame) {
			return
		}
	}
}

// enqueue hands a frame to the apply loop. It reports false once the hub has
// shut down and nothing drains the inbound channel anymore.
func (h *hub) enqueue(s *session, frame []byte) bool {
	select {
	case h.inbound <- inbound{from: s, frame: frame}:
		return true
	case <-h.done:
		return false
	}
}

// shutdown releases read loops blocked on enqueue.
func (h *hub) shutdown() {
	h.doneOnce.Do(func() { close(h.done) })
}

func (h *hub) drop(s *session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; ok {
		delete(h.sessions, s)
		metrics.SessionClosed()
	}
	h.mu.Unlock()
	s.close()
	h.log.Info().Msg("session closed")
}

// setCurrent marks the session whose command the apply loop is handling.
func (h *hub) setCurrent(s *session) { h.current = s }

// Reply offers a frame to the session that issued the command in flight.
// The offer happens under the lock: a session still present in the map has
// not been closed yet, and drop cannot close it until the lock is released.
func (h *hub) Reply(frame []byte) bool {
	if h.current == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, alive := h.sessions[h.current]; !alive {
		return false
	}
	return h.current.offer(frame)
}

// Broadcast offers a frame to every connected session. Sessions that cannot
// keep up are disconnected rather than allowed to stall the apply loop.
func (h *hub) Broadcast(frame []byte) bool {
	h.mu.Lock()
	var stalled []*session
	for s := range h.sessions {
		if !s.offer(frame) {
			stalled = append(stalled, s)
		}
	}
	h.mu.Unlock()
	for _, s := range stalled {
		h.log.Warn().Msg("dropping slow session")
		h.drop(s)
	}
	return true
}

func (h *hub) closeAll() {
	h.mu.Lock()
	sessions := make([]*session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()
	for _, s := range sessions {
		h.drop(s)
	}
}
