package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/menta2k/labelkit/internal/logger"
	"github.com/menta2k/labelkit/pkg/labels"
)

const (
	progressBuffer = 64
	writeWait      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// progressHub fans label progress out to the websocket clients of each session
type progressHub struct {
	mu   sync.Mutex
	subs map[string]map[chan labels.Progress]struct{}
}

func newProgressHub() *progressHub {
	return &progressHub{subs: make(map[string]map[chan labels.Progress]struct{})}
}

// subscribe returns a channel of progress for session id and a func that unsubscribes
func (h *progressHub) subscribe(id string) (<-chan labels.Progress, func()) {
	ch := make(chan labels.Progress, progressBuffer)
	h.mu.Lock()
	if h.subs[id] == nil {
		h.subs[id] = make(map[chan labels.Progress]struct{})
	}
	h.subs[id][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id][ch]; ok {
			delete(h.subs[id], ch)
			close(ch)
			if len(h.subs[id]) == 0 {
				delete(h.subs, id)
			}
		}
	}
}

// publisher returns a ProgressFunc for session id. Slow clients miss updates rather than
// holding up the batch.
func (h *progressHub) publisher(id string) labels.ProgressFunc {
	return func(p labels.Progress) {
		h.mu.Lock()
		defer h.mu.Unlock()
		for ch := range h.subs[id] {
			select {
			case ch <- p:
			default:
			}
		}
	}
}

// closeSession ends every stream of session id
func (h *progressHub) closeSession(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[id] {
		close(ch)
	}
	delete(h.subs, id)
}

func (h *progressHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, id)
	}
}

// sessionProgress streams the progress of a label session as JSON messages
func (s *Server) sessionProgress(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.deps.Sessions.Get(id); !ok {
		fail(c, sessionNotFound(id))
		return
	}

	// subscribe before the handshake so nothing published after it is missed
	updates, unsubscribe := s.progress.subscribe(id)
	defer unsubscribe()

	log := logger.FromContext(c.Request.Context()).With(zap.String("session", id))
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("failed to upgrade to websocket", zap.Error(err))
		return
	}
	defer conn.Close()
	log.Debug("progress client connected")

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			log.Debug("progress client disconnected")
			return
		case p, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := conn.WriteJSON(p); err != nil {
				log.Debug("progress write failed", zap.Error(err))
				return
			}
		}
	}
}
