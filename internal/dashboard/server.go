package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/window"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"go.uber.org/zap"
)

// clientBuffer is how many bars a slow websocket client may fall behind.
const clientBuffer = 256

// Server keeps the latest bars per symbol and pushes new ones to websocket clients.
type Server struct {
	history  int
	logger   *logger.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	bars    map[string]*window.Window[BarMessage]
	clients map[*websocket.Conn]chan BarMessage

	server   *http.Server
	listener net.Listener
}

func NewServer(history int, log *logger.Logger) *Server {
	if history < 1 {
		history = 1
	}

	if log == nil {
		log = logger.NewNop()
	}

	//nolint:exhaustruct // Upgrader has many optional fields
	return &Server{
		history: history,
		logger:  log.Named("dashboard"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		bars:    make(map[string]*window.Window[BarMessage]),
		clients: make(map[*websocket.Conn]chan BarMessage),
	}
}

// Ingest reads JSON lines from r until EOF or ctx is cancelled. Malformed lines are skipped.
func (s *Server) Ingest(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg BarMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			s.logger.Warn("skipping malformed bar", zap.Error(err))

			continue
		}

		s.Add(msg)
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStreamFailed, "failed to read bar stream", err)
	}

	return nil
}

// Add records msg and broadcasts it.
func (s *Server) Add(msg BarMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.bars[msg.Symbol]
	if !ok {
		w = window.New[BarMessage](s.history)
		s.bars[msg.Symbol] = w
	}

	w.Push(msg)

	for conn, ch := range s.clients {
		select {
		case ch <- msg:
		default:
			s.logger.Debug("dropping bar for slow client", zap.String("remote", conn.RemoteAddr().String()))
		}
	}
}

// Symbols returns the known symbols in sorted order.
func (s *Server) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]string, 0, len(s.bars))
	for symbol := range s.bars {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

// Bars returns the retained bars for symbol, oldest first.
func (s *Server) Bars(symbol string) []BarMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.bars[symbol]
	if !ok {
		return []BarMessage{}
	}

	return w.Values()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", s.handleIndex).Methods("GET")
	router.HandleFunc("/api/symbols", s.handleSymbols).Methods("GET")
	router.HandleFunc("/api/bars/{symbol:.+}", s.handleBars).Methods("GET")
	router.HandleFunc("/ws", s.handleWebSocket)

	return router
}

// Start listens on address and serves in the background.
func (s *Server) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeEngineInitFailed, err, "failed to listen on %s", address)
	}

	s.listener = listener

	//nolint:exhaustruct // http.Server has many optional fields
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("dashboard server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("dashboard listening", zap.String("address", listener.Addr().String()))

	return nil
}

// Address returns the listening address, or "" before Start.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Stop disconnects clients and shuts the server down.
func (s *Server) Stop() error {
	s.mu.Lock()
	for conn, ch := range s.clients {
		close(ch)
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeUnitFailed, "failed to stop dashboard server", err)
	}

	return nil
}

func (s *Server) handleSymbols(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.Symbols())
}

func (s *Server) handleBars(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	s.mu.RLock()
	_, ok := s.bars[symbol]
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "unknown symbol", http.StatusNotFound)

		return
	}

	writeJSON(w, s.Bars(symbol))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))

		return
	}

	ch := make(chan BarMessage, clientBuffer)

	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()

	// Reader only notices when the client goes away
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.removeClient(conn)

				return
			}
		}
	}()

	defer conn.Close()

	for msg := range ch {
		if err := conn.WriteJSON(msg); err != nil {
			s.removeClient(conn)

			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.clients[conn]; ok {
		close(ch)
		delete(s.clients, conn)
	}
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.clients)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, indexPage)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

const indexPage = `<!doctype html>
<html>
<head><title>argo-router</title></head>
<body>
<h1>Live bars</h1>
<table border="1" cellpadding="4">
<thead><tr><th>Venue</th><th>Symbol</th><th>Time</th><th>Open</th><th>High</th><th>Low</th><th>Close</th><th>Volume</th></tr></thead>
<tbody id="bars"></tbody>
</table>
<script>
const rows = document.getElementById("bars");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (event) => {
  const b = JSON.parse(event.data);
  const tr = document.createElement("tr");
  for (const v of [b.venue, b.symbol, b.time, b.open, b.high, b.low, b.close, b.volume]) {
    const td = document.createElement("td");
    td.textContent = v;
    tr.appendChild(td);
  }
  rows.prepend(tr);
  while (rows.children.length > 200) rows.removeChild(rows.lastChild);
};
</script>
</body>
</html>
`
