// Package dashboard forwards bars to a display process and serves them over HTTP.
package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"go.uber.org/zap"
)

// Sink receives a one-way copy of every ingested bar.
type Sink interface {
	// Send hands bar off without blocking. It reports false when the bar was dropped.
	Send(bar types.Bar) bool
	Close() error
}

// BarMessage is the JSON line written for each bar.
type BarMessage struct {
	Venue  string    `json:"venue"`
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

func NewBarMessage(bar types.Bar) BarMessage {
	return BarMessage{
		Venue:  string(bar.Venue),
		Symbol: bar.Symbol,
		Time:   bar.Time,
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Close:  bar.Close,
		Volume: bar.Volume,
	}
}

// NewSink starts the configured dashboard process, or returns a NopSink when disabled.
func NewSink(cfg config.DashboardConfig, log *logger.Logger) (Sink, error) {
	if !cfg.Enabled {
		return NopSink{}, nil
	}

	sink, err := StartProcessSink(cfg.Command, cfg.Args, cfg.Buffer, log)
	if err != nil {
		return nil, err
	}

	return sink, nil
}

// NopSink discards everything. A discarded bar is not a drop.
type NopSink struct{}

func (NopSink) Send(types.Bar) bool { return true }

func (NopSink) Close() error { return nil }

// StreamSink writes bars as JSON lines to w from its own goroutine. Bars that do
// not fit in the buffer are dropped.
type StreamSink struct {
	w       io.WriteCloser
	logger  *logger.Logger
	mu      sync.RWMutex
	ch      chan types.Bar
	closed  bool
	done    chan struct{}
	sent    atomic.Uint64
	dropped atomic.Uint64
}

var _ Sink = (*StreamSink)(nil)

func NewStreamSink(w io.WriteCloser, buffer int, log *logger.Logger) *StreamSink {
	if buffer < 1 {
		buffer = 1
	}

	if log == nil {
		log = logger.NewNop()
	}

	s := &StreamSink{
		w:      w,
		logger: log,
		mu:     sync.RWMutex{},
		ch:     make(chan types.Bar, buffer),
		closed: false,
		done:   make(chan struct{}),
	}

	go s.loop()

	return s
}

func (s *StreamSink) loop() {
	defer close(s.done)

	enc := json.NewEncoder(s.w)
	broken := false

	for bar := range s.ch {
		if broken {
			s.dropped.Add(1)

			continue
		}

		if err := enc.Encode(NewBarMessage(bar)); err != nil {
			// Keep draining so Send never blocks on a dead reader
			s.logger.Warn("dashboard stream closed", zap.Error(err))
			s.dropped.Add(1)

			broken = true

			continue
		}

		s.sent.Add(1)
	}
}

func (s *StreamSink) Send(bar types.Bar) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.dropped.Add(1)

		return false
	}

	select {
	case s.ch <- bar:
		return true
	default:
		s.dropped.Add(1)

		return false
	}
}

// Close flushes buffered bars and closes the writer.
func (s *StreamSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return nil
	}

	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	<-s.done

	if err := s.w.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to close dashboard stream", err)
	}

	return nil
}

// Sent returns how many bars were written.
func (s *StreamSink) Sent() uint64 {
	return s.sent.Load()
}

// Dropped returns how many bars were discarded.
func (s *StreamSink) Dropped() uint64 {
	return s.dropped.Load()
}

// ProcessSink feeds a child process's stdin.
type ProcessSink struct {
	*StreamSink

	cmd    *exec.Cmd
	logger *logger.Logger
	exited chan struct{}
}

// processExitTimeout is how long Close waits for the child after its stdin closes.
const processExitTimeout = 5 * time.Second

// StartProcessSink starts command with args and streams bars to its stdin.
func StartProcessSink(command string, args []string, buffer int, log *logger.Logger) (*ProcessSink, error) {
	if log == nil {
		log = logger.NewNop()
	}

	log = log.Named("dashboard")

	cmd := exec.CommandContext(context.Background(), command, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to open dashboard stdin", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeEngineInitFailed, err, "failed to start dashboard %q", command)
	}

	log.Info("dashboard started", zap.String("command", command), zap.Int("pid", cmd.Process.Pid))

	p := &ProcessSink{
		StreamSink: NewStreamSink(stdin, buffer, log),
		cmd:        cmd,
		logger:     log,
		exited:     make(chan struct{}),
	}

	go func() {
		defer close(p.exited)

		if err := cmd.Wait(); err != nil {
			log.Warn("dashboard exited", zap.Error(err))
		}
	}()

	return p, nil
}

// Close ends the stream and waits for the child, killing it if it lingers.
func (p *ProcessSink) Close() error {
	err := p.StreamSink.Close()

	select {
	case <-p.exited:
	case <-time.After(processExitTimeout):
		p.logger.Warn("dashboard did not exit, killing it")

		_ = p.cmd.Process.Kill()

		<-p.exited
	}

	return err
}
