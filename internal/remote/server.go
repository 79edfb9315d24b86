// Package remote exposes a plugin controller over a websocket so a browser
// or script can watch and change parameters while audio runs.
package remote

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-comp/plugin"
)

const (
	// DefaultInterval is how often an idle connection receives a snapshot.
	DefaultInterval = 100 * time.Millisecond

	writeWait = 5 * time.Second
)

// Meter reports the current gain reduction. *plugin.Processor implements it.
type Meter interface {
	GainReductionDB() float64
}

// Server serves the control surface. It implements http.Handler; mount it
// on the websocket path.
type Server struct {
	ctrl     *plugin.Controller
	meter    Meter
	interval time.Duration
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	closing   chan struct{}
	closeOnce sync.Once
	conns     sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithInterval sets the snapshot period. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a control surface for ctrl. meter may be nil.
func NewServer(ctrl *plugin.Controller, meter Meter, opts ...Option) *Server {
	s := &Server{
		ctrl:     ctrl,
		meter:    meter,
		interval: DefaultInterval,
		log:      logrus.StandardLogger(),
		closing:  make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	return s
}

// checkOrigin accepts requests without an Origin header, same-host origins
// and loopback origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err == nil {
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		switch u.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return true
		}
	}

	s.log.WithField("origin", origin).Warn("rejected websocket origin")
	return false
}

// Close disconnects all clients and waits for their handlers to return.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.closing) })
	s.conns.Wait()
}

// ServeHTTP upgrades the request and runs the session until the client
// leaves or the server is closed.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.closing:
		http.Error(w, "server closing", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		s.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	s.conns.Add(1)
	defer s.conns.Done()

	log := s.log.WithField("remote", r.RemoteAddr)
	log.Info("control client connected")

	s.session(conn, log)

	if err := conn.Close(); err != nil {
		log.WithError(err).Debug("closing websocket")
	}
	log.Info("control client disconnected")
}

func (s *Server) session(conn *websocket.Conn, log logrus.FieldLogger) {
	replies := make(chan error)
	done := make(chan struct{})
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var cmd Command
			if err := json.Unmarshal(data, &cmd); err != nil {
				err = &decodeError{err}
				select {
				case replies <- err:
				case <-quit:
					return
				}
				continue
			}

			err = cmd.apply(s.ctrl)
			if err != nil {
				log.WithError(err).Debug("rejected control command")
			}
			select {
			case replies <- err:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if err := s.write(conn, snapshot(s.ctrl, s.meter)); err != nil {
		return
	}

	for {
		var msg any

		select {
		case <-done:
			return
		case <-s.closing:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
				time.Now().Add(writeWait))
			return
		case err := <-replies:
			if err != nil {
				msg = ErrorMessage{Error: err.Error()}
			} else {
				msg = snapshot(s.ctrl, s.meter)
			}
		case <-ticker.C:
			msg = snapshot(s.ctrl, s.meter)
		}

		if err := s.write(conn, msg); err != nil {
			log.WithError(err).Debug("websocket write failed")
			return
		}
	}
}

func (s *Server) write(conn *websocket.Conn, msg any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "remote: malformed command: " + e.err.Error() }

func (e *decodeError) Unwrap() error { return e.err }
