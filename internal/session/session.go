package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/room"
	"github.com/vovakirdan/wirechat-client/internal/typing"
)

// readLimit caps a single inbound frame.
const readLimit = 1 << 20

// Options tunes session construction.
type Options struct {
	// Header is attached to the WebSocket dial, e.g. an Authorization
	// bearer. Nil is fine.
	Header http.Header
	// Clock drives roster expiry; nil means the real clock.
	Clock clock.Clock
	// TypingTTL prunes stale remote typing entries; zero disables.
	TypingTTL time.Duration
	// Reconnect bounds automatic redial after a drop.
	Reconnect config.ReconnectConfig
	Logger    *zerolog.Logger
}

// Session owns one persistent connection to one room and folds its event
// stream into local room state. It is a scoped resource: construct with
// Open, dispose with Close. Switching rooms means closing the old session
// and opening a new one; nothing carries over.
type Session struct {
	id       string
	roomName string
	endpoint string
	header   http.Header
	recfg    config.ReconnectConfig
	log      zerolog.Logger

	state  *room.State
	roster *typing.Roster

	mu     sync.Mutex
	conn   *websocket.Conn
	status Status

	notify chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
}

// Open dials the room endpoint and starts the read loop. The returned
// session stays alive until Close is called, ctx is cancelled, or the
// reconnect budget is exhausted after a drop.
func Open(ctx context.Context, baseURL, roomName string, opts Options) (*Session, error) {
	if roomName == "" {
		return nil, errors.New("room name is required")
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	id := uuid.NewString()
	s := &Session{
		id:       id,
		roomName: roomName,
		endpoint: roomEndpoint(baseURL, roomName),
		header:   opts.Header,
		recfg:    opts.Reconnect,
		log:      logger.With().Str("session_id", id).Str("room", roomName).Logger(),
		state:    room.NewState(),
		roster:   typing.NewRoster(clk, opts.TypingTTL),
		status:   StatusConnecting,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	ctx, s.cancel = context.WithCancel(ctx)

	if err := s.dial(ctx); err != nil {
		s.cancel()
		close(s.done)
		s.setStatus(StatusClosed)
		return nil, fmt.Errorf("open room %q: %w", roomName, err)
	}

	go s.run(ctx)
	return s, nil
}

// Room returns the room this session is bound to.
func (s *Session) Room() string { return s.roomName }

// Status reports current connectivity.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Messages returns the room history snapshot in display order.
func (s *Session) Messages() []room.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Messages()
}

// Message returns one message by id, if the client has seen it.
func (s *Session) Message(id int64) (room.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Get(id)
}

// TypingUsers lists remote users currently typing.
func (s *Session) TypingUsers() []string {
	return s.roster.Users()
}

// Changed delivers a coalesced signal whenever room state or typing
// presence moves, so a UI can redraw without polling.
func (s *Session) Changed() <-chan struct{} { return s.notify }

// Done closes when the session has fully stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Send transmits one outbound envelope. When the session is not open the
// envelope is silently dropped: nothing is queued and no error is
// returned, so callers must treat delivery as best-effort.
func (s *Session) Send(ctx context.Context, envelope any) error {
	s.mu.Lock()
	conn := s.conn
	open := s.status == StatusOpen
	s.mu.Unlock()

	if !open || conn == nil {
		s.log.Debug().Msg("send dropped: session not open")
		return nil
	}
	if err := wsjson.Write(ctx, conn, envelope); err != nil {
		return fmt.Errorf("send envelope: %w", err)
	}
	return nil
}

// Close tears the session down: the connection is closed, the read loop
// stops, and status becomes closed. Safe to call more than once.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.mu.Lock()
		conn := s.conn
		s.conn = nil
		s.status = StatusClosed
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "leaving room")
		}
	})
	<-s.done
	return nil
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.setStatus(StatusClosed)
	defer func() {
		s.mu.Lock()
		conn := s.conn
		s.conn = nil
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "session stopped")
		}
	}()

	for {
		err := s.readLoop(ctx)
		if ctx.Err() != nil {
			return
		}
		s.log.Warn().Err(err).Msg("connection lost")

		if !s.recfg.Enabled {
			return
		}
		if err := s.redial(ctx); err != nil {
			s.log.Error().Err(err).Msg("reconnect budget exhausted")
			return
		}
	}
}

func (s *Session) readLoop(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errors.New("no connection")
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		s.dispatch(data)
	}
}

// dispatch decodes one frame and hands it to the reducer or the typing
// roster. Frames arrive and apply strictly in order; malformed or unknown
// frames are logged and skipped, never fatal.
func (s *Session) dispatch(data []byte) {
	ev, err := proto.DecodeServerEvent(data)
	if err != nil {
		if errors.Is(err, proto.ErrUnknownEvent) {
			s.log.Debug().Err(err).Msg("ignoring unknown event")
		} else {
			s.log.Warn().Err(err).Msg("ignoring malformed event")
		}
		return
	}

	switch ev := ev.(type) {
	case proto.TypingChanged:
		s.roster.Set(ev.Sender, ev.Typing)
		s.signal()
	default:
		s.mu.Lock()
		changed := s.state.Apply(ev)
		s.mu.Unlock()
		if changed {
			s.signal()
		}
	}
}

func (s *Session) dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, s.endpoint, &websocket.DialOptions{
		HTTPHeader: s.header,
	})
	if err != nil {
		return err
	}
	conn.SetReadLimit(readLimit)

	s.mu.Lock()
	s.conn = conn
	s.status = StatusOpen
	s.mu.Unlock()

	s.log.Info().Str("endpoint", s.endpoint).Msg("connected")
	s.signal()
	return nil
}

// redial retries the dial with bounded exponential backoff. Stop signals
// sent by other users while we were away are gone for good, so the
// typing roster is cleared rather than trusted. Missed message events
// are not recovered either; delivery is not guaranteed across a drop.
func (s *Session) redial(ctx context.Context) error {
	s.setStatus(StatusConnecting)
	s.roster.Clear()
	s.signal()

	bo := backoff.NewExponentialBackOff()
	if s.recfg.InitialInterval > 0 {
		bo.InitialInterval = s.recfg.InitialInterval
	}
	if s.recfg.MaxInterval > 0 {
		bo.MaxInterval = s.recfg.MaxInterval
	}
	bo.MaxElapsedTime = s.recfg.MaxElapsedTime

	attempt := 0
	operation := func() error {
		attempt++
		s.log.Info().Int("attempt", attempt).Msg("reconnecting")
		return s.dial(ctx)
	}
	return backoff.Retry(operation, backoff.WithContext(bo, ctx))
}

func (s *Session) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
	s.signal()
}

// signal coalesces change notifications; a full channel already promises
// a wakeup.
func (s *Session) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func roomEndpoint(baseURL, roomName string) string {
	return fmt.Sprintf("%s/ws/chat/%s/", strings.TrimRight(baseURL, "/"), url.PathEscape(roomName))
}
