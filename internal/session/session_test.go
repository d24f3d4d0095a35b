package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/log"
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// scriptedServer accepts WebSocket connections and runs script once per
// connection, with the zero-based connection index.
type scriptedServer struct {
	srv *httptest.Server

	mu    sync.Mutex
	conns int
}

func newScriptedServer(t *testing.T, script func(n int, ctx context.Context, conn *websocket.Conn)) *scriptedServer {
	t.Helper()
	s := &scriptedServer{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		s.mu.Lock()
		n := s.conns
		s.conns++
		s.mu.Unlock()
		script(n, r.Context(), conn)
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *scriptedServer) url() string { return s.srv.URL }

func (s *scriptedServer) connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

func sendFrame(ctx context.Context, conn *websocket.Conn, frame string) {
	_ = conn.Write(ctx, websocket.MessageText, []byte(frame))
}

// holdOpen blocks until the peer goes away.
func holdOpen(ctx context.Context, conn *websocket.Conn) {
	_, _, _ = conn.Read(ctx)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSessionFoldsEventStream(t *testing.T) {
	server := newScriptedServer(t, func(n int, ctx context.Context, conn *websocket.Conn) {
		sendFrame(ctx, conn, `{"type":"chat_message","id":1,"sender":"alice","message":"hi","timestamp":"t1"}`)
		sendFrame(ctx, conn, `{"type":"chat_message","id":2,"sender":"bob","message":"yo","timestamp":"t2"}`)
		sendFrame(ctx, conn, `{"type":"reaction_update","message_id":1,"emoji":"👍","sender":"bob","action":"added"}`)
		sendFrame(ctx, conn, `{"type":"user_typing","sender":"carol","is_typing":true}`)
		holdOpen(ctx, conn)
	})

	sess, err := Open(context.Background(), server.url(), "general", Options{Logger: log.Nop()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	waitFor(t, func() bool { return len(sess.Messages()) == 2 }, "messages never arrived")
	waitFor(t, func() bool { return len(sess.TypingUsers()) == 1 }, "typing signal never arrived")

	msgs := sess.Messages()
	if msgs[0].Content != "hi" || msgs[1].Content != "yo" {
		t.Fatalf("wrong order: %q, %q", msgs[0].Content, msgs[1].Content)
	}
	if len(msgs[0].Reactions) != 1 || msgs[0].Reactions[0].Emoji != "👍" {
		t.Fatalf("reaction not applied: %+v", msgs[0].Reactions)
	}
	if sess.Status() != StatusOpen {
		t.Fatalf("expected open, got %v", sess.Status())
	}
}

func TestSessionSkipsUnknownAndMalformedFrames(t *testing.T) {
	server := newScriptedServer(t, func(n int, ctx context.Context, conn *websocket.Conn) {
		sendFrame(ctx, conn, `{"type":"server_gossip","detail":"?"}`)
		sendFrame(ctx, conn, `{not json`)
		sendFrame(ctx, conn, `{"type":"chat_message","id":1,"sender":"alice","message":"still here","timestamp":"t1"}`)
		holdOpen(ctx, conn)
	})

	sess, err := Open(context.Background(), server.url(), "general", Options{Logger: log.Nop()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	waitFor(t, func() bool { return len(sess.Messages()) == 1 }, "valid frame after junk never applied")
	if sess.Status() != StatusOpen {
		t.Fatalf("junk frames must not kill the connection, status %v", sess.Status())
	}
}

func TestSessionSendAfterCloseIsSilentlyDropped(t *testing.T) {
	server := newScriptedServer(t, func(n int, ctx context.Context, conn *websocket.Conn) {
		holdOpen(ctx, conn)
	})

	sess, err := Open(context.Background(), server.url(), "general", Options{Logger: log.Nop()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if sess.Status() != StatusClosed {
		t.Fatalf("expected closed, got %v", sess.Status())
	}

	if err := sess.Send(context.Background(), proto.NewTyping("alice", true)); err != nil {
		t.Fatalf("send on closed session must be a silent no-op, got %v", err)
	}
}

func TestSessionReconnectsAndClearsTypingRoster(t *testing.T) {
	server := newScriptedServer(t, func(n int, ctx context.Context, conn *websocket.Conn) {
		switch n {
		case 0:
			sendFrame(ctx, conn, `{"type":"chat_message","id":1,"sender":"alice","message":"hi","timestamp":"t1"}`)
			sendFrame(ctx, conn, `{"type":"user_typing","sender":"bob","is_typing":true}`)
			time.Sleep(100 * time.Millisecond)
			conn.CloseNow() // simulate an abnormal drop
		default:
			sendFrame(ctx, conn, `{"type":"chat_message","id":2,"sender":"alice","message":"back","timestamp":"t2"}`)
			holdOpen(ctx, conn)
		}
	})

	sess, err := Open(context.Background(), server.url(), "general", Options{
		Logger: log.Nop(),
		Reconnect: config.ReconnectConfig{
			Enabled:         true,
			InitialInterval: 20 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			MaxElapsedTime:  5 * time.Second,
		},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	waitFor(t, func() bool { return len(sess.TypingUsers()) == 1 }, "typing never arrived on first connection")
	waitFor(t, func() bool { return len(sess.Messages()) == 2 }, "message never arrived after reconnect")

	if server.connections() < 2 {
		t.Fatalf("expected a reconnect, saw %d connections", server.connections())
	}
	// bob's stop signal was lost with the old connection; the roster must
	// not pretend to know better.
	if users := sess.TypingUsers(); len(users) != 0 {
		t.Fatalf("roster must be cleared on reconnect, got %v", users)
	}
	// History survives the drop; no events are replayed.
	msgs := sess.Messages()
	if msgs[0].ID != 1 || msgs[1].ID != 2 {
		t.Fatalf("history wrong after reconnect: %+v", msgs)
	}
	if sess.Status() != StatusOpen {
		t.Fatalf("expected open after reconnect, got %v", sess.Status())
	}
}

func TestSessionStaysClosedWhenReconnectDisabled(t *testing.T) {
	server := newScriptedServer(t, func(n int, ctx context.Context, conn *websocket.Conn) {
		sendFrame(ctx, conn, `{"type":"chat_message","id":1,"sender":"alice","message":"hi","timestamp":"t1"}`)
		time.Sleep(50 * time.Millisecond)
		conn.CloseNow()
	})

	sess, err := Open(context.Background(), server.url(), "general", Options{Logger: log.Nop()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	waitFor(t, func() bool { return sess.Status() == StatusClosed }, "session never noticed the drop")

	if server.connections() != 1 {
		t.Fatalf("no retry expected, saw %d connections", server.connections())
	}
	// State survives for reading even though the session is dead.
	if len(sess.Messages()) != 1 {
		t.Fatalf("history should remain readable, got %d messages", len(sess.Messages()))
	}
}

func TestOpenFailsFastWhenServerUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Open(ctx, "ws://127.0.0.1:1", "general", Options{Logger: log.Nop()})
	if err == nil {
		t.Fatal("expected dial error")
	}
}

func TestRoomEndpointEscapesRoomName(t *testing.T) {
	got := roomEndpoint("ws://host:8000/", "my room")
	want := "ws://host:8000/ws/chat/my%20room/"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
