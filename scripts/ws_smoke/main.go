// Command ws_smoke is a quick end-to-end check against a running chat
// server: join a room, send one message, and wait for it to come back
// through the event stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/session"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "ws://localhost:8000", "WebSocket base URL")
	user := flag.String("user", "smoke-tester", "sender name")
	roomName := flag.String("room", "general", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sess, err := session.Open(ctx, *server, *roomName, session.Options{})
	if err != nil {
		return err
	}
	defer sess.Close()

	start := time.Now()
	if err := sess.Send(ctx, proto.NewMessage(*user, *text, nil)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("message never echoed back: %w", ctx.Err())
		case <-sess.Changed():
		}
		for _, msg := range sess.Messages() {
			if msg.Sender == *user && msg.Content == *text {
				fmt.Printf("ok: round trip in %v (message id %d)\n", time.Since(start), msg.ID)
				return nil
			}
		}
	}
}
