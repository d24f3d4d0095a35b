package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/auth"
	"github.com/vovakirdan/wirechat-client/internal/compose"
	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/room"
	"github.com/vovakirdan/wirechat-client/internal/session"
	"github.com/vovakirdan/wirechat-client/internal/typing"
	"github.com/vovakirdan/wirechat-client/internal/upload"
)

var chatCmd = &cobra.Command{
	Use:   "chat <room>",
	Short: "Join a room and chat from the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(args[0])
	},
}

func runChat(roomName string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender := auth.SenderIdentity(cfg.Sender, cfg.Token)
	header := auth.Header(cfg.Token)

	sess, err := session.Open(ctx, cfg.ServerURL, roomName, session.Options{
		Header:    header,
		TypingTTL: cfg.TypingTTL,
		Reconnect: cfg.Reconnect,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	notifier := typing.NewNotifier(clock.New(), cfg.TypingTimeout, func(isTyping bool) {
		if err := sess.Send(ctx, proto.NewTyping(sender, isTyping)); err != nil {
			logger.Warn().Err(err).Msg("typing signal failed")
		}
	})
	defer notifier.Close()

	uploader := upload.NewClient(cfg.APIBaseURL, header, logger)
	comp := compose.New(sender, roomName, sess, uploader, notifier, logger)

	fmt.Printf("joined %s as %s (/help for commands)\n", roomName, sender)
	go renderLoop(ctx, sess)

	return inputLoop(ctx, sess, comp)
}

// renderLoop prints newly arrived messages and presence changes. Only
// appended messages are echoed; edits and deletes mutate history that has
// already scrolled by, so they are announced rather than redrawn.
func renderLoop(ctx context.Context, sess *session.Session) {
	seen := make(map[int64]room.Message)
	lastTyping := ""
	lastStatus := sess.Status()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.Done():
			return
		case <-sess.Changed():
		}

		if st := sess.Status(); st != lastStatus {
			fmt.Printf("* connection %s\n", st)
			lastStatus = st
		}

		current := make(map[int64]struct{})
		for _, msg := range sess.Messages() {
			current[msg.ID] = struct{}{}
			prev, ok := seen[msg.ID]
			switch {
			case !ok:
				printMessage(msg)
			case prev.Content != msg.Content && msg.IsEdited:
				fmt.Printf("* %s edited #%d: %s\n", msg.Sender, msg.ID, msg.Content)
			}
			seen[msg.ID] = msg
		}
		for id := range seen {
			if _, ok := current[id]; !ok {
				fmt.Printf("* message #%d was deleted\n", id)
				delete(seen, id)
			}
		}

		if t := strings.Join(sess.TypingUsers(), ", "); t != lastTyping {
			if t != "" {
				fmt.Printf("* typing: %s\n", t)
			}
			lastTyping = t
		}
	}
}

func printMessage(msg room.Message) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[#%d] %s: %s", msg.ID, msg.Sender, msg.Content)
	if msg.Parent != nil {
		fmt.Fprintf(&sb, " (reply to %s: %s)", msg.Parent.Sender, msg.Parent.Content)
	}
	if msg.Attachment != nil {
		fmt.Fprintf(&sb, " [%s: %s]", msg.Attachment.Kind, msg.Attachment.Name)
	}
	fmt.Println(sb.String())
}

func inputLoop(ctx context.Context, sess *session.Session, comp *compose.Composer) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := handleCommand(ctx, sess, comp, line); quit {
				return nil
			}
			continue
		}
		if comp.Uploading() {
			fmt.Println("! an upload is in progress, hold on")
			continue
		}
		// A line reader only sees whole lines, so typing start signals
		// are not emitted here; MessageSent still sends the stop.
		if _, editing := comp.EditTarget(); editing {
			if err := comp.SubmitEdit(ctx, line); err != nil {
				fmt.Println("!", err)
			}
			continue
		}
		if err := comp.SendMessage(ctx, line); err != nil {
			fmt.Println("!", err)
		}
	}
	return scanner.Err()
}

func handleCommand(ctx context.Context, sess *session.Session, comp *compose.Composer, line string) (quit bool) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		fmt.Println(`commands:
  /reply <id>          reply to a message with the next line you send
  /cancel              drop the pending reply or edit
  /edit <id>           edit one of your messages (next line replaces it)
  /delete <id>         delete one of your messages
  /react <id> <emoji>  toggle a reaction
  /upload <path> [caption...]  attach an image or video
  /who                 list users currently typing
  /status              show connection status
  /quit                leave the room`)
	case "/quit":
		return true
	case "/status":
		fmt.Println("* connection", sess.Status())
	case "/who":
		users := sess.TypingUsers()
		if len(users) == 0 {
			fmt.Println("* nobody is typing")
		} else {
			fmt.Println("* typing:", strings.Join(users, ", "))
		}
	case "/cancel":
		comp.ClearReply()
		comp.CancelEdit()
	case "/reply":
		msg, ok := lookupArg(sess, args)
		if !ok {
			return false
		}
		comp.BeginReply(msg)
		fmt.Printf("* replying to #%d (%s)\n", msg.ID, msg.Sender)
	case "/edit":
		msg, ok := lookupArg(sess, args)
		if !ok {
			return false
		}
		if err := comp.BeginEdit(msg); err != nil {
			fmt.Println("!", err)
			return false
		}
		fmt.Printf("* editing #%d, send the new text\n", msg.ID)
	case "/delete":
		msg, ok := lookupArg(sess, args)
		if !ok {
			return false
		}
		if err := comp.Delete(ctx, msg); err != nil {
			fmt.Println("!", err)
		}
	case "/react":
		if len(args) < 2 {
			fmt.Println("! usage: /react <id> <emoji>")
			return false
		}
		msg, ok := lookupArg(sess, args[:1])
		if !ok {
			return false
		}
		if err := comp.React(ctx, msg.ID, args[1]); err != nil {
			fmt.Println("!", err)
		}
	case "/upload":
		if len(args) < 1 {
			fmt.Println("! usage: /upload <path> [caption...]")
			return false
		}
		caption := strings.Join(args[1:], " ")
		if err := comp.Attach(ctx, args[0], caption); err != nil {
			fmt.Println("!", err)
		} else {
			fmt.Println("* upload accepted, the message will arrive shortly")
		}
	default:
		fmt.Println("! unknown command, /help for the list")
	}
	return false
}

func lookupArg(sess *session.Session, args []string) (room.Message, bool) {
	if len(args) < 1 {
		fmt.Println("! message id required")
		return room.Message{}, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("! bad message id:", args[0])
		return room.Message{}, false
	}
	msg, ok := sess.Message(id)
	if !ok {
		fmt.Printf("! no message #%d in this room\n", id)
		return room.Message{}, false
	}
	return msg, true
}
