package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/room"
	"github.com/vovakirdan/wirechat-client/internal/typing"
	"github.com/vovakirdan/wirechat-client/internal/upload"
)

var (
	// ErrEmptyMessage rejects a send with no content and no attachment.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNotAuthor rejects edit/delete of someone else's message. This is
	// a UX guard only; the server re-validates authorship.
	ErrNotAuthor = errors.New("not the author of this message")
	// ErrUploadInFlight rejects a second attachment while one is pending.
	ErrUploadInFlight = errors.New("an upload is already in progress")
)

// Sender transmits envelopes over the room connection.
type Sender interface {
	Send(ctx context.Context, envelope any) error
}

// Uploader is the attachment side-channel.
type Uploader interface {
	Send(ctx context.Context, req upload.Request) error
}

// Composer turns user intents into protocol envelopes or side-channel
// requests. It holds the transient compose context: the reply target, the
// message being edited, and whether an upload is in flight.
type Composer struct {
	self     string
	roomName string
	sender   Sender
	uploader Uploader
	notifier *typing.Notifier
	log      *zerolog.Logger

	mu        sync.Mutex
	replyTo   *room.Message
	editing   *room.Message
	uploading bool
}

// New builds a composer for one room session. notifier may be nil when
// typing signals are not wanted (e.g. scripted clients).
func New(self, roomName string, sender Sender, uploader Uploader, notifier *typing.Notifier, logger *zerolog.Logger) *Composer {
	return &Composer{
		self:     self,
		roomName: roomName,
		sender:   sender,
		uploader: uploader,
		notifier: notifier,
		log:      logger,
	}
}

// Self returns the local display identity.
func (c *Composer) Self() string { return c.self }

// InputChanged forwards a qualifying keystroke to the typing notifier.
func (c *Composer) InputChanged() {
	if c.notifier != nil {
		c.notifier.InputChanged()
	}
}

// BeginReply targets the next send at msg. The snapshot is denormalized
// server-side; the composer only carries the id.
func (c *Composer) BeginReply(msg room.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := msg
	c.replyTo = &m
}

// ClearReply drops the reply target.
func (c *Composer) ClearReply() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replyTo = nil
}

// ReplyTarget returns the message the next send replies to, if any.
func (c *Composer) ReplyTarget() (room.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.replyTo == nil {
		return room.Message{}, false
	}
	return *c.replyTo, true
}

// SendMessage sends a chat message, consuming any reply target and
// cancelling the typing countdown with an immediate stop.
func (c *Composer) SendMessage(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	var parentID *int64
	if c.replyTo != nil {
		id := c.replyTo.ID
		parentID = &id
		c.replyTo = nil
	}
	c.mu.Unlock()

	if c.notifier != nil {
		c.notifier.MessageSent()
	}
	return c.sender.Send(ctx, proto.NewMessage(c.self, content, parentID))
}

// BeginEdit marks msg as the edit target. Only locally authored messages
// qualify.
func (c *Composer) BeginEdit(msg room.Message) error {
	if msg.Sender != c.self {
		return ErrNotAuthor
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m := msg
	c.editing = &m
	return nil
}

// EditTarget returns the message currently being edited, if any.
func (c *Composer) EditTarget() (room.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == nil {
		return room.Message{}, false
	}
	return *c.editing, true
}

// CancelEdit abandons the pending edit.
func (c *Composer) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
}

// SubmitEdit sends the replacement content for the pending edit target.
func (c *Composer) SubmitEdit(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyMessage
	}
	c.mu.Lock()
	target := c.editing
	c.editing = nil
	c.mu.Unlock()
	if target == nil {
		return errors.New("no message is being edited")
	}
	return c.sender.Send(ctx, proto.NewEdit(c.self, target.ID, content))
}

// Delete asks the server to remove a locally authored message. There is
// no undo.
func (c *Composer) Delete(ctx context.Context, msg room.Message) error {
	if msg.Sender != c.self {
		return ErrNotAuthor
	}
	return c.sender.Send(ctx, proto.NewDelete(c.self, msg.ID))
}

// React sends the reaction intent. The same envelope goes out whether the
// emoji is currently present or not; the server decides add vs remove and
// the broadcast result is what updates local state.
func (c *Composer) React(ctx context.Context, messageID int64, emoji string) error {
	if emoji == "" {
		return errors.New("emoji is required")
	}
	return c.sender.Send(ctx, proto.NewReaction(c.self, messageID, emoji))
}

// Uploading reports whether an attachment upload is in flight. While
// true, composer input is disabled.
func (c *Composer) Uploading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploading
}

// Attach validates and uploads a file over the side-channel, consuming
// any reply target. The resulting message is not materialized locally; it
// arrives through the event stream once the server broadcasts it. At most
// one upload is in flight at a time.
func (c *Composer) Attach(ctx context.Context, path, caption string) error {
	c.mu.Lock()
	if c.uploading {
		c.mu.Unlock()
		return ErrUploadInFlight
	}
	c.uploading = true
	var parentID *int64
	if c.replyTo != nil {
		id := c.replyTo.ID
		parentID = &id
		c.replyTo = nil
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.uploading = false
		c.mu.Unlock()
	}()

	c.log.Info().Str("path", path).Str("room", c.roomName).Msg("starting attachment upload")
	err := c.uploader.Send(ctx, upload.Request{
		Path:     path,
		Sender:   c.self,
		Room:     c.roomName,
		ParentID: parentID,
		Caption:  caption,
	})
	if err != nil {
		return fmt.Errorf("attach %s: %w", path, err)
	}
	return nil
}
