package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Wire type tags. The server uses a flat JSON object with a "type"
// discriminator rather than a nested payload.
const (
	TypeChatMessage   = "chat_message"
	TypeReaction      = "reaction"
	TypeReactionEvent = "reaction_update"
	TypeTyping        = "typing"
	TypeTypingEvent   = "user_typing"
	TypeEdit          = "edit_message"
	TypeEditEvent     = "message_edit"
	TypeDelete        = "delete_message"
	TypeDeleteEvent   = "message_delete"
)

// ErrUnknownEvent marks an inbound frame whose type tag is not one the
// client understands. Callers log and skip these; they are never fatal.
var ErrUnknownEvent = errors.New("unknown event type")

// WireReaction is a single emoji tag on a message as it appears on the wire.
type WireReaction struct {
	Emoji  string `json:"emoji"`
	Sender string `json:"sender"`
}

// ServerEvent is the sealed set of inbound event kinds. Exactly one
// concrete type exists per wire tag so dispatch is an exhaustive type
// switch instead of string comparisons.
type ServerEvent interface {
	serverEvent()
}

// MessageCreated announces a new message in the room, including messages
// the local user sent (the server echoes them back with an assigned id).
type MessageCreated struct {
	ID            int64          `json:"id"`
	Sender        string         `json:"sender"`
	Content       string         `json:"message"`
	Timestamp     string         `json:"timestamp"`
	Reactions     []WireReaction `json:"reactions"`
	ParentID      *int64         `json:"parent_id"`
	ParentContent *string        `json:"parent_content"`
	ParentSender  *string        `json:"parent_sender"`
	IsEdited      bool           `json:"is_edited"`
	FileURL       *string        `json:"file_url"`
	FileType      *string        `json:"file_type"`
	FileName      *string        `json:"file_name"`
}

// ReactionUpdated reports that the server added or removed one reaction.
// The server owns toggle semantics; the client only replays the action.
type ReactionUpdated struct {
	MessageID int64  `json:"message_id"`
	Emoji     string `json:"emoji"`
	Sender    string `json:"sender"`
	Action    string `json:"action"` // "added" or "removed"
}

// Reaction actions as sent by the server.
const (
	ReactionAdded   = "added"
	ReactionRemoved = "removed"
)

// TypingChanged reports a remote user starting or stopping typing.
type TypingChanged struct {
	Sender string `json:"sender"`
	Typing bool   `json:"is_typing"`
}

// MessageEdited replaces the content of an existing message.
type MessageEdited struct {
	MessageID int64  `json:"message_id"`
	Content   string `json:"content"`
}

// MessageDeleted removes a message from the room.
type MessageDeleted struct {
	MessageID int64 `json:"message_id"`
}

func (MessageCreated) serverEvent()  {}
func (ReactionUpdated) serverEvent() {}
func (TypingChanged) serverEvent()   {}
func (MessageEdited) serverEvent()   {}
func (MessageDeleted) serverEvent()  {}

// DecodeServerEvent parses one inbound frame into its concrete event type.
// Frames with an unrecognized type tag return ErrUnknownEvent.
func DecodeServerEvent(data []byte) (ServerEvent, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode event tag: %w", err)
	}

	switch tag.Type {
	case TypeChatMessage:
		var ev MessageCreated
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", tag.Type, err)
		}
		return ev, nil
	case TypeReactionEvent:
		var ev ReactionUpdated
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", tag.Type, err)
		}
		return ev, nil
	case TypeTypingEvent:
		var ev TypingChanged
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", tag.Type, err)
		}
		return ev, nil
	case TypeEditEvent:
		var ev MessageEdited
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", tag.Type, err)
		}
		return ev, nil
	case TypeDeleteEvent:
		var ev MessageDeleted
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", tag.Type, err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, tag.Type)
	}
}

// SendMessage is the outbound envelope for a chat message.
type SendMessage struct {
	Type     string `json:"type"`
	Content  string `json:"message"`
	Sender   string `json:"sender"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// SendReaction asks the server to toggle a reaction. The client never
// states add vs remove; the server decides and broadcasts the result.
type SendReaction struct {
	Type      string `json:"type"`
	MessageID int64  `json:"message_id"`
	Emoji     string `json:"emoji"`
	Sender    string `json:"sender"`
}

// SendTyping signals the local user's typing state.
type SendTyping struct {
	Type   string `json:"type"`
	Typing bool   `json:"is_typing"`
	Sender string `json:"sender"`
}

// SendEdit asks the server to replace a message's content.
type SendEdit struct {
	Type      string `json:"type"`
	MessageID int64  `json:"message_id"`
	Content   string `json:"content"`
	Sender    string `json:"sender"`
}

// SendDelete asks the server to remove a message.
type SendDelete struct {
	Type      string `json:"type"`
	MessageID int64  `json:"message_id"`
	Sender    string `json:"sender"`
}

// NewMessage builds a chat message envelope, optionally replying to parentID.
func NewMessage(sender, content string, parentID *int64) SendMessage {
	return SendMessage{Type: TypeChatMessage, Content: content, Sender: sender, ParentID: parentID}
}

// NewReaction builds a reaction toggle envelope.
func NewReaction(sender string, messageID int64, emoji string) SendReaction {
	return SendReaction{Type: TypeReaction, MessageID: messageID, Emoji: emoji, Sender: sender}
}

// NewTyping builds a typing signal envelope.
func NewTyping(sender string, typing bool) SendTyping {
	return SendTyping{Type: TypeTyping, Typing: typing, Sender: sender}
}

// NewEdit builds an edit envelope.
func NewEdit(sender string, messageID int64, content string) SendEdit {
	return SendEdit{Type: TypeEdit, MessageID: messageID, Content: content, Sender: sender}
}

// NewDelete builds a delete envelope.
func NewDelete(sender string, messageID int64) SendDelete {
	return SendDelete{Type: TypeDelete, MessageID: messageID, Sender: sender}
}
