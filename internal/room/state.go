package room

import (
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// State holds the message history of one room, ordered by arrival at the
// client. The order is never changed after append: re-sorting would shift
// anything the presentation layer has anchored to a message position.
//
// State is single-writer. The session's read loop is the only caller of
// Apply, which makes every application atomic with respect to the next.
type State struct {
	messages []Message
}

// NewState returns an empty room state. A fresh State is created when a
// connection opens for a room and discarded entirely on room change.
func NewState() *State {
	return &State{}
}

// Len reports the number of messages currently held.
func (s *State) Len() int {
	return len(s.messages)
}

// Messages returns a copy of the message sequence in display order.
func (s *State) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Get returns the message with the given id, if present.
func (s *State) Get(id int64) (Message, bool) {
	if i := s.find(id); i >= 0 {
		return s.messages[i], true
	}
	return Message{}, false
}

// Apply folds one inbound event into the state and reports whether the
// state changed. Events referencing an id the client has never seen are
// treated as a benign race and ignored.
func (s *State) Apply(ev proto.ServerEvent) bool {
	switch ev := ev.(type) {
	case proto.MessageCreated:
		s.messages = append(s.messages, fromWire(ev))
		return true
	case proto.MessageEdited:
		i := s.find(ev.MessageID)
		if i < 0 {
			return false
		}
		s.messages[i].Content = ev.Content
		s.messages[i].IsEdited = true
		return true
	case proto.MessageDeleted:
		i := s.find(ev.MessageID)
		if i < 0 {
			return false
		}
		s.messages = append(s.messages[:i], s.messages[i+1:]...)
		return true
	case proto.ReactionUpdated:
		i := s.find(ev.MessageID)
		if i < 0 {
			return false
		}
		switch ev.Action {
		case proto.ReactionAdded:
			s.messages[i].Reactions = append(s.messages[i].Reactions, Reaction{
				Emoji:  ev.Emoji,
				Sender: ev.Sender,
			})
			return true
		case proto.ReactionRemoved:
			return removeReaction(&s.messages[i], ev.Emoji, ev.Sender)
		}
		return false
	default:
		// Typing events are routed to the roster, not the reducer.
		return false
	}
}

func (s *State) find(id int64) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

// removeReaction drops the first entry matching (emoji, sender). Removing
// an absent entry is a no-op, which keeps removal idempotent when the
// server re-sends an update.
func removeReaction(m *Message, emoji, sender string) bool {
	for i, r := range m.Reactions {
		if r.Emoji == emoji && r.Sender == sender {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			return true
		}
	}
	return false
}

func fromWire(ev proto.MessageCreated) Message {
	msg := Message{
		ID:        ev.ID,
		Sender:    ev.Sender,
		Content:   ev.Content,
		Timestamp: ev.Timestamp,
		IsEdited:  ev.IsEdited,
	}
	for _, r := range ev.Reactions {
		msg.Reactions = append(msg.Reactions, Reaction{Emoji: r.Emoji, Sender: r.Sender})
	}
	if ev.ParentID != nil {
		parent := ParentRef{ID: *ev.ParentID}
		if ev.ParentSender != nil {
			parent.Sender = *ev.ParentSender
		}
		if ev.ParentContent != nil {
			parent.Content = *ev.ParentContent
		}
		msg.Parent = &parent
	}
	if ev.FileURL != nil && *ev.FileURL != "" {
		att := Attachment{URL: *ev.FileURL}
		if ev.FileType != nil {
			att.Kind = AttachmentKind(*ev.FileType)
		}
		if ev.FileName != nil {
			att.Name = *ev.FileName
		}
		msg.Attachment = &att
	}
	return msg
}
