package room

// AttachmentKind classifies a file attachment for rendering.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentVideo AttachmentKind = "video"
)

// Attachment is a file carried by a message.
type Attachment struct {
	URL  string
	Kind AttachmentKind
	Name string
}

// ParentRef is a denormalized snapshot of a replied-to message, captured
// at send time. It is a copy, not a live reference: editing or deleting
// the parent later does not change it.
type ParentRef struct {
	ID      int64
	Sender  string
	Content string
}

// Reaction is one emoji tag by one sender. Uniqueness of (emoji, sender)
// per message is enforced server-side; the client tolerates duplicates.
type Reaction struct {
	Emoji  string
	Sender string
}

// Message is the client-side view of one message in a room.
//
// Timestamp is kept as the opaque string the server delivered. The client
// never orders or compares by it, so it is never parsed.
type Message struct {
	ID         int64
	Sender     string
	Content    string
	Timestamp  string
	Parent     *ParentRef
	IsEdited   bool
	Attachment *Attachment
	Reactions  []Reaction
}
