package room

// ReactionGroup is a presentation view of one emoji on one message.
type ReactionGroup struct {
	Emoji   string
	Senders []string
}

// Count returns how many senders used this emoji.
func (g ReactionGroup) Count() int {
	return len(g.Senders)
}

// GroupReactions projects a message's reaction sequence into per-emoji
// groups. Groups appear in first-use order of each emoji; the projection
// is computed on read and never stored, so it always reflects the latest
// applied event.
func GroupReactions(m Message) []ReactionGroup {
	var groups []ReactionGroup
	byEmoji := make(map[string]int)
	for _, r := range m.Reactions {
		i, ok := byEmoji[r.Emoji]
		if !ok {
			i = len(groups)
			byEmoji[r.Emoji] = i
			groups = append(groups, ReactionGroup{Emoji: r.Emoji})
		}
		groups[i].Senders = append(groups[i].Senders, r.Sender)
	}
	return groups
}
