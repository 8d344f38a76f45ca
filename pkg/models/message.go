package models

// Message is one entry in a conversation or thread log.
type Message struct {
	Timestamp uint64 `json:"timestamp"`
	Sender    string `json:"sender"`
	ID        string `json:"id"`
	Text      string `json:"text"`
}

// Reactions maps a reaction label to the identities that reacted with it.
type Reactions map[string][]string

// MessageWithReactions decorates a message with its reaction index entry.
// Reactions is nil when nothing was ever recorded for the message.
type MessageWithReactions struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp uint64    `json:"timestamp"`
	Sender    string    `json:"sender"`
	Reactions Reactions `json:"reactions"`
}

// MessageWithThread is a conversation entry with reactions and its
// replies, each carrying its own reactions.
type MessageWithThread struct {
	ID        string                 `json:"id"`
	Text      string                 `json:"text"`
	Timestamp uint64                 `json:"timestamp"`
	Sender    string                 `json:"sender"`
	Reactions Reactions              `json:"reactions"`
	Thread    []MessageWithReactions `json:"thread"`
}
