package models

// UnreadMessage is the unread state of one conversation for a reader.
type UnreadMessage struct {
	Count    int     `json:"count"`
	LastSeen *string `json:"lastSeen"`
}

// UnreadMessageInfo aggregates unread state across namespaces.
type UnreadMessageInfo struct {
	Channels map[string]UnreadMessage `json:"channels"`
	Chats    map[string]UnreadMessage `json:"chats"`
	Threads  map[string]UnreadMessage `json:"threads"`
}

// NewUnreadMessageInfo returns an info with all namespaces initialised.
func NewUnreadMessageInfo() UnreadMessageInfo {
	return UnreadMessageInfo{
		Channels: map[string]UnreadMessage{},
		Chats:    map[string]UnreadMessage{},
		Threads:  map[string]UnreadMessage{},
	}
}
