package models

// Channel names a public, many-member conversation.
type Channel struct {
	Name string `json:"name"`
}

// ChannelMetadata records who created a conversation and when.
type ChannelMetadata struct {
	CreatedAt uint64 `json:"createdAt"`
	CreatedBy string `json:"createdBy"`
}

// Conversation is the stored record of a channel or chat. Its message log
// and read cursors live under separate keys.
type Conversation struct {
	IsPublic bool            `json:"is_public"`
	Meta     ChannelMetadata `json:"meta"`
}

// ChatPair is the canonical key of a two-party chat: Low <= High.
type ChatPair struct {
	Low  string `json:"low"`
	High string `json:"high"`
}

// Other returns the party of the pair that is not id. For a self chat
// that is id itself.
func (p ChatPair) Other(id string) string {
	if p.Low == id {
		return p.High
	}
	return p.Low
}

// Has reports whether id is one of the two parties.
func (p ChatPair) Has(id string) bool {
	return p.Low == id || p.High == id
}
