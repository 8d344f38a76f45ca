package models

// Member is the stored activity record of a registered identity.
type Member struct {
	LastActivity uint64 `json:"last_activity"`
}

// UserInfo is a member listing entry.
type UserInfo struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

// SystemInfo identifies a store instance.
type SystemInfo struct {
	Name      string `json:"name"`
	CreatedAt uint64 `json:"created_at"`
}
