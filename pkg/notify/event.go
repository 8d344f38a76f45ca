// Package notify fans committed changes out to external sinks.
package notify

import "curbdb/pkg/models"

// event types
const (
	MemberJoined    = "member_joined"
	MemberActive    = "member_active"
	GroupCreated    = "group_created"
	GroupJoined     = "group_joined"
	GroupLeft       = "group_left"
	GroupDeleted    = "group_deleted"
	GroupInvited    = "group_invited"
	MessageSent     = "message_sent"
	MessageRead     = "message_read"
	ReactionToggled = "reaction_toggled"
)

// Event describes one committed change. At is the caller's clock in ms.
type Event struct {
	Type      string          `json:"type"`
	Actor     string          `json:"actor"`
	At        uint64          `json:"at"`
	Group     string          `json:"group,omitempty"`
	Account   string          `json:"account,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	ParentID  string          `json:"parent_id,omitempty"`
	Label     string          `json:"label,omitempty"`
	Added     bool            `json:"added,omitempty"`
	Message   *models.Message `json:"message,omitempty"`
}

// Key partitions events so one conversation stays ordered within a partition.
func (e Event) Key() string {
	switch {
	case e.Group != "":
		return "g:" + e.Group
	case e.Account != "":
		lo, hi := e.Actor, e.Account
		if hi < lo {
			lo, hi = hi, lo
		}
		return "c:" + lo + ":" + hi
	default:
		return "m:" + e.Actor
	}
}
