// Package directory resolves channels and two-party chats to their stored
// conversations and keeps the channel/member mirrors in step.
package directory

import (
	"curbdb/pkg/errs"
	"curbdb/pkg/identity"
	"curbdb/pkg/logger"
	"curbdb/pkg/models"
	"curbdb/pkg/store/keys"
	"curbdb/pkg/store/txn"
)

// DefaultChannel is created for the first member and never deleted.
const DefaultChannel = "general"

// Directory owns channel and chat records.
type Directory struct {
	members identity.MembershipChecker
}

// New returns a directory that consults members for registration checks.
func New(members identity.MembershipChecker) *Directory {
	return &Directory{members: members}
}

// Resolve returns the channel's conversation record.
func (d *Directory) Resolve(tx *txn.Txn, name string) (models.Conversation, error) {
	var conv models.Conversation
	found, err := tx.GetJSON(keys.GenChannelKey(name), &conv)
	if err != nil {
		return conv, err
	}
	if !found {
		return conv, errs.NotFound("group %q does not exist", name)
	}
	return conv, nil
}

// Exists reports whether the channel has been created.
func (d *Directory) Exists(tx *txn.Txn, name string) (bool, error) {
	return tx.Has(keys.GenChannelKey(name))
}

// Create inserts an empty public channel stamped with creator and now. When
// membershipRequired is set the creator must be registered and is joined.
func (d *Directory) Create(tx *txn.Txn, name, creator string, now uint64, membershipRequired bool) error {
	if name == "" {
		return errs.InvalidArgument("group name too short")
	}
	exists, err := d.Exists(tx, name)
	if err != nil {
		return err
	}
	if exists {
		return errs.AlreadyExists("group %q already exists", name)
	}
	if membershipRequired {
		if err := d.requireMember(tx, creator); err != nil {
			return err
		}
	}

	conv := models.Conversation{
		IsPublic: true,
		Meta:     models.ChannelMetadata{CreatedAt: now, CreatedBy: creator},
	}
	if err := tx.SetJSON(keys.GenChannelKey(name), conv); err != nil {
		return err
	}
	logger.Info("channel_created", "channel", name, "creator", creator)

	if membershipRequired {
		return d.Join(tx, name, creator)
	}
	return nil
}

// Join adds member to the channel. Joining twice is a no-op.
func (d *Directory) Join(tx *txn.Txn, name, member string) error {
	if err := d.requireChannel(tx, name); err != nil {
		return err
	}
	if err := d.requireMember(tx, member); err != nil {
		return err
	}
	link(tx, name, member)
	return nil
}

// Invite adds target to the channel on behalf of actor.
func (d *Directory) Invite(tx *txn.Txn, name, actor, target string) error {
	if err := d.requireChannel(tx, name); err != nil {
		return err
	}
	if err := d.requireMember(tx, actor); err != nil {
		return err
	}
	if err := d.requireMember(tx, target); err != nil {
		return errs.NotAMember("invited account %q is not a member", target)
	}
	link(tx, name, target)
	return nil
}

// Leave removes member from the channel and deletes the channel once it is
// empty, unless it is the default channel. deleted reports the removal.
func (d *Directory) Leave(tx *txn.Txn, name, member string) (deleted bool, err error) {
	if err := d.requireChannel(tx, name); err != nil {
		return false, err
	}
	if err := d.requireMember(tx, member); err != nil {
		return false, err
	}
	unlink(tx, name, member)

	if name == DefaultChannel {
		return false, nil
	}
	remaining, err := tx.Keys(keys.GenChannelMemberPrefix(name))
	if err != nil {
		return false, err
	}
	if len(remaining) > 0 {
		return false, nil
	}
	if err := d.drop(tx, name); err != nil {
		return false, err
	}
	logger.Info("channel_deleted", "channel", name, "last_member", member)
	return true, nil
}

// drop removes the channel record, log, cursors and member set.
func (d *Directory) drop(tx *txn.Txn, name string) error {
	tx.Delete(keys.GenChannelKey(name))
	tx.Delete(keys.GenChannelLogKey(name))
	if err := tx.DeletePrefix(keys.GenChannelCursorPrefix(name)); err != nil {
		return err
	}
	return tx.DeletePrefix(keys.GenChannelMemberPrefix(name))
}

// IsChannelMember reports whether member belongs to the channel.
func (d *Directory) IsChannelMember(tx *txn.Txn, name, member string) (bool, error) {
	return tx.Has(keys.GenChannelMemberKey(name, member))
}

// Channels lists every channel in key order.
func (d *Directory) Channels(tx *txn.Txn) ([]models.Channel, error) {
	out := []models.Channel{}
	err := tx.Scan(keys.ChannelPrefix, func(k string, _ []byte) error {
		name, err := keys.ParseChannelKey(k)
		if err != nil {
			return err
		}
		out = append(out, models.Channel{Name: name})
		return nil
	})
	return out, err
}

// ChannelsOf lists the channels member belongs to.
func (d *Directory) ChannelsOf(tx *txn.Txn, member string) ([]models.Channel, error) {
	prefix := keys.GenMemberChannelPrefix(member)
	out := []models.Channel{}
	err := tx.Scan(prefix, func(k string, _ []byte) error {
		name, err := keys.ParseLastSegment(k, prefix)
		if err != nil {
			return err
		}
		out = append(out, models.Channel{Name: name})
		return nil
	})
	return out, err
}

// MembersOf lists the members of a channel.
func (d *Directory) MembersOf(tx *txn.Txn, name string) ([]string, error) {
	prefix := keys.GenChannelMemberPrefix(name)
	out := []string{}
	err := tx.Scan(prefix, func(k string, _ []byte) error {
		id, err := keys.ParseLastSegment(k, prefix)
		if err != nil {
			return err
		}
		out = append(out, id)
		return nil
	})
	return out, err
}

// Metadata returns the channel's creation metadata, nil when absent.
func (d *Directory) Metadata(tx *txn.Txn, name string) (*models.ChannelMetadata, error) {
	var conv models.Conversation
	found, err := tx.GetJSON(keys.GenChannelKey(name), &conv)
	if err != nil || !found {
		return nil, err
	}
	return &conv.Meta, nil
}

func (d *Directory) requireChannel(tx *txn.Txn, name string) error {
	ok, err := d.Exists(tx, name)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound("group %q does not exist", name)
	}
	return nil
}

func (d *Directory) requireMember(tx *txn.Txn, id string) error {
	ok, err := d.members.IsMember(tx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotAMember("%q is not a member", id)
	}
	return nil
}

// link and unlink are the only writers of the membership mirrors.
func link(tx *txn.Txn, channel, member string) {
	tx.Set(keys.GenChannelMemberKey(channel, member), nil)
	tx.Set(keys.GenMemberChannelKey(member, channel), nil)
}

func unlink(tx *txn.Txn, channel, member string) {
	tx.Delete(keys.GenChannelMemberKey(channel, member))
	tx.Delete(keys.GenMemberChannelKey(member, channel))
}

// ChannelLogKey is the key of a channel's message log.
func ChannelLogKey(name string) string {
	return keys.GenChannelLogKey(name)
}

// ChannelCursorKey is the key of member's read cursor in a channel.
func ChannelCursorKey(name, member string) string {
	return keys.GenChannelCursorKey(name, member)
}
