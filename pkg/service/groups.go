package service

import (
	"curbdb/pkg/models"
	"curbdb/pkg/notify"
	"curbdb/pkg/store/txn"
)

// CreateGroup creates a public channel with the caller as its first member.
func (s *Service) CreateGroup(c Caller, name string) error {
	return s.update("create_group", func(tx *txn.Txn) error {
		if err := s.dir.Create(tx, name, c.ID, c.Now, true); err != nil {
			return err
		}
		if err := s.members.RegisterActivity(tx, c.ID, c.Now, c.Key); err != nil {
			return err
		}
		s.emit(tx, notify.Event{Type: notify.GroupCreated, Actor: c.ID, At: c.Now, Group: name})
		return nil
	})
}

// JoinGroup adds the caller to an existing channel.
func (s *Service) JoinGroup(c Caller, name string) (models.Channel, error) {
	err := s.update("join_group", func(tx *txn.Txn) error {
		if err := s.dir.Join(tx, name, c.ID); err != nil {
			return err
		}
		if err := s.members.RegisterActivity(tx, c.ID, c.Now, c.Key); err != nil {
			return err
		}
		s.emit(tx, notify.Event{Type: notify.GroupJoined, Actor: c.ID, At: c.Now, Group: name})
		return nil
	})
	return models.Channel{Name: name}, err
}

// LeaveGroup removes the caller from a channel. The channel is deleted when
// its last member leaves, unless it is the default channel.
func (s *Service) LeaveGroup(c Caller, name string) (models.Channel, error) {
	err := s.update("leave_group", func(tx *txn.Txn) error {
		deleted, err := s.dir.Leave(tx, name, c.ID)
		if err != nil {
			return err
		}
		if err := s.members.RegisterActivity(tx, c.ID, c.Now, c.Key); err != nil {
			return err
		}
		s.emit(tx, notify.Event{Type: notify.GroupLeft, Actor: c.ID, At: c.Now, Group: name})
		if deleted {
			s.emit(tx, notify.Event{Type: notify.GroupDeleted, Actor: c.ID, At: c.Now, Group: name})
		}
		return nil
	})
	return models.Channel{Name: name}, err
}

// GroupInvite adds target to a channel on the caller's behalf.
func (s *Service) GroupInvite(c Caller, name, target string) (models.Channel, error) {
	err := s.update("group_invite", func(tx *txn.Txn) error {
		if err := s.dir.Invite(tx, name, c.ID, target); err != nil {
			return err
		}
		if err := s.members.RegisterActivity(tx, c.ID, c.Now, c.Key); err != nil {
			return err
		}
		s.emit(tx, notify.Event{Type: notify.GroupInvited, Actor: c.ID, At: c.Now, Group: name, Account: target})
		return nil
	})
	return models.Channel{Name: name}, err
}

// GetGroups lists account's channels, or every channel when account is nil.
func (s *Service) GetGroups(account *string) ([]models.Channel, error) {
	var out []models.Channel
	err := s.view("get_groups", func(tx *txn.Txn) error {
		var err error
		if account == nil {
			out, err = s.dir.Channels(tx)
		} else {
			out, err = s.dir.ChannelsOf(tx, *account)
		}
		return err
	})
	return out, err
}

// ChannelInfo returns a channel's creation metadata, nil when it does not exist.
func (s *Service) ChannelInfo(group string) (*models.ChannelMetadata, error) {
	var meta *models.ChannelMetadata
	err := s.view("channel_info", func(tx *txn.Txn) error {
		var err error
		meta, err = s.dir.Metadata(tx, group)
		return err
	})
	return meta, err
}
