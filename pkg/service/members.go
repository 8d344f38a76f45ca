package service

import (
	"curbdb/pkg/errs"
	"curbdb/pkg/models"
	"curbdb/pkg/notify"
	"curbdb/pkg/store/features/directory"
	"curbdb/pkg/store/txn"
)

// Join registers the caller and adds them to the default channel, creating
// it for the very first member.
func (s *Service) Join(c Caller) error {
	return s.update("join", func(tx *txn.Txn) error {
		registered, err := s.members.IsMember(tx, c.ID)
		if err != nil {
			return err
		}
		if registered {
			return errs.AlreadyMember("%q already joined", c.ID)
		}
		anyone, err := s.members.HasMembers(tx)
		if err != nil {
			return err
		}
		if !anyone {
			exists, err := s.dir.Exists(tx, directory.DefaultChannel)
			if err != nil {
				return err
			}
			if !exists {
				if err := s.dir.Create(tx, directory.DefaultChannel, c.ID, c.Now, false); err != nil {
					return err
				}
			}
		}
		if err := s.members.RegisterActivity(tx, c.ID, c.Now, c.Key); err != nil {
			return err
		}
		if err := s.dir.Join(tx, directory.DefaultChannel, c.ID); err != nil {
			return err
		}
		s.emit(tx, notify.Event{Type: notify.MemberJoined, Actor: c.ID, At: c.Now})
		return nil
	})
}

// Ping refreshes the caller's activity clock.
func (s *Service) Ping(c Caller) error {
	return s.update("ping", func(tx *txn.Txn) error {
		if err := s.requireMember(tx, c.ID); err != nil {
			return err
		}
		if err := s.members.RegisterActivity(tx, c.ID, c.Now, c.Key); err != nil {
			return err
		}
		s.emit(tx, notify.Event{Type: notify.MemberActive, Actor: c.ID, At: c.Now})
		return nil
	})
}

// GetMembers lists a group's members, or every member when group is nil.
// An unknown group yields an empty list.
func (s *Service) GetMembers(group *string) ([]models.UserInfo, error) {
	now := s.clock()
	out := []models.UserInfo{}
	err := s.view("get_members", func(tx *txn.Txn) error {
		if group == nil {
			all, err := s.members.Members(tx, now)
			out = all
			return err
		}
		ids, err := s.dir.MembersOf(tx, *group)
		if err != nil {
			return err
		}
		for _, id := range ids {
			active, err := s.members.IsActive(tx, id, now)
			if err != nil {
				return err
			}
			out = append(out, models.UserInfo{ID: id, Active: active})
		}
		return nil
	})
	return out, err
}

// GetKeys returns the key registered by account, if any.
func (s *Service) GetKeys(account string) ([]string, error) {
	out := []string{}
	err := s.view("get_keys", func(tx *txn.Txn) error {
		key, found, err := s.members.Key(tx, account)
		if found {
			out = append(out, key)
		}
		return err
	})
	return out, err
}
