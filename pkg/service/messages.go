package service

import (
	"unicode/utf8"

	"curbdb/pkg/errs"
	"curbdb/pkg/logger"
	"curbdb/pkg/models"
	"curbdb/pkg/notify"
	"curbdb/pkg/store/features/cursors"
	"curbdb/pkg/store/features/directory"
	"curbdb/pkg/store/features/messages"
	"curbdb/pkg/store/features/reactions"
	"curbdb/pkg/store/features/threads"
	"curbdb/pkg/store/txn"
)

// SendRequest targets exactly one of Account or Group. With Parent set the
// message becomes a thread reply.
type SendRequest struct {
	Account   *string
	Group     *string
	Parent    *string
	Text      string
	Timestamp uint64
}

// ReadRequest moves the caller's cursor in one conversation.
type ReadRequest struct {
	Account   *string
	Group     *string
	MessageID string
}

// MessagesQuery selects a chat by its two parties or a channel by name.
type MessagesQuery struct {
	Accounts *[2]string
	Group    *string
	Offset   *int
	Length   *int
}

func oneOf(account bool, group bool) error {
	if account == group {
		return errs.InvalidArgument("either account or group need to be provided")
	}
	return nil
}

// SendMessage stores a message from the caller and moves the caller's
// cursor to it. Thread replies leave cursors alone.
func (s *Service) SendMessage(c Caller, req SendRequest) (models.Message, error) {
	var msg models.Message
	err := s.update("send_message", func(tx *txn.Txn) error {
		if err := oneOf(req.Account != nil, req.Group != nil); err != nil {
			return err
		}
		var target string
		if req.Account != nil {
			target = *req.Account
		} else {
			target = *req.Group
		}
		// stored JSON would rewrite invalid bytes and break the id
		if !utf8.ValidString(req.Text) || !utf8.ValidString(target) || !utf8.ValidString(c.ID) {
			return errs.InvalidArgument("message must be valid UTF-8")
		}
		if err := s.requireMember(tx, c.ID); err != nil {
			return err
		}
		if err := s.members.RegisterActivity(tx, c.ID, c.Now, c.Key); err != nil {
			return err
		}

		msg = models.Message{
			ID:        messages.MakeID(c.ID, target, req.Text, req.Timestamp),
			Text:      req.Text,
			Sender:    c.ID,
			Timestamp: req.Timestamp,
		}

		var logKey, cursorKey string
		if req.Account != nil {
			other := *req.Account
			ok, err := s.members.IsMember(tx, other)
			if err != nil {
				return err
			}
			if !ok {
				return errs.NotAMember("other account %q is not a member", other)
			}
			if req.Parent == nil {
				pair := directory.CanonicalPair(c.ID, other)
				if err := s.dir.EnsureChat(tx, pair, c.ID, c.Now); err != nil {
					return err
				}
				logKey, cursorKey = directory.ChatLogKey(pair), directory.ChatCursorKey(pair, c.ID)
			}
		} else {
			name := *req.Group
			if _, err := s.dir.Resolve(tx, name); err != nil {
				return err
			}
			ok, err := s.dir.IsChannelMember(tx, name, c.ID)
			if err != nil {
				return err
			}
			if !ok {
				return errs.NotAMember("%q is not a member of group %q", c.ID, name)
			}
			logKey, cursorKey = directory.ChannelLogKey(name), directory.ChannelCursorKey(name, c.ID)
		}

		ev := notify.Event{Type: notify.MessageSent, Actor: c.ID, At: c.Now, Message: &msg}
		if req.Account != nil {
			ev.Account = *req.Account
		} else {
			ev.Group = *req.Group
		}

		if req.Parent != nil {
			if err := threads.AppendReply(tx, *req.Parent, msg); err != nil {
				return err
			}
			ev.ParentID = *req.Parent
		} else {
			if err := messages.Append(tx, logKey, msg); err != nil {
				return err
			}
			cursors.MarkRead(tx, cursorKey, msg.ID)
		}
		logger.Debug("message_sent", "sender", c.ID, "target", target, "id", msg.ID, "thread", req.Parent != nil)
		s.emit(tx, ev)
		return nil
	})
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ReadMessage sets the caller's read cursor in a chat or channel.
func (s *Service) ReadMessage(c Caller, req ReadRequest) error {
	return s.update("read_message", func(tx *txn.Txn) error {
		if err := oneOf(req.Account != nil, req.Group != nil); err != nil {
			return err
		}
		if err := s.requireMember(tx, c.ID); err != nil {
			return err
		}
		ev := notify.Event{Type: notify.MessageRead, Actor: c.ID, At: c.Now, MessageID: req.MessageID}
		var cursorKey string
		if req.Account != nil {
			pair := directory.CanonicalPair(c.ID, *req.Account)
			_, found, err := s.dir.Chat(tx, pair)
			if err != nil {
				return err
			}
			if !found {
				return errs.NotFound("no chat with %q", *req.Account)
			}
			cursorKey = directory.ChatCursorKey(pair, c.ID)
			ev.Account = *req.Account
		} else {
			if _, err := s.dir.Resolve(tx, *req.Group); err != nil {
				return err
			}
			cursorKey = directory.ChannelCursorKey(*req.Group, c.ID)
			ev.Group = *req.Group
		}
		cursors.MarkRead(tx, cursorKey, req.MessageID)
		s.emit(tx, ev)
		return nil
	})
}

// ToggleReaction adds or removes the caller from label's reactors on a
// message. added reports the caller's state afterwards.
func (s *Service) ToggleReaction(c Caller, messageID, label string) (added bool, err error) {
	err = s.update("toggle_reaction", func(tx *txn.Txn) error {
		if messageID == "" {
			return errs.InvalidArgument("message id is required")
		}
		if label == "" {
			return errs.InvalidArgument("reaction is required")
		}
		if err := s.requireMember(tx, c.ID); err != nil {
			return err
		}
		var err error
		added, err = reactions.Toggle(tx, messageID, label, c.ID)
		if err != nil {
			return err
		}
		if err := s.members.RegisterActivity(tx, c.ID, c.Now, c.Key); err != nil {
			return err
		}
		s.emit(tx, notify.Event{
			Type: notify.ReactionToggled, Actor: c.ID, At: c.Now,
			MessageID: messageID, Label: label, Added: added,
		})
		return nil
	})
	return added, err
}

// UnreadMessages summarises unread counts for account.
func (s *Service) UnreadMessages(account string) (models.UnreadMessageInfo, error) {
	var info models.UnreadMessageInfo
	err := s.view("unread_messages", func(tx *txn.Txn) error {
		var err error
		info, err = cursors.Summary(tx, s.dir, account)
		return err
	})
	return info, err
}

// GetMessages returns a window of a conversation, each message decorated
// with its reactions and thread. A missing conversation is empty.
func (s *Service) GetMessages(q MessagesQuery) ([]models.MessageWithThread, error) {
	if err := oneOf(q.Accounts != nil, q.Group != nil); err != nil {
		return nil, err
	}
	out := []models.MessageWithThread{}
	err := s.view("get_messages", func(tx *txn.Txn) error {
		var logKey string
		if q.Accounts != nil {
			logKey = directory.ChatLogKey(directory.CanonicalPair(q.Accounts[0], q.Accounts[1]))
		} else {
			logKey = directory.ChannelLogKey(*q.Group)
		}
		msgs, err := messages.Load(tx, logKey)
		if err != nil {
			return err
		}
		offset := 0
		if q.Offset != nil {
			offset = *q.Offset
		}
		for _, m := range messages.Window(msgs, offset, q.Length) {
			decorated, err := decorate(tx, m)
			if err != nil {
				return err
			}
			out = append(out, decorated)
		}
		return nil
	})
	return out, err
}

func decorate(tx *txn.Txn, m models.Message) (models.MessageWithThread, error) {
	rs, err := reactions.For(tx, m.ID)
	if err != nil {
		return models.MessageWithThread{}, err
	}
	replies, err := threads.Get(tx, m.ID)
	if err != nil {
		return models.MessageWithThread{}, err
	}
	thread := make([]models.MessageWithReactions, 0, len(replies))
	for _, r := range replies {
		rr, err := reactions.For(tx, r.ID)
		if err != nil {
			return models.MessageWithThread{}, err
		}
		thread = append(thread, models.MessageWithReactions{
			ID: r.ID, Text: r.Text, Timestamp: r.Timestamp, Sender: r.Sender, Reactions: rr,
		})
	}
	return models.MessageWithThread{
		ID: m.ID, Text: m.Text, Timestamp: m.Timestamp, Sender: m.Sender,
		Reactions: rs, Thread: thread,
	}, nil
}
