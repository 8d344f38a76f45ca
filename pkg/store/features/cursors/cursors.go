// Package cursors tracks each reader's last-read message per conversation
// and derives unread counts from it.
package cursors

import (
	"curbdb/pkg/models"
	"curbdb/pkg/store/features/directory"
	"curbdb/pkg/store/features/messages"
	"curbdb/pkg/store/txn"
	"curbdb/pkg/telemetry"
)

// MarkRead overwrites the cursor at cursorKey with messageID. Cursors may
// move backwards.
func MarkRead(tx *txn.Txn, cursorKey, messageID string) {
	tx.Set(cursorKey, []byte(messageID))
}

// Cursor returns the message id stored at cursorKey, nil when unset.
func Cursor(tx *txn.Txn, cursorKey string) (*string, error) {
	v, found, err := tx.Get(cursorKey)
	if err != nil || !found {
		return nil, err
	}
	id := string(v)
	return &id, nil
}

// UnreadCount counts the messages after cursor. Without a cursor every
// message is unread; an unknown cursor id resolves to position 0.
func UnreadCount(msgs []models.Message, cursor *string) int {
	if cursor == nil {
		return len(msgs)
	}
	n := len(msgs) - (messages.FindPosition(msgs, *cursor) + 1)
	if n < 0 {
		return 0
	}
	return n
}

// unread loads the log at logKey and reports reader state for it.
func unread(tx *txn.Txn, logKey, cursorKey string) (models.UnreadMessage, error) {
	msgs, err := messages.Load(tx, logKey)
	if err != nil {
		return models.UnreadMessage{}, err
	}
	cursor, err := Cursor(tx, cursorKey)
	if err != nil {
		return models.UnreadMessage{}, err
	}
	return models.UnreadMessage{Count: UnreadCount(msgs, cursor), LastSeen: cursor}, nil
}

// Summary reports unread state for reader across every channel and every
// chat reader takes part in. Threads are not tracked and stay empty.
func Summary(tx *txn.Txn, dir *directory.Directory, reader string) (models.UnreadMessageInfo, error) {
	tr := telemetry.Track("cursors.summary")
	defer tr.Finish()

	info := models.NewUnreadMessageInfo()

	channels, err := dir.Channels(tx)
	if err != nil {
		return info, err
	}
	for _, ch := range channels {
		u, err := unread(tx, directory.ChannelLogKey(ch.Name), directory.ChannelCursorKey(ch.Name, reader))
		if err != nil {
			return info, err
		}
		info.Channels[ch.Name] = u
	}
	tr.Mark("channels")

	chats, err := dir.ChatsOf(tx, reader)
	if err != nil {
		return info, err
	}
	for _, pair := range chats {
		u, err := unread(tx, directory.ChatLogKey(pair), directory.ChatCursorKey(pair, reader))
		if err != nil {
			return info, err
		}
		info.Chats[pair.Other(reader)] = u
	}
	tr.Mark("chats")
	return info, nil
}
