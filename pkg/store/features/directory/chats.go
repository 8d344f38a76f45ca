package directory

import (
	"curbdb/pkg/models"
	"curbdb/pkg/store/keys"
	"curbdb/pkg/store/txn"
)

// CanonicalPair orders two identities so either caller addresses the same chat.
func CanonicalPair(a, b string) models.ChatPair {
	if b < a {
		a, b = b, a
	}
	return models.ChatPair{Low: a, High: b}
}

// Chat returns the chat record for pair.
func (d *Directory) Chat(tx *txn.Txn, pair models.ChatPair) (models.Conversation, bool, error) {
	var conv models.Conversation
	found, err := tx.GetJSON(keys.GenChatKey(pair.Low, pair.High), &conv)
	return conv, found, err
}

// EnsureChat creates the private chat record for pair if it does not exist.
func (d *Directory) EnsureChat(tx *txn.Txn, pair models.ChatPair, creator string, now uint64) error {
	_, found, err := d.Chat(tx, pair)
	if err != nil || found {
		return err
	}
	conv := models.Conversation{
		IsPublic: false,
		Meta:     models.ChannelMetadata{CreatedAt: now, CreatedBy: creator},
	}
	return tx.SetJSON(keys.GenChatKey(pair.Low, pair.High), conv)
}

// ChatsOf lists every chat in which member is one of the two parties.
func (d *Directory) ChatsOf(tx *txn.Txn, member string) ([]models.ChatPair, error) {
	out := []models.ChatPair{}
	err := tx.Scan(keys.ChatPrefix, func(k string, _ []byte) error {
		low, high, err := keys.ParseChatKey(k)
		if err != nil {
			return err
		}
		pair := models.ChatPair{Low: low, High: high}
		if pair.Has(member) {
			out = append(out, pair)
		}
		return nil
	})
	return out, err
}

// ChatLogKey is the key of a chat's message log.
func ChatLogKey(pair models.ChatPair) string {
	return keys.GenChatLogKey(pair.Low, pair.High)
}

// ChatCursorKey is the key of member's read cursor in a chat.
func ChatCursorKey(pair models.ChatPair, member string) string {
	return keys.GenChatCursorKey(pair.Low, pair.High, member)
}
