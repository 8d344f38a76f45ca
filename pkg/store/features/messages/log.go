package messages

import (
	"curbdb/pkg/logger"
	"curbdb/pkg/models"
	"curbdb/pkg/store/txn"
	"curbdb/pkg/telemetry"
)

// Load returns the log stored at key, empty when absent.
func Load(tx *txn.Txn, key string) ([]models.Message, error) {
	var msgs []models.Message
	if _, err := tx.GetJSON(key, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Save stages the log at key.
func Save(tx *txn.Txn, key string, msgs []models.Message) error {
	if msgs == nil {
		msgs = []models.Message{}
	}
	return tx.SetJSON(key, msgs)
}

// Append loads the log at key, inserts m in order and stages the result.
func Append(tx *txn.Txn, key string, m models.Message) error {
	tr := telemetry.Track("messages.append")
	defer tr.Finish()

	msgs, err := Load(tx, key)
	if err != nil {
		return err
	}
	tr.Mark("load")
	msgs, pos := Insert(msgs, m)
	logger.Debug("message_inserted", "log", key, "pos", pos, "len", len(msgs), "id", m.ID, "text", logger.Preview(m.Text))
	return Save(tx, key, msgs)
}
