// Package threads keeps reply lists anchored to a parent message id.
package threads

import (
	"curbdb/pkg/models"
	"curbdb/pkg/store/features/messages"
	"curbdb/pkg/store/keys"
	"curbdb/pkg/store/txn"
)

// AppendReply inserts reply into the thread of parentID, creating it when
// absent. The parent itself is not looked up.
func AppendReply(tx *txn.Txn, parentID string, reply models.Message) error {
	return messages.Append(tx, keys.GenThreadKey(parentID), reply)
}

// Get returns the ordered replies to parentID, empty when there are none.
func Get(tx *txn.Txn, parentID string) ([]models.Message, error) {
	return messages.Load(tx, keys.GenThreadKey(parentID))
}
