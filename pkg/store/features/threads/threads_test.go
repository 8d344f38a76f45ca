package threads

import (
	"testing"

	"curbdb/pkg/models"
	"curbdb/pkg/store/db/storedb"
	"curbdb/pkg/store/txn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendReplyOrdersAndIsolates(t *testing.T) {
	s, err := storedb.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, txn.Update(s, func(tx *txn.Txn) error {
		require.NoError(t, AppendReply(tx, "parent-1", models.Message{Timestamp: 20, Sender: "bob", ID: "r2"}))
		require.NoError(t, AppendReply(tx, "parent-1", models.Message{Timestamp: 10, Sender: "carol", ID: "r1"}))
		// parent does not need to exist
		return AppendReply(tx, "no-such-parent", models.Message{Timestamp: 5, Sender: "bob", ID: "r3"})
	}))

	require.NoError(t, txn.Read(s, func(tx *txn.Txn) error {
		replies, err := Get(tx, "parent-1")
		require.NoError(t, err)
		require.Len(t, replies, 2)
		assert.Equal(t, "r1", replies[0].ID)
		assert.Equal(t, "r2", replies[1].ID)

		orphan, err := Get(tx, "no-such-parent")
		require.NoError(t, err)
		assert.Len(t, orphan, 1)

		none, err := Get(tx, "parent-2")
		require.NoError(t, err)
		assert.Empty(t, none)
		return nil
	}))
}

func TestGetDoesNotCreate(t *testing.T) {
	s, err := storedb.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	tx, err := txn.Begin(s)
	require.NoError(t, err)
	defer tx.Discard()
	_, err = Get(tx, "parent-1")
	require.NoError(t, err)
	assert.Zero(t, tx.Pending())
}
