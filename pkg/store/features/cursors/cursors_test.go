package cursors

import (
	"testing"

	"curbdb/pkg/identity"
	"curbdb/pkg/models"
	"curbdb/pkg/store/db/storedb"
	"curbdb/pkg/store/features/directory"
	"curbdb/pkg/store/features/messages"
	"curbdb/pkg/store/txn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msgs(ids ...string) []models.Message {
	out := make([]models.Message, 0, len(ids))
	for i, id := range ids {
		out = append(out, models.Message{Timestamp: uint64(i), ID: id})
	}
	return out
}

func ptr(s string) *string { return &s }

func TestUnreadCount(t *testing.T) {
	log := msgs("a", "b", "c", "d")
	tests := []struct {
		name   string
		msgs   []models.Message
		cursor *string
		want   int
	}{
		{"no cursor", log, nil, 4},
		{"read tail", log, ptr("d"), 0},
		{"read middle", log, ptr("b"), 2},
		{"read first", log, ptr("a"), 3},
		// unknown ids resolve to position 0 and undercount by one
		{"unknown cursor", log, ptr("zzz"), 3},
		{"empty log with cursor", nil, ptr("a"), 0},
		{"empty log", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnreadCount(tt.msgs, tt.cursor))
		})
	}
}

func TestSummary(t *testing.T) {
	s, err := storedb.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()
	reg := identity.NewRegistry(0)
	dir := directory.New(reg)

	require.NoError(t, txn.Update(s, func(tx *txn.Txn) error {
		for _, m := range []string{"alice", "bob", "carol"} {
			require.NoError(t, reg.RegisterActivity(tx, m, 1, ""))
		}
		require.NoError(t, dir.Create(tx, "general", "alice", 1, false))
		require.NoError(t, dir.Create(tx, "dev", "alice", 1, true))
		require.NoError(t, messages.Save(tx, directory.ChannelLogKey("general"), msgs("g1", "g2", "g3")))

		pair := directory.CanonicalPair("bob", "alice")
		require.NoError(t, dir.EnsureChat(tx, pair, "alice", 1))
		require.NoError(t, messages.Save(tx, directory.ChatLogKey(pair), msgs("c1", "c2")))
		MarkRead(tx, directory.ChatCursorKey(pair, "bob"), "c1")

		other := directory.CanonicalPair("alice", "carol")
		require.NoError(t, dir.EnsureChat(tx, other, "alice", 1))
		MarkRead(tx, directory.ChannelCursorKey("general", "bob"), "g3")
		return nil
	}))

	require.NoError(t, txn.Read(s, func(tx *txn.Txn) error {
		info, err := Summary(tx, dir, "bob")
		require.NoError(t, err)

		assert.Equal(t, 0, info.Channels["general"].Count)
		require.NotNil(t, info.Channels["general"].LastSeen)
		assert.Equal(t, "g3", *info.Channels["general"].LastSeen)
		// every channel is reported, joined or not
		assert.Contains(t, info.Channels, "dev")
		assert.Equal(t, 0, info.Channels["dev"].Count)
		assert.Nil(t, info.Channels["dev"].LastSeen)

		require.Len(t, info.Chats, 1)
		assert.Equal(t, 1, info.Chats["alice"].Count)
		assert.Empty(t, info.Threads)

		info, err = Summary(tx, dir, "alice")
		require.NoError(t, err)
		assert.Equal(t, 3, info.Channels["general"].Count)
		assert.Len(t, info.Chats, 2)
		assert.Equal(t, 2, info.Chats["bob"].Count)
		assert.Equal(t, 0, info.Chats["carol"].Count)
		return nil
	}))
}
