package messages

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"math/rand"
	"testing"

	"curbdb/pkg/models"
	"curbdb/pkg/store/db/storedb"
	"curbdb/pkg/store/txn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeIDDeterministic(t *testing.T) {
	a := MakeID("alice", "general", "hi", 100)
	b := MakeID("alice", "general", "hi", 100)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, MakeID("alice", "general", "hi", 101))
	assert.NotEqual(t, a, MakeID("bob", "general", "hi", 100))
	assert.NotEqual(t, a, MakeID("alice", "random", "hi", 100))
	assert.NotEqual(t, a, MakeID("alice", "general", "hey", 100))
}

func TestMakeIDByteLayout(t *testing.T) {
	// target || sender || text || big-endian u64
	raw := append([]byte("general"), []byte("alice")...)
	raw = append(raw, []byte("hi")...)
	raw = append(raw, 0, 0, 0, 0, 0, 0, 0, 100)
	sum := sha256.Sum256(raw)
	assert.Equal(t, hex.EncodeToString(sum[:]), MakeID("alice", "general", "hi", 100))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b models.Message
		want int
	}{
		{"timestamp first", models.Message{Timestamp: 1, Sender: "z"}, models.Message{Timestamp: 2, Sender: "a"}, -1},
		{"then sender", models.Message{Timestamp: 1, Sender: "a", ID: "z"}, models.Message{Timestamp: 1, Sender: "b", ID: "a"}, -1},
		{"then id", models.Message{Timestamp: 1, Sender: "a", ID: "b"}, models.Message{Timestamp: 1, Sender: "a", ID: "a"}, 1},
		{"then text", models.Message{Timestamp: 1, Sender: "a", ID: "a", Text: "x"}, models.Message{Timestamp: 1, Sender: "a", ID: "a", Text: "y"}, -1},
		{"equal", models.Message{Timestamp: 1, Sender: "a", ID: "a", Text: "x"}, models.Message{Timestamp: 1, Sender: "a", ID: "a", Text: "x"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
		})
	}
}

func TestInsertKeepsOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	senders := []string{"alice", "bob", "carol"}
	var msgs []models.Message
	for i := 0; i < 200; i++ {
		ts := uint64(rng.Intn(20))
		sender := senders[rng.Intn(len(senders))]
		text := string(rune('a' + rng.Intn(5)))
		m := models.Message{Timestamp: ts, Sender: sender, Text: text, ID: MakeID(sender, "general", text, ts)}
		msgs, _ = Insert(msgs, m)
		require.True(t, IsSorted(msgs), "unsorted after insert %d", i)
	}
	assert.Len(t, msgs, 200)
}

func TestInsertDuplicateLandsAdjacent(t *testing.T) {
	m := models.Message{Timestamp: 5, Sender: "alice", ID: "x", Text: "hi"}
	msgs := []models.Message{{Timestamp: 1}, m, {Timestamp: 9}}
	msgs, pos := Insert(msgs, m)
	assert.Equal(t, 1, pos)
	assert.Len(t, msgs, 4)
	assert.Equal(t, m, msgs[1])
	assert.Equal(t, m, msgs[2])
}

func TestFindPosition(t *testing.T) {
	msgs := []models.Message{{ID: "a"}, {ID: "b"}, {ID: "a"}, {ID: "c"}}
	assert.Equal(t, 2, FindPosition(msgs, "a"), "most recent match wins")
	assert.Equal(t, 3, FindPosition(msgs, "c"))
	assert.Equal(t, 0, FindPosition(msgs, "missing"), "unknown ids fall back to 0")
	assert.Equal(t, 0, FindPosition(nil, "a"))
}

func TestWindow(t *testing.T) {
	msgs := []models.Message{{ID: "0"}, {ID: "1"}, {ID: "2"}, {ID: "3"}}
	two := 2
	big := 10
	zero := 0
	assert.Len(t, Window(msgs, 0, nil), 4)
	assert.Equal(t, []models.Message{{ID: "2"}, {ID: "3"}}, Window(msgs, 2, nil))
	assert.Equal(t, []models.Message{{ID: "1"}, {ID: "2"}}, Window(msgs, 1, &two))
	assert.Len(t, Window(msgs, 3, &big), 1)
	assert.Empty(t, Window(msgs, 9, nil))
	assert.Empty(t, Window(msgs, 1, &zero))

	huge := math.MaxInt
	assert.Equal(t, msgs[1:], Window(msgs, 1, &huge))
	assert.Empty(t, Window(msgs, math.MaxInt, &huge))
}

func TestAppendPersists(t *testing.T) {
	s, err := storedb.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, txn.Update(s, func(tx *txn.Txn) error {
		require.NoError(t, Append(tx, "nl:general", models.Message{Timestamp: 2, Sender: "b", ID: "2"}))
		return Append(tx, "nl:general", models.Message{Timestamp: 1, Sender: "a", ID: "1"})
	}))
	require.NoError(t, txn.Read(s, func(tx *txn.Txn) error {
		msgs, err := Load(tx, "nl:general")
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "1", msgs[0].ID)
		assert.Equal(t, "2", msgs[1].ID)

		empty, err := Load(tx, "nl:missing")
		require.NoError(t, err)
		assert.Empty(t, empty)
		return nil
	}))
}
