package reactions

import (
	"testing"

	"curbdb/pkg/models"
	"curbdb/pkg/store/db/storedb"
	"curbdb/pkg/store/txn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleIsSelfInverse(t *testing.T) {
	s, err := storedb.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	var before models.Reactions
	require.NoError(t, txn.Update(s, func(tx *txn.Txn) error {
		_, err := Toggle(tx, "m1", "👍", "alice")
		require.NoError(t, err)
		before, err = For(tx, "m1")
		return err
	}))
	assert.Equal(t, models.Reactions{"👍": {"alice"}}, before)

	require.NoError(t, txn.Update(s, func(tx *txn.Txn) error {
		now, err := Toggle(tx, "m1", "👍", "bob")
		require.NoError(t, err)
		assert.True(t, now)
		now, err = Toggle(tx, "m1", "👍", "bob")
		require.NoError(t, err)
		assert.False(t, now)
		return nil
	}))

	require.NoError(t, txn.Read(s, func(tx *txn.Txn) error {
		after, err := For(tx, "m1")
		require.NoError(t, err)
		assert.Equal(t, before, after)
		return nil
	}))
}

func TestEmptyLabelIsKept(t *testing.T) {
	s, err := storedb.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, txn.Update(s, func(tx *txn.Txn) error {
		_, err := Toggle(tx, "m1", "🎉", "alice")
		require.NoError(t, err)
		_, err = Toggle(tx, "m1", "🎉", "alice")
		return err
	}))
	require.NoError(t, txn.Read(s, func(tx *txn.Txn) error {
		r, err := For(tx, "m1")
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, []string{}, r["🎉"])

		none, err := For(tx, "m2")
		require.NoError(t, err)
		assert.Nil(t, none)
		return nil
	}))
}

func TestReactorOrderPreserved(t *testing.T) {
	s, err := storedb.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, txn.Update(s, func(tx *txn.Txn) error {
		for _, who := range []string{"alice", "bob", "carol"} {
			if _, err := Toggle(tx, "m1", "+1", who); err != nil {
				return err
			}
		}
		_, err := Toggle(tx, "m1", "+1", "bob")
		return err
	}))
	require.NoError(t, txn.Read(s, func(tx *txn.Txn) error {
		r, err := For(tx, "m1")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "carol"}, r["+1"])
		return nil
	}))
}
