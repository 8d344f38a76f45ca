// Package identity keeps the member set, each member's activity clock and
// registered key.
package identity

import (
	"encoding/json"
	"time"

	"curbdb/pkg/models"
	"curbdb/pkg/store/keys"
	"curbdb/pkg/store/txn"

	"github.com/pkg/errors"
)

// DefaultActiveThreshold is how recently a member must have been seen to
// count as active.
const DefaultActiveThreshold = 30 * time.Second

// MembershipChecker answers whether an identity is registered.
type MembershipChecker interface {
	IsMember(tx *txn.Txn, id string) (bool, error)
}

var errStopScan = errors.New("stop scan")

// Registry is the pebble-backed identity collaborator.
type Registry struct {
	thresholdMs uint64
}

// NewRegistry returns a registry using threshold for IsActive; zero means
// DefaultActiveThreshold.
func NewRegistry(threshold time.Duration) *Registry {
	if threshold <= 0 {
		threshold = DefaultActiveThreshold
	}
	return &Registry{thresholdMs: uint64(threshold.Milliseconds())}
}

// IsMember reports whether id has joined.
func (r *Registry) IsMember(tx *txn.Txn, id string) (bool, error) {
	return tx.Has(keys.GenMemberKey(id))
}

// RegisterActivity stamps id's activity clock with now and records key when
// one is supplied. It registers id if it was not yet a member.
func (r *Registry) RegisterActivity(tx *txn.Txn, id string, now uint64, key string) error {
	if err := tx.SetJSON(keys.GenMemberKey(id), models.Member{LastActivity: now}); err != nil {
		return err
	}
	if key != "" {
		tx.Set(keys.GenMemberKeyKey(id), []byte(key))
	}
	return nil
}

// LastActivity returns id's last activity time.
func (r *Registry) LastActivity(tx *txn.Txn, id string) (uint64, bool, error) {
	var m models.Member
	found, err := tx.GetJSON(keys.GenMemberKey(id), &m)
	if err != nil || !found {
		return 0, found, err
	}
	return m.LastActivity, true, nil
}

// IsActive reports whether id was seen within the threshold before now.
func (r *Registry) IsActive(tx *txn.Txn, id string, now uint64) (bool, error) {
	last, found, err := r.LastActivity(tx, id)
	if err != nil || !found {
		return false, err
	}
	return r.Active(last, now), nil
}

// Active applies the activity threshold to a recorded timestamp.
func (r *Registry) Active(last, now uint64) bool {
	if now < last {
		return true
	}
	return now-last < r.thresholdMs
}

// HasMembers reports whether anyone has joined yet.
func (r *Registry) HasMembers(tx *txn.Txn) (bool, error) {
	found := false
	err := tx.Scan(keys.MemberPrefix, func(string, []byte) error {
		found = true
		return errStopScan
	})
	if err != nil && err != errStopScan {
		return false, err
	}
	return found, nil
}

// Members lists every member with its activity state at now.
func (r *Registry) Members(tx *txn.Txn, now uint64) ([]models.UserInfo, error) {
	out := []models.UserInfo{}
	err := tx.Scan(keys.MemberPrefix, func(k string, v []byte) error {
		id, err := keys.ParseMemberKey(k)
		if err != nil {
			return err
		}
		var m models.Member
		if err := json.Unmarshal(v, &m); err != nil {
			return errors.Wrapf(err, "decode member %s", id)
		}
		out = append(out, models.UserInfo{ID: id, Active: r.Active(m.LastActivity, now)})
		return nil
	})
	return out, err
}

// Key returns the key registered by id.
func (r *Registry) Key(tx *txn.Txn, id string) (string, bool, error) {
	v, found, err := tx.Get(keys.GenMemberKeyKey(id))
	if err != nil || !found {
		return "", found, err
	}
	return string(v), true, nil
}
