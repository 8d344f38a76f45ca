// Package reactions keeps, per message, the identities that reacted with
// each label.
package reactions

import (
	"curbdb/pkg/models"
	"curbdb/pkg/store/keys"
	"curbdb/pkg/store/txn"
	"curbdb/pkg/telemetry"
)

// entry is the stored form of a message's reaction index. Order keeps labels
// in first-use order; a label stays listed after its last reactor leaves.
type entry struct {
	Order    []string            `json:"order"`
	Reactors map[string][]string `json:"reactors"`
}

func load(tx *txn.Txn, messageID string) (*entry, bool, error) {
	var e entry
	found, err := tx.GetJSON(keys.GenReactionsKey(messageID), &e)
	if err != nil || !found {
		return nil, found, err
	}
	if e.Reactors == nil {
		e.Reactors = map[string][]string{}
	}
	return &e, true, nil
}

// Toggle flips actor's presence under label on messageID and reports whether
// the actor is now present.
func Toggle(tx *txn.Txn, messageID, label, actor string) (bool, error) {
	tr := telemetry.Track("reactions.toggle")
	defer tr.Finish()

	e, found, err := load(tx, messageID)
	if err != nil {
		return false, err
	}
	if !found {
		e = &entry{Reactors: map[string][]string{}}
	}
	set, ok := e.Reactors[label]
	if !ok {
		e.Order = append(e.Order, label)
		set = []string{}
	}

	present := false
	for i, id := range set {
		if id == actor {
			set = append(set[:i], set[i+1:]...)
			present = true
			break
		}
	}
	if !present {
		set = append(set, actor)
	}
	e.Reactors[label] = set

	if err := tx.SetJSON(keys.GenReactionsKey(messageID), e); err != nil {
		return false, err
	}
	return !present, nil
}

// For returns the reactions recorded for messageID, nil when none were ever
// recorded.
func For(tx *txn.Txn, messageID string) (models.Reactions, error) {
	e, found, err := load(tx, messageID)
	if err != nil || !found {
		return nil, err
	}
	out := make(models.Reactions, len(e.Reactors))
	for _, label := range e.Order {
		out[label] = append([]string{}, e.Reactors[label]...)
	}
	return out, nil
}
