package messages

import (
	"sort"
	"strings"

	"curbdb/pkg/models"
)

// Compare orders messages by (timestamp, sender, id, text).
func Compare(a, b models.Message) int {
	switch {
	case a.Timestamp < b.Timestamp:
		return -1
	case a.Timestamp > b.Timestamp:
		return 1
	}
	if c := strings.Compare(a.Sender, b.Sender); c != 0 {
		return c
	}
	if c := strings.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return strings.Compare(a.Text, b.Text)
}

// Insert places m into the sorted log msgs and returns the new log with the
// index used. Duplicates are not rejected; an equal message lands before
// its equals.
func Insert(msgs []models.Message, m models.Message) ([]models.Message, int) {
	pos := sort.Search(len(msgs), func(i int) bool {
		return Compare(msgs[i], m) >= 0
	})
	msgs = append(msgs, models.Message{})
	copy(msgs[pos+1:], msgs[pos:])
	msgs[pos] = m
	return msgs, pos
}

// FindPosition returns the index of the most recent message with id,
// or 0 when there is none.
func FindPosition(msgs []models.Message, id string) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ID == id {
			return i
		}
	}
	return 0
}

// IsSorted reports whether msgs respects Compare.
func IsSorted(msgs []models.Message) bool {
	for i := 1; i < len(msgs); i++ {
		if Compare(msgs[i-1], msgs[i]) > 0 {
			return false
		}
	}
	return true
}

// Window returns msgs[offset:offset+length] clamped to the log; a nil length
// runs to the end.
func Window(msgs []models.Message, offset int, length *int) []models.Message {
	if offset < 0 {
		offset = 0
	}
	if offset > len(msgs) {
		offset = len(msgs)
	}
	end := len(msgs)
	if length != nil && *length >= 0 && *length < end-offset {
		end = offset + *length
	}
	return msgs[offset:end]
}
