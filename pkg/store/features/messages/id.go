package messages

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// MakeID derives the message id from target, sender, text and timestamp.
// target is the channel name or, for chats, the other party's identity.
// The digest input is target || sender || text || big-endian timestamp.
func MakeID(sender, target, text string, timestampMs uint64) string {
	h := sha256.New()
	h.Write([]byte(target))
	h.Write([]byte(sender))
	h.Write([]byte(text))
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], timestampMs)
	h.Write(ts[:])
	return hex.EncodeToString(h.Sum(nil))
}
