package keys

import (
	"fmt"
	"strings"
)

// ParseLastSegment returns the unescaped final segment of key after prefix.
// Used for set-style keys such as c:<channel>:<member>.
func ParseLastSegment(key, prefix string) (string, error) {
	if !strings.HasPrefix(key, prefix) {
		return "", fmt.Errorf("key %q does not start with %q", key, prefix)
	}
	rest := strings.TrimPrefix(key, prefix)
	if rest == "" || strings.Contains(rest, ":") {
		return "", fmt.Errorf("invalid key %q: expected one segment after %q", key, prefix)
	}
	return Unseg(rest)
}

// ParseChannelKey extracts the channel name from n:<channel>.
func ParseChannelKey(key string) (string, error) {
	return ParseLastSegment(key, ChannelPrefix)
}

// ParseMemberKey extracts the member id from m:<member>.
func ParseMemberKey(key string) (string, error) {
	return ParseLastSegment(key, MemberPrefix)
}

// ParseChatKey extracts the canonical pair from t:<low>:<high>.
func ParseChatKey(key string) (low, high string, err error) {
	if !strings.HasPrefix(key, ChatPrefix) {
		return "", "", fmt.Errorf("key %q is not a chat key", key)
	}
	parts := strings.Split(strings.TrimPrefix(key, ChatPrefix), ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid chat key %q", key)
	}
	if low, err = Unseg(parts[0]); err != nil {
		return "", "", err
	}
	if high, err = Unseg(parts[1]); err != nil {
		return "", "", err
	}
	return low, high, nil
}
