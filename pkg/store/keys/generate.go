package keys

import (
	"fmt"
	"net/url"
)

// Seg escapes a variable segment so it can never contain the separator.
func Seg(s string) string {
	return url.QueryEscape(s)
}

// Unseg reverses Seg.
func Unseg(s string) (string, error) {
	return url.QueryUnescape(s)
}

// identity
func GenMemberKey(member string) string {
	return fmt.Sprintf(MemberKey, Seg(member))
}

func GenMemberKeyKey(member string) string {
	return fmt.Sprintf(MemberKeyKey, Seg(member))
}

// channels
func GenChannelKey(channel string) string {
	return fmt.Sprintf(ChannelKey, Seg(channel))
}

func GenChannelLogKey(channel string) string {
	return fmt.Sprintf(ChannelLogKey, Seg(channel))
}

func GenChannelCursorKey(channel, member string) string {
	return fmt.Sprintf(ChannelCursorKey, Seg(channel), Seg(member))
}

func GenChannelCursorPrefix(channel string) string {
	return fmt.Sprintf("nr:%s:", Seg(channel))
}

// membership mirrors
func GenChannelMemberKey(channel, member string) string {
	return fmt.Sprintf(ChannelMemberKey, Seg(channel), Seg(member))
}

func GenChannelMemberPrefix(channel string) string {
	return fmt.Sprintf("c:%s:", Seg(channel))
}

func GenMemberChannelKey(member, channel string) string {
	return fmt.Sprintf(MemberChannelKey, Seg(member), Seg(channel))
}

func GenMemberChannelPrefix(member string) string {
	return fmt.Sprintf("e:%s:", Seg(member))
}

// chats
func GenChatKey(low, high string) string {
	return fmt.Sprintf(ChatKey, Seg(low), Seg(high))
}

func GenChatLogKey(low, high string) string {
	return fmt.Sprintf(ChatLogKey, Seg(low), Seg(high))
}

func GenChatCursorKey(low, high, member string) string {
	return fmt.Sprintf(ChatCursorKey, Seg(low), Seg(high), Seg(member))
}

// threads and reactions
func GenThreadKey(parentID string) string {
	return fmt.Sprintf(ThreadKey, Seg(parentID))
}

func GenReactionsKey(messageID string) string {
	return fmt.Sprintf(ReactionsKey, Seg(messageID))
}
