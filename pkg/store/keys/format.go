package keys

const (
	// notation dictionary for key formats:
	// s  = system
	// m  = member (activity)
	// k  = member key
	// n  = channel record, nl = channel log, nr = channel read cursor
	// c  = channel -> member
	// e  = member -> channel
	// t  = chat record, tl = chat log, tr = chat read cursor
	// h  = thread (replies to a parent message)
	// r  = reactions of a message
	// Segments are separated by ":" and query-escaped, so a variable
	// segment never contains ":".
	// <...> = variable segment (e.g. <channel>, <member>)

	// system
	SystemNameKey      = "s:name"
	SystemCreatedAtKey = "s:created_at"

	// identity
	MemberKey    = "m:%s" // m:<member>
	MemberKeyKey = "k:%s" // k:<member>

	// channels
	ChannelKey       = "n:%s"    // n:<channel>
	ChannelLogKey    = "nl:%s"   // nl:<channel>
	ChannelCursorKey = "nr:%s:%s" // nr:<channel>:<member>

	// membership mirrors
	ChannelMemberKey = "c:%s:%s" // c:<channel>:<member>
	MemberChannelKey = "e:%s:%s" // e:<member>:<channel>

	// chats, keyed by the canonical pair
	ChatKey       = "t:%s:%s"    // t:<low>:<high>
	ChatLogKey    = "tl:%s:%s"   // tl:<low>:<high>
	ChatCursorKey = "tr:%s:%s:%s" // tr:<low>:<high>:<member>

	// threads and reactions
	ThreadKey    = "h:%s" // h:<parent_msg_id>
	ReactionsKey = "r:%s" // r:<msg_id>

	// prefixes for scans
	MemberPrefix  = "m:"
	ChannelPrefix = "n:"
	ChatPrefix    = "t:"
)
