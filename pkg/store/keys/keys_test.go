package keys

import (
	"strings"
	"testing"
)

func TestSegEscapesSeparator(t *testing.T) {
	names := []string{"general", "a:b", "rust & go", "ünï", "50%"}
	for _, n := range names {
		s := Seg(n)
		if strings.Contains(s, ":") {
			t.Fatalf("segment %q still contains separator", s)
		}
		back, err := Unseg(s)
		if err != nil {
			t.Fatalf("unseg %q: %v", s, err)
		}
		if back != n {
			t.Fatalf("round trip: got %q want %q", back, n)
		}
	}
}

func TestChannelKeys(t *testing.T) {
	k := GenChannelKey("a:b")
	if k != "n:a%3Ab" {
		t.Fatalf("unexpected channel key %q", k)
	}
	name, err := ParseChannelKey(k)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if name != "a:b" {
		t.Fatalf("got %q", name)
	}
	if _, err := ParseChannelKey("nl:general"); err == nil {
		t.Fatalf("expected log key to be rejected")
	}
}

func TestMemberPrefixesDoNotOverlap(t *testing.T) {
	// prefix of one channel must not match another channel that extends its name
	p := GenChannelMemberPrefix("dev")
	other := GenChannelMemberKey("devops", "alice")
	if strings.HasPrefix(other, p) {
		t.Fatalf("prefix %q matched %q", p, other)
	}
	m, err := ParseLastSegment(GenChannelMemberKey("dev", "alice.near"), p)
	if err != nil || m != "alice.near" {
		t.Fatalf("got %q, %v", m, err)
	}
}

func TestChatKey(t *testing.T) {
	k := GenChatKey("alice", "bob")
	low, high, err := ParseChatKey(k)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if low != "alice" || high != "bob" {
		t.Fatalf("got %q %q", low, high)
	}
	if _, _, err := ParseChatKey("tl:alice:bob"); err == nil {
		t.Fatalf("expected error for log key")
	}
	if _, _, err := ParseChatKey("t:alice"); err == nil {
		t.Fatalf("expected error for short key")
	}
}
