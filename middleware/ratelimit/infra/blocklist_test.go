package infra

import (
	"testing"
	"time"

	"moderation-gateway/middleware/ratelimit/domain"
)

func TestBlocklist_BlockedUntilDeadline(t *testing.T) {
	b := NewBlocklist()
	now := time.Unix(1_700_000_000, 0)
	b.Block(domain.Key("k"), now.Add(900*time.Second))

	if _, ok := b.Blocked(domain.Key("k"), now.Add(899*time.Second)); !ok {
		t.Fatalf("expected key to be blocked before deadline")
	}
	if _, ok := b.Blocked(domain.Key("k"), now.Add(900*time.Second)); ok {
		t.Fatalf("expected key to be released at deadline")
	}
	if n := b.Len(now.Add(901 * time.Second)); n != 0 {
		t.Fatalf("expected empty blocklist, got %d", n)
	}
}

func TestBlocklist_ReblockKeepsLatestDeadline(t *testing.T) {
	b := NewBlocklist()
	now := time.Unix(1_700_000_000, 0)

	b.Block(domain.Key("k"), now.Add(10*time.Second))
	b.Block(domain.Key("k"), now.Add(20*time.Second))
	b.Block(domain.Key("k"), now.Add(15*time.Second))

	// a entrada antiga (10s) sai do heap mas não pode liberar a chave
	if _, ok := b.Blocked(domain.Key("k"), now.Add(12*time.Second)); !ok {
		t.Fatalf("expected key still blocked after stale heap entry expired")
	}
	until, ok := b.Blocked(domain.Key("k"), now.Add(19*time.Second))
	if !ok || !until.Equal(now.Add(20*time.Second)) {
		t.Fatalf("expected deadline at +20s, got %s ok=%v", until, ok)
	}
}

func TestBlocklist_ExpireRemovesInDeadlineOrder(t *testing.T) {
	b := NewBlocklist()
	now := time.Unix(1_700_000_000, 0)

	b.Block(domain.Key("c"), now.Add(30*time.Second))
	b.Block(domain.Key("a"), now.Add(10*time.Second))
	b.Block(domain.Key("b"), now.Add(20*time.Second))

	if n := b.Expire(now.Add(25 * time.Second)); n != 2 {
		t.Fatalf("expected 2 expired entries, got %d", n)
	}
	if _, ok := b.Blocked(domain.Key("c"), now.Add(25*time.Second)); !ok {
		t.Fatalf("expected c to remain blocked")
	}
}
