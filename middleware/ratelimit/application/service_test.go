package application

import (
	"testing"
	"time"

	"moderation-gateway/middleware/ratelimit/domain"
)

type fakeWindow struct {
	count int
	end   time.Time
}

type fakeWindows struct {
	m map[domain.Key]*fakeWindow
}

func newFakeWindows() *fakeWindows { return &fakeWindows{m: map[domain.Key]*fakeWindow{}} }

func (f *fakeWindows) Hit(key domain.Key, now time.Time, window time.Duration) (int, time.Time) {
	w, ok := f.m[key]
	if !ok {
		w = &fakeWindow{}
		f.m[key] = w
	}
	if now.After(w.end) {
		w.count = 0
		w.end = now.Add(window)
	}
	w.count++
	return w.count, w.end
}

func (f *fakeWindows) Len() int { return len(f.m) }

type fakeBlocklist struct {
	m map[domain.Key]time.Time
}

func newFakeBlocklist() *fakeBlocklist { return &fakeBlocklist{m: map[domain.Key]time.Time{}} }

func (b *fakeBlocklist) Blocked(key domain.Key, now time.Time) (time.Time, bool) {
	until, ok := b.m[key]
	if !ok || !now.Before(until) {
		delete(b.m, key)
		return time.Time{}, false
	}
	return until, true
}

func (b *fakeBlocklist) Block(key domain.Key, until time.Time) { b.m[key] = until }
func (b *fakeBlocklist) Len(time.Time) int                     { return len(b.m) }

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(c *clock) Service {
	return Service{
		Windows:       newFakeWindows(),
		Blocklist:     newFakeBlocklist(),
		Limit:         100,
		Window:        60 * time.Second,
		BlockDuration: 900 * time.Second,
		Now:           c.Now,
	}
}

func TestService_Decide_AllowsWhenNoStore(t *testing.T) {
	svc := Service{}
	dec := svc.Decide("k")
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if dec.RetryAfter != 0 {
		t.Fatalf("expected RetryAfter=0 when allowed, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_RemainingDecreasesByOne(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(c)

	for i := 1; i <= 100; i++ {
		dec := svc.Decide("I1")
		if !dec.Allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
		if dec.Remaining != 100-i {
			t.Fatalf("request %d: expected remaining=%d, got %d", i, 100-i, dec.Remaining)
		}
		if dec.Limit != 100 {
			t.Fatalf("expected limit=100, got %d", dec.Limit)
		}
		if !dec.ResetAt.Equal(c.t.Add(60 * time.Second)) {
			t.Fatalf("expected resetAt at window end, got %s", dec.ResetAt)
		}
	}
}

func TestService_Decide_BlacklistsAfterThresholdUntilBlockExpires(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(c)

	for i := 0; i < 100; i++ {
		if !svc.Decide("I1").Allowed {
			t.Fatalf("expected request %d to be allowed", i+1)
		}
	}

	dec := svc.Decide("I1")
	if dec.Allowed || !dec.Blocked {
		t.Fatalf("expected request 101 to be blocked, got %+v", dec)
	}
	if dec.RetryAfter != 900*time.Second {
		t.Fatalf("expected RetryAfter=900s, got %s", dec.RetryAfter)
	}
	if got := svc.Stats().Blacklisted; got != 1 {
		t.Fatalf("expected 1 blacklisted key, got %d", got)
	}

	// outra chave não é afetada
	if !svc.Decide("I2").Allowed {
		t.Fatalf("expected other key to be allowed")
	}

	c.Advance(899 * time.Second)
	if svc.Decide("I1").Allowed {
		t.Fatalf("expected key to remain blocked at t+899s")
	}

	c.Advance(2 * time.Second)
	dec = svc.Decide("I1")
	if !dec.Allowed {
		t.Fatalf("expected key to be allowed at t+901s, got %+v", dec)
	}
	if dec.Remaining != 99 {
		t.Fatalf("expected fresh window with remaining=99, got %d", dec.Remaining)
	}
}

func TestService_Decide_WindowRollsOver(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(c)
	svc.Limit = 2

	svc.Decide("k")
	svc.Decide("k")

	c.Advance(61 * time.Second)
	dec := svc.Decide("k")
	if !dec.Allowed || dec.Remaining != 1 {
		t.Fatalf("expected new window after rollover, got %+v", dec)
	}
}

func TestService_Decide_DeniesWithoutBlocklist(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	svc := Service{Windows: newFakeWindows(), Limit: 1, Now: c.Now}

	svc.Decide("k")
	dec := svc.Decide("k")
	if dec.Allowed {
		t.Fatalf("expected second request to be denied")
	}
	if dec.Blocked {
		t.Fatalf("expected Blocked=false without a blocklist")
	}
}

func TestService_Stats_CountsTrackedKeys(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(c)

	svc.Decide("a")
	svc.Decide("b")
	svc.Decide("a")

	st := svc.Stats()
	if st.Tracked != 2 {
		t.Fatalf("expected 2 tracked keys, got %d", st.Tracked)
	}
	if st.Blacklisted != 0 {
		t.Fatalf("expected no blacklisted keys, got %d", st.Blacklisted)
	}
}
