package infra

import (
	"container/heap"
	"sync"
	"time"

	"moderation-gateway/middleware/ratelimit/domain"
)

// Blocklist guarda chaves bloqueadas indexadas por prazo de desbloqueio.
//
// Em vez de um timer por bloqueio, os prazos ficam num min-heap e são
// expirados a cada consulta (e pelo janitor via Expire).
type Blocklist struct {
	mu    sync.Mutex
	until map[domain.Key]time.Time
	queue expiryHeap
	now   func() time.Time
}

var _ domain.Blocklist = (*Blocklist)(nil)

func NewBlocklist() *Blocklist {
	return &Blocklist{until: make(map[domain.Key]time.Time), now: time.Now}
}

func (b *Blocklist) Block(key domain.Key, until time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cur, ok := b.until[key]; ok && !until.After(cur) {
		return
	}
	b.until[key] = until
	heap.Push(&b.queue, expiry{key: key, at: until})
}

func (b *Blocklist) Blocked(key domain.Key, now time.Time) (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.expireLocked(now)
	until, ok := b.until[key]
	return until, ok
}

// Contains informa se a chave está bloqueada agora.
func (b *Blocklist) Contains(key domain.Key) bool {
	_, ok := b.Blocked(key, b.now())
	return ok
}

func (b *Blocklist) Len(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.expireLocked(now)
	return len(b.until)
}

// Expire remove todos os bloqueios vencidos até now. Retorna quantos saíram.
func (b *Blocklist) Expire(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.expireLocked(now)
}

func (b *Blocklist) expireLocked(now time.Time) int {
	removed := 0
	for b.queue.Len() > 0 {
		top := b.queue[0]
		if now.Before(top.at) {
			break
		}
		heap.Pop(&b.queue)
		// entradas antigas de uma chave re-bloqueada ficam no heap; só a mais recente vale
		if cur, ok := b.until[top.key]; ok && cur.Equal(top.at) {
			delete(b.until, top.key)
			removed++
		}
	}
	return removed
}

type expiry struct {
	key domain.Key
	at  time.Time
}

type expiryHeap []expiry

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h expiryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *expiryHeap) Push(x any) { *h = append(*h, x.(expiry)) }

func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
