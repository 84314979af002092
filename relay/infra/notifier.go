package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"moderation-gateway/relay/domain"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	colorSuccess = 0x2ecc71
	colorFailure = 0xe74c3c

	maxFieldLen = 1024
)

// WebhookNotifier envia um resumo de cada entrada do log para um webhook no
// formato de embed (title, fields, timestamp, footer).
//
// Notify só enfileira; um worker entrega respeitando um token bucket
// (x/time/rate) para não estourar o limite do destino. Fila cheia descarta a
// entrada com um warning. Falhas nunca voltam para quem chamou.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	queue   chan domain.LogEntry
	log     zerolog.Logger
	result  func(outcome string)

	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

var _ domain.Notifier = (*WebhookNotifier)(nil)

type WebhookOption func(*WebhookNotifier)

func WithWebhookRate(rps float64, burst int) WebhookOption {
	return func(n *WebhookNotifier) {
		if rps <= 0 {
			n.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst <= 0 {
			burst = 1
		}
		n.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithWebhookQueue(size int) WebhookOption {
	return func(n *WebhookNotifier) {
		if size > 0 {
			n.queue = make(chan domain.LogEntry, size)
		}
	}
}

// WithWebhookTimeout limita cada POST. Vale também com WithWebhookClient: o
// timeout vai para uma cópia, o client de quem chamou não é alterado.
func WithWebhookTimeout(d time.Duration) WebhookOption {
	return func(n *WebhookNotifier) { n.timeout = d }
}

func WithWebhookClient(c *http.Client) WebhookOption {
	return func(n *WebhookNotifier) {
		if c != nil {
			n.client = c
		}
	}
}

// WithWebhookResult registra um callback com o resultado de cada entrega
// ("sent", "failed", "dropped"). Usado para métricas.
func WithWebhookResult(fn func(outcome string)) WebhookOption {
	return func(n *WebhookNotifier) { n.result = fn }
}

func NewWebhookNotifier(url string, log zerolog.Logger, opts ...WebhookOption) *WebhookNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &WebhookNotifier{
		url:     url,
		client:  http.DefaultClient,
		timeout: 5 * time.Second,
		limiter: rate.NewLimiter(rate.Limit(0.5), 5),
		queue:   make(chan domain.LogEntry, 256),
		log:     log,
		result:  func(string) {},
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.timeout > 0 && n.client.Timeout != n.timeout {
		c := *n.client
		c.Timeout = n.timeout
		n.client = &c
	}
	go n.run()
	return n
}

func (n *WebhookNotifier) Notify(entry domain.LogEntry) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}

	select {
	case n.queue <- entry:
	default:
		n.result("dropped")
		n.log.Warn().Str("entry_id", entry.ID).Str("command", entry.Command).Msg("notification queue full, dropping entry")
	}
}

// Close para de aceitar entradas e espera a fila esvaziar até ctx encerrar;
// depois disso as entregas pendentes são abortadas.
func (n *WebhookNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	select {
	case <-n.done:
		n.cancel()
		return nil
	case <-ctx.Done():
		n.cancel()
		<-n.done
		return ctx.Err()
	}
}

func (n *WebhookNotifier) run() {
	defer close(n.done)
	for entry := range n.queue {
		if err := n.limiter.Wait(n.ctx); err != nil {
			n.result("dropped")
			continue
		}
		if err := n.send(n.ctx, entry); err != nil {
			n.result("failed")
			n.log.Warn().Err(err).Str("entry_id", entry.ID).Str("command", entry.Command).Msg("notification delivery failed")
			continue
		}
		n.result("sent")
	}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Timestamp string       `json:"timestamp"`
	Footer    embedFooter  `json:"footer"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

func buildPayload(entry domain.LogEntry) webhookPayload {
	status, color := "Success", colorSuccess
	if !entry.Success {
		status, color = "Failed", colorFailure
	}
	target := entry.Target
	if target == "" {
		target = "-"
	}
	details := entry.Details
	if details == "" {
		details = "-"
	}

	return webhookPayload{Embeds: []embed{{
		Title: entry.Command,
		Color: color,
		Fields: []embedField{
			{Name: "Executor", Value: truncate(entry.Executor, maxFieldLen), Inline: true},
			{Name: "Target", Value: truncate(target, maxFieldLen), Inline: true},
			{Name: "Status", Value: status, Inline: true},
			{Name: "Details", Value: truncate(details, maxFieldLen)},
		},
		Timestamp: entry.Timestamp.UTC().Format(time.RFC3339),
		Footer:    embedFooter{Text: "Game: " + entry.TenantKey.Redacted()},
	}}}
}

func (n *WebhookNotifier) send(ctx context.Context, entry domain.LogEntry) error {
	body, err := json.Marshal(buildPayload(entry))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from webhook", resp.StatusCode)
	}
	return nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
