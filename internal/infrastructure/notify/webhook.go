package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cineops/ledger-api/internal/application/ledger"
)

var _ ledger.AlertNotifier = (*WebhookNotifier)(nil)

// WebhookNotifier publica eventos de alerta como POST JSON al colaborador
// externo (entrega at-least-once; el caller decide qué hacer ante fallos).
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier construye el notificador con timeout propio para no
// colgar la publicación post-commit.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Publish envía el evento. Cualquier status fuera de 2xx es error.
func (n *WebhookNotifier) Publish(ctx context.Context, event ledger.AlertEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post alert webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook respondió %d", resp.StatusCode)
	}
	return nil
}
