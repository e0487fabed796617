package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cineops/ledger-api/internal/application/ledger"
)

var _ ledger.AlertNotifier = (*RedisNotifier)(nil)

// RedisNotifier publica eventos de alerta en un canal pub/sub de Redis, para
// entornos donde el colaborador consume por cola en lugar de webhook.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier construye el notificador sobre una conexión Redis.
func NewRedisNotifier(addr, channel string) *RedisNotifier {
	return &RedisNotifier{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
	}
}

// Publish serializa el evento y lo publica en el canal.
func (n *RedisNotifier) Publish(ctx context.Context, event ledger.AlertEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, body).Err(); err != nil {
		return fmt.Errorf("publish alert redis: %w", err)
	}
	return nil
}

// Close cierra la conexión Redis.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

// NopNotifier descarta los eventos (modo "off" y tests).
type NopNotifier struct{}

// Publish no hace nada.
func (NopNotifier) Publish(context.Context, ledger.AlertEvent) error { return nil }
