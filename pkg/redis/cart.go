package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"metitejidos.com.ar/storefront/pkg/cart"
	"metitejidos.com.ar/storefront/pkg/checkout"
)

const defaultCartTTL = 72 * time.Hour

// CartStore keeps each session's checkout flow in a hash at cart:{session}.
// Fields: entries (JSON array), step, item_count, total, last_updated.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	return &CartStore{client: client, ttl: ttl}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// Load returns the session's flow, or a fresh one in the cart step when
// nothing is stored.
func (s *CartStore) Load(ctx context.Context, sessionID string) (*checkout.Flow, error) {
	data, err := s.client.HGetAll(ctx, cartKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", sessionID, err)
	}

	flow := checkout.NewFlow(sessionID)
	if len(data) == 0 {
		return flow, nil
	}

	if raw, ok := data["entries"]; ok && raw != "" {
		var entries []cart.Entry
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return nil, fmt.Errorf("decode cart %s: %w", sessionID, err)
		}
		flow.Cart.Entries = entries
	}
	if step := checkout.State(data["step"]); step == checkout.StateCheckout {
		flow.State = step
	}
	return flow, nil
}

// Save writes the flow and refreshes its TTL in one transaction.
func (s *CartStore) Save(ctx context.Context, flow *checkout.Flow) error {
	entries, err := json.Marshal(flow.Cart.Entries)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", flow.Cart.SessionID, err)
	}

	key := cartKey(flow.Cart.SessionID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"entries":      string(entries),
		"step":         string(flow.State),
		"item_count":   flow.Cart.ItemCount(),
		"total":        flow.Cart.Total().StringFixed(2),
		"last_updated": time.Now().UTC().Format(time.RFC3339),
	})
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save cart %s: %w", flow.Cart.SessionID, err)
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete cart %s: %w", sessionID, err)
	}
	return nil
}
