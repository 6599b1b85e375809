package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/port"
)

// stateTTL keeps published node state visible slightly longer than the
// monitoring interval so stale entries fall out on their own.
const stateTTL = 30 * time.Second

type statePublisher struct {
	client redis.UniversalClient
	log    *zap.Logger
}

// NewStatePublisher creates a Redis adapter that exposes live node state
// under node:* keys with a heartbeat TTL.
func NewStatePublisher(client redis.UniversalClient, log *zap.Logger) port.StatePublisher {
	return &statePublisher{
		client: client,
		log:    log,
	}
}

// PublishNodeState saves the node snapshot and extends its TTL
func (p *statePublisher) PublishNodeState(ctx context.Context, snapshot domain.NodeSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("node:%s", snapshot.NodeID)
	return p.client.Set(ctx, key, data, stateTTL).Err()
}

// ActiveNodes reads every node snapshot whose heartbeat has not expired.
func ActiveNodes(ctx context.Context, client redis.UniversalClient) ([]domain.NodeSnapshot, error) {
	keys, err := client.Keys(ctx, "node:*").Result()
	if err != nil {
		return nil, err
	}

	var nodes []domain.NodeSnapshot
	for _, key := range keys {
		val, err := client.Get(ctx, key).Result()
		if err != nil {
			continue // Skip expired/deleted keys race condition
		}

		var snap domain.NodeSnapshot
		if err := json.Unmarshal([]byte(val), &snap); err == nil {
			nodes = append(nodes, snap)
		}
	}
	return nodes, nil
}
