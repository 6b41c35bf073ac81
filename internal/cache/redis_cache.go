package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// MostConsumedKey is the hot cache entry for the default most-consumed
// query. Parameterized queries are computed per request.
const MostConsumedKey = "medicines:mostconsumed:default"

const updatesChannel = "sales_updates"

// Manager layers an in-process cache over Redis. When Redis is unreachable
// the local tier still works, so a single service instance keeps its cache;
// cross-instance invalidation then degrades silently.
type Manager struct {
	redisClient *redis.Client
	localCache  *cache.Cache
	pubSub      *redis.PubSub
	ctx         context.Context
	mu          sync.RWMutex
}

func New(redisURL string) *Manager {
	m := &Manager{
		ctx:        context.Background(),
		localCache: cache.New(5*time.Minute, 10*time.Minute),
	}
	m.initialize(redisURL)
	return m
}

func (m *Manager) initialize(redisURL string) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{
			Addr: redisURL,
		}
	}

	m.redisClient = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
	defer cancel()

	if err := m.redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using local cache only")
		m.redisClient = nil
		return
	}

	log.Info().Msg("redis connection established")

	m.pubSub = m.redisClient.Subscribe(m.ctx, updatesChannel)
	go m.listenForUpdates()
}

func (m *Manager) listenForUpdates() {
	if m.pubSub == nil {
		return
	}

	ch := m.pubSub.Channel()
	for msg := range ch {
		m.handleUpdateMessage(msg.Payload)
	}
}

func (m *Manager) handleUpdateMessage(payload string) {
	var update struct {
		Action     string `json:"action"`
		MedicineID int64  `json:"medicine_id"`
		Timestamp  int64  `json:"timestamp"`
	}

	if err := json.Unmarshal([]byte(payload), &update); err != nil {
		log.Error().Err(err).Msg("failed to parse sales update message")
		return
	}

	// Sales changed, so every cached aggregation is stale.
	cacheKeys := []string{
		MostConsumedKey,
		fmt.Sprintf("medicine:%d", update.MedicineID),
	}

	for _, key := range cacheKeys {
		m.Delete(key)
	}
}

func (m *Manager) Set(key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.localCache.Set(key, value, ttl)

	if m.redisClient != nil {
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
		defer cancel()

		return m.redisClient.Set(ctx, key, data, ttl).Err()
	}

	return nil
}

func (m *Manager) Get(key string, target interface{}) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if val, found := m.localCache.Get(key); found {
		data, err := json.Marshal(val)
		if err != nil {
			return false, err
		}
		return true, json.Unmarshal(data, target)
	}

	if m.redisClient != nil {
		ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
		defer cancel()

		data, err := m.redisClient.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return false, nil
		} else if err != nil {
			return false, err
		}

		m.localCache.Set(key, json.RawMessage(data), 5*time.Minute)

		return true, json.Unmarshal(data, target)
	}

	return false, nil
}

func (m *Manager) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.localCache.Delete(key)

	if m.redisClient != nil {
		ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
		defer cancel()
		return m.redisClient.Del(ctx, key).Err()
	}

	return nil
}

// PublishUpdate tells every service instance that a medicine's sales
// history changed. The local tier is invalidated directly so a process
// without Redis stays consistent with itself.
func (m *Manager) PublishUpdate(medicineID int64) {
	m.localCache.Delete(MostConsumedKey)
	m.localCache.Delete(fmt.Sprintf("medicine:%d", medicineID))

	if m.redisClient == nil {
		return
	}

	update := map[string]interface{}{
		"action":      "sales_updated",
		"medicine_id": medicineID,
		"timestamp":   time.Now().Unix(),
	}

	data, _ := json.Marshal(update)
	ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
	defer cancel()

	m.redisClient.Publish(ctx, updatesChannel, data)
}

func (m *Manager) IsAvailable() bool {
	return m.redisClient != nil
}
