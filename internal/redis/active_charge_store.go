package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveCharge is cached per occupied station for quick dashboard lookups.
type ActiveCharge struct {
	TransactionID string `json:"transaction_id"`
	StationID     int64  `json:"station_id"`
	AccountID     int64  `json:"account_id"`
	AmountMinor   int64  `json:"amount_minor"`
}

// Store manages the active charge cache.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(stationID int64) string {
	return fmt.Sprintf("charges:active:%d", stationID)
}

// SaveActive caches the charge under its station.
func (s *Store) SaveActive(ctx context.Context, transactionID string, stationID, accountID, amountMinor int64) error {
	data, err := json.Marshal(ActiveCharge{
		TransactionID: transactionID,
		StationID:     stationID,
		AccountID:     accountID,
		AmountMinor:   amountMinor,
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(stationID), data, s.ttl).Err()
}

// Get returns the cached charge for a station.
func (s *Store) Get(ctx context.Context, stationID int64) (*ActiveCharge, error) {
	result, err := s.client.Get(ctx, s.key(stationID)).Result()
	if err != nil {
		return nil, err
	}
	var charge ActiveCharge
	if err := json.Unmarshal([]byte(result), &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

// DeleteActive removes the cached charge once the station is released.
func (s *Store) DeleteActive(ctx context.Context, stationID int64) error {
	return s.client.Del(ctx, s.key(stationID)).Err()
}
