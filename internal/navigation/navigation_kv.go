package navigation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pot-code/learn-gateway/internal/infrastructure/driver"
)

// StateKV StateStore backed by the kv driver
type StateKV struct {
	KV  driver.KeyValueDB
	TTL time.Duration
}

var _ StateStore = &StateKV{}

// NewStateKV .
func NewStateKV(kv driver.KeyValueDB, ttl time.Duration) *StateKV {
	return &StateKV{KV: kv, TTL: ttl}
}

func stateKey(sessionID, slug string) string {
	return fmt.Sprintf("nav:%s:%s", sessionID, slug)
}

// Load .
func (sk *StateKV) Load(ctx context.Context, sessionID, slug string) (State, error) {
	raw, err := sk.KV.Get(ctx, stateKey(sessionID, slug))
	if errors.Is(err, driver.ErrKeyNotFound) {
		return InitialState(), nil
	}
	if err != nil {
		return InitialState(), err
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return InitialState(), fmt.Errorf("decode navigation state: %w", err)
	}
	return state, nil
}

// Save .
func (sk *StateKV) Save(ctx context.Context, sessionID, slug string, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return sk.KV.SetEX(ctx, stateKey(sessionID, slug), string(raw), sk.TTL)
}
