package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pot-code/learn-gateway/internal/infrastructure/driver"
	"github.com/pot-code/learn-gateway/internal/progression"
)

// CursorKV CursorStore backed by the kv driver
type CursorKV struct {
	KV  driver.KeyValueDB
	TTL time.Duration
}

var _ CursorStore = &CursorKV{}

// NewCursorKV .
func NewCursorKV(kv driver.KeyValueDB, ttl time.Duration) *CursorKV {
	return &CursorKV{KV: kv, TTL: ttl}
}

func cursorKey(userID string, courseID int) string {
	return fmt.Sprintf("cursor:%s:%d", userID, courseID)
}

// GetCursor .
func (ck *CursorKV) GetCursor(ctx context.Context, userID string, courseID int) (*progression.Cursor, error) {
	raw, err := ck.KV.Get(ctx, cursorKey(userID, courseID))
	if errors.Is(err, driver.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cursor := new(progression.Cursor)
	if err := json.Unmarshal([]byte(raw), cursor); err != nil {
		return nil, fmt.Errorf("decode cached cursor: %w", err)
	}
	return cursor, nil
}

// SaveCursor .
func (ck *CursorKV) SaveCursor(ctx context.Context, userID string, courseID int, cursor *progression.Cursor) error {
	raw, err := json.Marshal(cursor)
	if err != nil {
		return err
	}
	return ck.KV.SetEX(ctx, cursorKey(userID, courseID), string(raw), ck.TTL)
}

// DropCursor removes the cached cursor, a missing key is not an error
func (ck *CursorKV) DropCursor(ctx context.Context, userID string, courseID int) error {
	return ck.KV.Del(ctx, cursorKey(userID, courseID))
}
