// internal/clarify/store.go
package clarify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"intent-resolver/internal/common/errors"
	"intent-resolver/internal/models"

	"github.com/redis/go-redis/v9"
)

// StateStore persists per-conversation clarification state. Update must
// be atomic per conversation id: concurrent writers never interleave a
// read-modify-write.
type StateStore interface {
	Load(ctx context.Context, conversationID string) (models.ConversationState, error)
	Update(ctx context.Context, conversationID string, fn func(models.ConversationState) (models.ConversationState, error)) (models.ConversationState, error)
	Clear(ctx context.Context, conversationID string) error
}

const stateKeyPrefix = "clarify:state:"

// maxTxRetries bounds optimistic transaction retries before the update
// is surfaced as a conflict.
const maxTxRetries = 3

// RedisStateStore keeps conversation state in Redis with a sliding TTL.
// Atomicity is via WATCH: a concurrent write between read and commit
// aborts the transaction and the update retries on fresh state.
type RedisStateStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStateStore(rdb *redis.Client, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{rdb: rdb, ttl: ttl}
}

func stateKey(conversationID string) string {
	return stateKeyPrefix + conversationID
}

// Load returns the stored state, or the NONE state when the key is
// absent or expired.
func (s *RedisStateStore) Load(ctx context.Context, conversationID string) (models.ConversationState, error) {
	raw, err := s.rdb.Get(ctx, stateKey(conversationID)).Result()
	if err == redis.Nil {
		return emptyState(conversationID), nil
	}
	if err != nil {
		return models.ConversationState{}, errors.NewClarificationStateFailedError(conversationID, err)
	}

	var state models.ConversationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		// A corrupt record is unrecoverable; treat as expired.
		_ = s.rdb.Del(ctx, stateKey(conversationID)).Err()
		return emptyState(conversationID), nil
	}
	return state, nil
}

// Update applies fn to the current state inside a WATCH transaction and
// commits the derived state. The commit fails if another writer touched
// the key after the read; after maxTxRetries failed attempts the caller
// gets a conflict error.
func (s *RedisStateStore) Update(ctx context.Context, conversationID string, fn func(models.ConversationState) (models.ConversationState, error)) (models.ConversationState, error) {
	key := stateKey(conversationID)
	var next models.ConversationState

	txn := func(tx *redis.Tx) error {
		current := emptyState(conversationID)
		raw, err := tx.Get(ctx, key).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			if uerr := json.Unmarshal([]byte(raw), &current); uerr != nil {
				current = emptyState(conversationID)
			}
		}

		derived, err := fn(current)
		if err != nil {
			return err
		}
		if derived.ConversationID != conversationID {
			return fmt.Errorf("state derived for wrong conversation: %s", derived.ConversationID)
		}

		payload, err := json.Marshal(derived)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		next = derived
		return nil
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.rdb.Watch(ctx, txn, key)
		if err == nil {
			return next, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		if stdErr, ok := err.(*errors.StandardError); ok {
			return models.ConversationState{}, stdErr
		}
		return models.ConversationState{}, errors.NewClarificationStateFailedError(conversationID, err)
	}

	return models.ConversationState{}, errors.NewClarificationConflictError(conversationID)
}

// Clear removes the conversation's state entirely.
func (s *RedisStateStore) Clear(ctx context.Context, conversationID string) error {
	if err := s.rdb.Del(ctx, stateKey(conversationID)).Err(); err != nil {
		return errors.NewClarificationStateFailedError(conversationID, err)
	}
	return nil
}

func emptyState(conversationID string) models.ConversationState {
	return models.ConversationState{
		ConversationID: conversationID,
		State:          models.StateNone,
	}
}
