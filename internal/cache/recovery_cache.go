package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/brightclass/quiz-service/internal/models"
)

// RecoveryCache keeps the latest autosave snapshot of an in-flight attempt
// for fast resume. It is a performance aid, never a correctness boundary:
// every failure degrades to a cache miss and the database remains the source
// of truth.
type RecoveryCache interface {
	Get(ctx context.Context, quizID, studentID string) (*models.AutoSaveSnapshot, bool)
	Set(ctx context.Context, quizID, studentID string, snapshot *models.AutoSaveSnapshot)
	Delete(ctx context.Context, quizID, studentID string)
}

type redisRecoveryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRecoveryCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) RecoveryCache {
	return &redisRecoveryCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func recoveryKey(quizID, studentID string) string {
	return fmt.Sprintf("quiz:recovery:%s:%s", quizID, studentID)
}

func (c *redisRecoveryCache) Get(ctx context.Context, quizID, studentID string) (*models.AutoSaveSnapshot, bool) {
	data, err := c.client.Get(ctx, recoveryKey(quizID, studentID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("quiz_id", quizID).Msg("Recovery cache read failed")
		return nil, false
	}

	var snapshot models.AutoSaveSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		c.logger.Warn().Err(err).Str("quiz_id", quizID).Msg("Recovery cache entry corrupted")
		return nil, false
	}

	return &snapshot, true
}

func (c *redisRecoveryCache) Set(ctx context.Context, quizID, studentID string, snapshot *models.AutoSaveSnapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		c.logger.Warn().Err(err).Str("quiz_id", quizID).Msg("Recovery cache marshal failed")
		return
	}

	if err := c.client.Set(ctx, recoveryKey(quizID, studentID), data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("quiz_id", quizID).Msg("Recovery cache write failed")
	}
}

func (c *redisRecoveryCache) Delete(ctx context.Context, quizID, studentID string) {
	if err := c.client.Del(ctx, recoveryKey(quizID, studentID)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("quiz_id", quizID).Msg("Recovery cache delete failed")
	}
}

// NoopRecoveryCache is used when redis is not configured; every read is a
// miss and resume falls back to the database.
type NoopRecoveryCache struct{}

func (NoopRecoveryCache) Get(ctx context.Context, quizID, studentID string) (*models.AutoSaveSnapshot, bool) {
	return nil, false
}

func (NoopRecoveryCache) Set(ctx context.Context, quizID, studentID string, snapshot *models.AutoSaveSnapshot) {
}

func (NoopRecoveryCache) Delete(ctx context.Context, quizID, studentID string) {}
