package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dileep-u-k/weather-assistant/internal/api"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	StatusOnline   = "online"
	StatusDegraded = "degraded"

	// latencyAlpha weights the newest sample in the moving average.
	latencyAlpha = 0.1
)

// ModelProfile is the operational record kept for one model.
type ModelProfile struct {
	ModelID           string    `json:"model_id"`
	Status            string    `json:"status"`
	AvgLatencyMS      int64     `json:"avg_latency_ms"`
	ErrorRate         float64   `json:"error_rate"`
	TotalSuccesses    int64     `json:"total_successes"`
	TotalFailures     int64     `json:"total_failures"`
	TotalInputTokens  int64     `json:"total_input_tokens"`
	TotalOutputTokens int64     `json:"total_output_tokens"`
	LastSeen          time.Time `json:"last_seen"`
}

// Profiler records per-model call outcomes in Redis. Its data is never read
// on the request path; write errors are logged and swallowed.
type Profiler struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

func NewProfiler(rdb *redis.Client, logger zerolog.Logger) *Profiler {
	return &Profiler{rdb: rdb, logger: logger.With().Str("component", "profiler").Logger()}
}

func (p *Profiler) profileKey(modelID string) string {
	return fmt.Sprintf("profile:%s", modelID)
}

// GetProfile returns the stored profile. A model never seen before yields a
// zero profile with status online.
func (p *Profiler) GetProfile(ctx context.Context, modelID string) (*ModelProfile, error) {
	data, err := p.rdb.HGetAll(ctx, p.profileKey(modelID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read profile for %s: %w", modelID, err)
	}

	profile := &ModelProfile{ModelID: modelID, Status: StatusOnline}
	if len(data) == 0 {
		return profile, nil
	}
	if s := data["status"]; s != "" {
		profile.Status = s
	}
	profile.AvgLatencyMS, _ = strconv.ParseInt(data["avg_latency_ms"], 10, 64)
	profile.ErrorRate, _ = strconv.ParseFloat(data["error_rate"], 64)
	profile.TotalSuccesses, _ = strconv.ParseInt(data["total_successes"], 10, 64)
	profile.TotalFailures, _ = strconv.ParseInt(data["total_failures"], 10, 64)
	profile.TotalInputTokens, _ = strconv.ParseInt(data["total_input_tokens"], 10, 64)
	profile.TotalOutputTokens, _ = strconv.ParseInt(data["total_output_tokens"], 10, 64)
	profile.LastSeen, _ = time.Parse(time.RFC3339Nano, data["last_seen"])
	return profile, nil
}

// RecordSuccess folds a successful call into the model's profile.
func (p *Profiler) RecordSuccess(ctx context.Context, modelID string, latency time.Duration, usage api.Usage) {
	key := p.profileKey(modelID)

	// The first sample seeds the average instead of being damped towards zero.
	err := p.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, "avg_latency_ms").Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		sample := float64(latency.Milliseconds())
		next := int64(sample)
		if prev, perr := strconv.ParseInt(current, 10, 64); perr == nil {
			next = int64(math.Round(latencyAlpha*sample + (1-latencyAlpha)*float64(prev)))
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "avg_latency_ms", next)
			return nil
		})
		return err
	}, key)
	if err != nil {
		p.logger.Warn().Err(err).Str("model", modelID).Msg("failed to update latency")
	}

	pipe := p.rdb.Pipeline()
	successes := pipe.HIncrBy(ctx, key, "total_successes", 1)
	failures := pipe.HGet(ctx, key, "total_failures")
	pipe.HIncrBy(ctx, key, "total_input_tokens", int64(usage.PromptTokens))
	pipe.HIncrBy(ctx, key, "total_output_tokens", int64(usage.CompletionTokens))
	pipe.HSet(ctx, key, "status", StatusOnline, "last_seen", time.Now().UTC().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		p.logger.Warn().Err(err).Str("model", modelID).Msg("success update pipeline failed")
		return
	}

	totalFailures, _ := strconv.ParseInt(failures.Val(), 10, 64)
	p.storeErrorRate(ctx, key, totalFailures, successes.Val()+totalFailures)
}

// RecordFailure counts a failed call and marks the model degraded.
func (p *Profiler) RecordFailure(ctx context.Context, modelID string) {
	key := p.profileKey(modelID)
	pipe := p.rdb.Pipeline()
	failures := pipe.HIncrBy(ctx, key, "total_failures", 1)
	successes := pipe.HGet(ctx, key, "total_successes")
	pipe.HSet(ctx, key, "status", StatusDegraded, "last_seen", time.Now().UTC().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		p.logger.Warn().Err(err).Str("model", modelID).Msg("failure update pipeline failed")
		return
	}

	totalSuccesses, _ := strconv.ParseInt(successes.Val(), 10, 64)
	p.storeErrorRate(ctx, key, failures.Val(), totalSuccesses+failures.Val())
}

func (p *Profiler) storeErrorRate(ctx context.Context, key string, failures, total int64) {
	if total <= 0 {
		return
	}
	if err := p.rdb.HSet(ctx, key, "error_rate", float64(failures)/float64(total)).Err(); err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("failed to store error rate")
	}
}
