package llm

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dileep-u-k/weather-assistant/internal/api"
)

func newTestProfiler(t *testing.T) *Profiler {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewProfiler(rdb, zerolog.Nop())
}

func TestProfilerUnknownModel(t *testing.T) {
	p := newTestProfiler(t)

	profile, err := p.GetProfile(context.Background(), "never-used")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.Status != StatusOnline || profile.TotalSuccesses != 0 || profile.TotalFailures != 0 {
		t.Fatalf("expected empty online profile, got %+v", profile)
	}
}

func TestProfilerRecordsOutcomes(t *testing.T) {
	p := newTestProfiler(t)
	ctx := context.Background()
	model := "meta-llama/llama-3.1-8b-instruct"

	p.RecordSuccess(ctx, model, 1000*time.Millisecond, api.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	p.RecordSuccess(ctx, model, 2000*time.Millisecond, api.Usage{PromptTokens: 20, CompletionTokens: 7, TotalTokens: 27})

	profile, err := p.GetProfile(ctx, model)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.TotalSuccesses != 2 {
		t.Fatalf("expected 2 successes, got %d", profile.TotalSuccesses)
	}
	if profile.TotalInputTokens != 30 || profile.TotalOutputTokens != 12 {
		t.Fatalf("unexpected token totals %d/%d", profile.TotalInputTokens, profile.TotalOutputTokens)
	}
	// 0.1*2000 + 0.9*1000
	if profile.AvgLatencyMS != 1100 {
		t.Fatalf("expected avg latency 1100ms, got %d", profile.AvgLatencyMS)
	}
	if profile.Status != StatusOnline || profile.ErrorRate != 0 {
		t.Fatalf("unexpected status %q error rate %v", profile.Status, profile.ErrorRate)
	}

	p.RecordFailure(ctx, model)
	p.RecordFailure(ctx, model)

	profile, err = p.GetProfile(ctx, model)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.Status != StatusDegraded {
		t.Fatalf("expected degraded after failure, got %q", profile.Status)
	}
	if profile.TotalFailures != 2 || profile.ErrorRate != 0.5 {
		t.Fatalf("expected 2 failures and error rate 0.5, got %d and %v", profile.TotalFailures, profile.ErrorRate)
	}
	if profile.LastSeen.IsZero() {
		t.Fatalf("expected last_seen to be set")
	}
}
