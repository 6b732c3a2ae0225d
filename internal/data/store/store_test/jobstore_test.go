package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dlemos/cpf-extractor/internal/config"
	"github.com/dlemos/cpf-extractor/internal/data/redisStore"
	"github.com/dlemos/cpf-extractor/internal/data/store"
	"github.com/dlemos/cpf-extractor/internal/domain/jobModel"
)

func TestRedisJobStore_Lifecycle(t *testing.T) {
	// 1. Start miniredis
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	internalStore := redisStore.NewTestStore(client)
	jobStore := store.TestJobStore(internalStore)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	jobID := "job_abc_123"

	testJob := jobModel.Job{
		Id:          jobID,
		TraceId:     "test-trace",
		Source:      jobModel.SourceURL,
		DocumentURL: "http://example.com/doc.pdf",
		CallbackURL: "http://example.com/hook",
		CreatedTime: time.Now().UTC(),
		Status:      jobModel.JobStatusRunning,
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		// Test Save
		err := jobStore.SaveJob(ctx, testJob)
		if err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		// Test Get
		retrievedJob, found := jobStore.GetJob(ctx, jobID)
		if !found {
			t.Fatal("Job was saved but not found in Redis")
		}

		if retrievedJob.Status != jobModel.JobStatusRunning {
			t.Errorf("Status mismatch! Got %s, want %s", retrievedJob.Status, jobModel.JobStatusRunning)
		}
		if retrievedJob.CallbackURL != testJob.CallbackURL {
			t.Errorf("Data mismatch! Got %s, want %s", retrievedJob.CallbackURL, testJob.CallbackURL)
		}
	})

	t.Run("Job state expires", func(t *testing.T) {
		if err := jobStore.SaveJob(ctx, testJob); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
		mr.FastForward(config.RedisJobStoreTTL + time.Minute)

		if _, found := jobStore.GetJob(ctx, jobID); found {
			t.Error("Expected job state to expire after the TTL")
		}
	})

	t.Run("Get Non-Existent Job", func(t *testing.T) {
		_, found := jobStore.GetJob(ctx, "ghost-id")
		if found {
			t.Error("Expected found=false for non-existent key")
		}
	})

	t.Run("Delete Job", func(t *testing.T) {
		if err := jobStore.SaveJob(ctx, testJob); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
		jobStore.DeleteJob(ctx, jobID)

		// Verify it's gone from miniredis
		if mr.Exists(jobID) {
			t.Error("Job still exists in Redis after DeleteJob call")
		}
	})
}

func TestRedisJobStore_Race(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jobStore := store.TestJobStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "race-trace")
	job := jobModel.Job{Id: "race-job"}

	const workers = 50
	for i := 0; i < workers; i++ {
		go func() {
			_ = jobStore.SaveJob(ctx, job)
			_, _ = jobStore.GetJob(ctx, "race-job")
		}()
	}
}

func TestInMemoryJobStore(t *testing.T) {
	jobStore := store.InitInMemoryJobStore()
	ctx := context.Background()

	job := jobModel.Job{Id: "mem-1", Status: jobModel.JobStatusPending}
	if err := jobStore.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	got, found := jobStore.GetJob(ctx, "mem-1")
	if !found || got.Status != jobModel.JobStatusPending {
		t.Errorf("unexpected job: %+v found=%v", got, found)
	}

	jobStore.DeleteJob(ctx, "mem-1")
	if _, found := jobStore.GetJob(ctx, "mem-1"); found {
		t.Error("Expected job to be gone after delete")
	}
}
