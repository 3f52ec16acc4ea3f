package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spendview/spendview/internal/jobs"
)

func TestQueueProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, 1, store)
	defer q.Close()

	processed := make(chan string, 1)
	err := q.Start(context.Background(), func(ctx context.Context, job jobs.Job) error {
		processed <- job.GetID()
		return nil
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.ExtractStatementJob{StatementID: "stmt-1", GCSURI: "gs://b/o.pdf"}
	if err := q.PublishExtractStatement(context.Background(), job); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("expected a generated job id")
	}

	select {
	case id := <-processed:
		if id != job.JobID {
			t.Errorf("processed job %q, want %q", id, job.JobID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	// Give the worker a moment to record the terminal status.
	deadline := time.Now().Add(2 * time.Second)
	for {
		stored, err := store.GetJob(context.Background(), job.JobID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if stored.Status == jobs.JobStatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job status = %q, want completed", stored.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestQueueRetriesFailedJob(t *testing.T) {
	q := NewQueue(4, 1, NewStore())
	defer q.Close()

	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	err := q.Start(context.Background(), func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 2 {
			return errors.New("transient failure")
		}
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.ExtractStatementJob{StatementID: "stmt-1", MaxRetries: 2}
	if err := q.PublishExtractStatement(context.Background(), job); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not retried to success")
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue(1, 1, nil)
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	err := q.PublishExtractStatement(context.Background(), &jobs.ExtractStatementJob{})
	if err == nil {
		t.Error("expected error publishing to closed queue")
	}
}

func TestStoreFiltering(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seed := []*jobs.ExtractStatementJob{
		{JobID: "a", StatementID: "stmt-1", Status: jobs.JobStatusCompleted},
		{JobID: "b", StatementID: "stmt-1", Status: jobs.JobStatusFailed},
		{JobID: "c", StatementID: "stmt-2", Status: jobs.JobStatusCompleted},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob: %v", err)
		}
	}

	byStatement, err := store.ListJobs(ctx, jobs.JobFilter{StatementID: "stmt-1"})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(byStatement) != 2 {
		t.Errorf("got %d jobs for stmt-1, want 2", len(byStatement))
	}

	byStatus, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].JobID != "b" {
		t.Errorf("unexpected failed jobs: %+v", byStatus)
	}
}

func TestStoreCopiesJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.ExtractStatementJob{JobID: "a", Status: jobs.JobStatusPending}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}

	job.Status = jobs.JobStatusFailed

	stored, err := store.GetJob(ctx, "a")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if stored.Status != jobs.JobStatusPending {
		t.Errorf("stored status = %q, mutation through caller pointer leaked", stored.Status)
	}
}
