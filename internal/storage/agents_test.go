package storage

import (
	"context"
	"testing"
	"time"

	"github.com/lorenco/sean/internal/model"
)

func TestGetOrCreateAgent_Defaults(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	agent, err := store.GetOrCreateAgent(ctx, "Sean")
	if err != nil {
		t.Fatalf("get or create failed: %v", err)
	}

	if agent.Status != model.AgentInactive {
		t.Errorf("status = %s, want INACTIVE", agent.Status)
	}
	if agent.Enabled {
		t.Error("new agent must be disabled")
	}
	if agent.IntervalMinutes != 60 {
		t.Errorf("interval = %d, want 60", agent.IntervalMinutes)
	}
	if agent.MinConfidence != 0.8 {
		t.Errorf("min confidence = %f, want 0.8", agent.MinConfidence)
	}
	if !agent.LLMFallback {
		t.Error("LLM fallback should default on")
	}
	want := []string{model.ActionAllocate, model.ActionRespond, model.ActionLearn}
	if len(agent.AuthorizedActions) != len(want) {
		t.Fatalf("authorized actions = %v, want %v", agent.AuthorizedActions, want)
	}

	// Second call returns the same row.
	again, err := store.GetOrCreateAgent(ctx, "Sean")
	if err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if again.ID != agent.ID {
		t.Errorf("expected the same agent, got %s and %s", agent.ID, again.ID)
	}
}

func TestUpdateAgent(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	agent, err := store.GetOrCreateAgent(ctx, "Sean")
	if err != nil {
		t.Fatalf("get or create failed: %v", err)
	}

	nextRun := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	agent.Status = model.AgentActive
	agent.Enabled = true
	agent.IntervalMinutes = 30
	agent.NextRun = &nextRun

	if err := store.UpdateAgent(ctx, agent); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := store.GetOrCreateAgent(ctx, "Sean")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.Status != model.AgentActive || !got.Enabled || got.IntervalMinutes != 30 {
		t.Errorf("settings not persisted: %+v", got)
	}
	if got.NextRun == nil || !got.NextRun.Equal(nextRun) {
		t.Errorf("next run = %v, want %v", got.NextRun, nextRun)
	}
}

func TestRecordAgentRun_AccumulatesTotals(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	agent, err := store.GetOrCreateAgent(ctx, "Sean")
	if err != nil {
		t.Fatalf("get or create failed: %v", err)
	}

	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	next := now.Add(time.Hour)
	if err := store.RecordAgentRun(ctx, agent.ID, 10, 3, now, next); err != nil {
		t.Fatalf("first record failed: %v", err)
	}
	if err := store.RecordAgentRun(ctx, agent.ID, 5, 1, now, next); err != nil {
		t.Fatalf("second record failed: %v", err)
	}

	got, err := store.GetOrCreateAgent(ctx, "Sean")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.TotalAllocations != 15 {
		t.Errorf("total allocations = %d, want 15", got.TotalAllocations)
	}
	if got.TotalLLMCalls != 4 {
		t.Errorf("total llm calls = %d, want 4", got.TotalLLMCalls)
	}
	if got.LastRun == nil || got.NextRun == nil {
		t.Error("run times should be recorded")
	}
}

func TestJobRunLifecycle(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	agent, err := store.GetOrCreateAgent(ctx, "Sean")
	if err != nil {
		t.Fatalf("get or create failed: %v", err)
	}

	job, err := store.CreateJobRun(ctx, agent.ID)
	if err != nil {
		t.Fatalf("create job failed: %v", err)
	}
	if job.Status != model.JobRunning {
		t.Errorf("new job status = %s, want RUNNING", job.Status)
	}

	job.Processed = 12
	job.AutoAllocated = 7
	job.LLMAllocated = 2
	job.NeedsReview = 3
	if err := store.CompleteJobRun(ctx, job); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	failed, err := store.CreateJobRun(ctx, agent.ID)
	if err != nil {
		t.Fatalf("create job failed: %v", err)
	}
	if err := store.FailJobRun(ctx, failed.ID, "database locked"); err != nil {
		t.Fatalf("fail failed: %v", err)
	}

	jobs, err := store.GetRecentJobRuns(ctx, 5)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 job runs, got %d", len(jobs))
	}

	statuses := map[model.JobStatus]bool{}
	for _, j := range jobs {
		statuses[j.Status] = true
	}
	if !statuses[model.JobCompleted] || !statuses[model.JobFailed] {
		t.Errorf("expected one completed and one failed run, got %+v", jobs)
	}
	for _, j := range jobs {
		if j.Status == model.JobCompleted && (j.Processed != 12 || j.AutoAllocated != 7) {
			t.Errorf("counters not persisted: %+v", j)
		}
		if j.Status == model.JobFailed && j.ErrorMessage != "database locked" {
			t.Errorf("error message not persisted: %+v", j)
		}
	}
}
