package pipeline

import (
	"testing"
	"time"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusFetching, "fetching"},
		{StatusExtracting, "extracting"},
		{StatusClassifying, "classifying"},
		{StatusChunking, "chunking"},
		{StatusStoring, "storing"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_SnapshotIsolated(t *testing.T) {
	job := &Job{ID: "snap-1", DocID: "doc-1", Filename: "plans.pdf", Status: StatusQueued}
	job.AddError("first")

	snap := job.Snapshot()
	if snap.ID != "snap-1" || snap.DocID != "doc-1" || snap.Filename != "plans.pdf" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Progress.Errors) != 1 || snap.Progress.Errors[0] != "first" {
		t.Errorf("snapshot errors = %v, want [first]", snap.Progress.Errors)
	}

	snap.Progress.Errors[0] = "mutated"
	job.AddError("second")
	snap2 := job.Snapshot()
	if snap2.Progress.Errors[1] != "second" {
		t.Errorf("expected second error recorded, got %v", snap2.Progress.Errors)
	}
}

func TestJob_SnapshotEmptyErrorsNotNil(t *testing.T) {
	job := &Job{ID: "snap-2", Status: StatusQueued}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected empty error slice, got nil")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	s := NewJobStore(time.Hour)
	job := &Job{ID: "j1", UpdatedAt: time.Now()}
	s.Put(job)

	if got := s.Get("j1"); got != job {
		t.Error("expected same job back")
	}
	if got := s.Get("missing"); got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}
}

func TestJobStore_CleanupEvictsExpired(t *testing.T) {
	s := NewJobStore(time.Minute)
	fresh := &Job{ID: "fresh", UpdatedAt: time.Now()}
	stale := &Job{ID: "stale", UpdatedAt: time.Now().Add(-2 * time.Minute)}
	s.Put(fresh)
	s.Put(stale)

	s.Cleanup()

	if s.Get("fresh") == nil {
		t.Error("fresh job evicted")
	}
	if s.Get("stale") != nil {
		t.Error("stale job survived cleanup")
	}
}
