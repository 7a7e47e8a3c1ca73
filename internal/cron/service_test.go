package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.releases++
	return nil
}

type testJob struct {
	name     string
	err      error
	runs     int
	deadline bool
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(ctx context.Context) error {
	t.runs++
	_, t.deadline = ctx.Deadline()
	return t.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestRunOnceRunsAllJobsAndCombinesFailures(t *testing.T) {
	ok := &testJob{name: "ok"}
	failA := &testJob{name: "fail-a", err: errors.New("boom")}
	failB := &testJob{name: "fail-b", err: errors.New("bang")}
	lock := &fakeLock{}
	svc := newTestService(t, lock, failA, ok, failB)

	err := svc.RunOnce(context.Background())
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 combined errors, got %d (%v)", got, err)
	}
	for _, job := range []*testJob{ok, failA, failB} {
		if job.runs != 1 {
			t.Fatalf("job %s ran %d times", job.name, job.runs)
		}
		if !job.deadline {
			t.Fatalf("job %s ran without a deadline", job.name)
		}
	}
	if lock.releases != 1 || lock.acquired {
		t.Fatalf("lock not released: %+v", lock)
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "ok"}
	svc := newTestService(t, &fakeLock{acquired: true}, job)

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job should not run while another replica holds the lock")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "ok"}
	svc := newTestService(t, &fakeLock{}, job)
	svc.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected the immediate cycle to run once, ran %d", job.runs)
	}
}
