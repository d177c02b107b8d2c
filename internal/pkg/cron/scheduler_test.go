package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunsJobsOnInterval(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler()
	s.AddJob("count", 5*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
	s.Stop()

	stopped := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())
}

func TestScheduler_RunOnceContinuesAfterFailure(t *testing.T) {
	var order []string
	s := NewScheduler()
	s.AddJob("fails", time.Hour, func(context.Context) error {
		order = append(order, "fails")
		return errors.New("boom")
	})
	s.AddJob("succeeds", time.Hour, func(context.Context) error {
		order = append(order, "succeeds")
		return nil
	})

	s.RunOnce(context.Background())
	assert.Equal(t, []string{"fails", "succeeds"}, order)
}

func TestScheduler_IgnoresJobsAddedAfterStart(t *testing.T) {
	s := NewScheduler()
	s.Start(context.Background())
	defer s.Stop()

	s.AddJob("late", time.Hour, func(context.Context) error { return nil })
	assert.Empty(t, s.jobs)
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	assert.NotPanics(t, NewScheduler().Stop)
}
