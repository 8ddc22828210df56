package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/saige-footwear/contact-relay/internal/dispatch"
)

type failures struct {
	mu   sync.Mutex
	errs map[string]error
}

func (f *failures) record(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = map[string]error{}
	}
	f.errs[name] = err
}

func (f *failures) get(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[name]
}

func TestAsyncReportsErrorsWithoutBlockingCaller(t *testing.T) {
	var seen failures
	d := &dispatch.Async{OnError: seen.record}
	release := make(chan struct{})
	boom := errors.New("smtp down")

	d.Go(context.Background(), "auto_reply", func(context.Context) error {
		<-release
		return boom
	})

	close(release)
	require.NoError(t, d.Wait(context.Background()))
	require.ErrorIs(t, seen.get("auto_reply"), boom)
}

func TestAsyncIgnoresCallerCancellation(t *testing.T) {
	d := &dispatch.Async{}
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var taskErr error

	d.Go(ctx, "auto_reply", func(taskCtx context.Context) error {
		close(started)
		<-time.After(10 * time.Millisecond)
		taskErr = taskCtx.Err()
		return nil
	})
	<-started
	cancel()

	require.NoError(t, d.Wait(context.Background()))
	require.NoError(t, taskErr)
}

func TestAsyncAppliesTimeout(t *testing.T) {
	var seen failures
	d := &dispatch.Async{Timeout: 5 * time.Millisecond, OnError: seen.record}
	d.Go(context.Background(), "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, d.Wait(context.Background()))
	require.ErrorIs(t, seen.get("slow"), context.DeadlineExceeded)
}

func TestAsyncRecoversPanics(t *testing.T) {
	var seen failures
	d := &dispatch.Async{OnError: seen.record}
	d.Go(context.Background(), "panicky", func(context.Context) error {
		panic("template exploded")
	})
	require.NoError(t, d.Wait(context.Background()))
	require.ErrorContains(t, seen.get("panicky"), "template exploded")
}

func TestAsyncWaitHonoursDeadline(t *testing.T) {
	d := &dispatch.Async{}
	release := make(chan struct{})
	defer close(release)
	d.Go(context.Background(), "stuck", func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, d.Wait(ctx), context.DeadlineExceeded)
}

func TestInlineSwallowsErrors(t *testing.T) {
	var seen failures
	d := dispatch.Inline{OnError: seen.record}
	ran := false
	d.Go(context.Background(), "auto_reply", func(context.Context) error {
		ran = true
		return errors.New("rejected")
	})
	require.True(t, ran)
	require.EqualError(t, seen.get("auto_reply"), "rejected")
}
