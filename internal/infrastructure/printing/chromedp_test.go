package printing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunContextCarriesDeadline(t *testing.T) {
	runCtx, cancel := runContext(context.Background(), context.Background(), 5*time.Second)
	defer cancel()

	deadline, ok := runCtx.Deadline()
	require.True(t, ok, "run context must carry the render timeout")
	assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
}

func TestRunContextExpires(t *testing.T) {
	runCtx, cancel := runContext(context.Background(), context.Background(), time.Millisecond)
	defer cancel()

	select {
	case <-runCtx.Done():
		assert.Equal(t, context.DeadlineExceeded, runCtx.Err())
	case <-time.After(time.Second):
		t.Fatal("run context never expired")
	}
}

func TestRunContextFollowsCallerCancellation(t *testing.T) {
	caller, callerCancel := context.WithCancel(context.Background())
	runCtx, cancel := runContext(caller, context.Background(), time.Hour)
	defer cancel()

	callerCancel()

	select {
	case <-runCtx.Done():
		assert.Equal(t, context.Canceled, runCtx.Err())
	case <-time.After(time.Second):
		t.Fatal("caller cancellation never reached the run context")
	}
}

func TestChromedpRendererRejectsBadRequests(t *testing.T) {
	renderer, err := NewChromedpRenderer(&ChromedpConfig{DefaultTimeout: time.Second})
	require.NoError(t, err)
	defer renderer.Close()

	_, err = renderer.Render(context.Background(), nil)
	assertRenderCode(t, err, ErrCodeInvalidHTML)

	_, err = renderer.Render(context.Background(), &RenderRequest{HTML: "   "})
	assertRenderCode(t, err, ErrCodeInvalidHTML)
}

func assertRenderCode(t *testing.T, err error, code string) {
	t.Helper()
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, code, renderErr.Code)
}
