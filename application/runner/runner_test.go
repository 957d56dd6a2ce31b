package runner

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"browser_scripts/domain/entities"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestRunner_CompletesJob(t *testing.T) {
	r := New(testLogger())

	job, err := r.Start(context.Background(), "translate", func(ctx context.Context, stop StopFlag) error {
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, entities.JobRunning, job.Status)

	require.NoError(t, r.Wait())
	assert.False(t, r.Running())

	last, ok := r.Job()
	require.True(t, ok)
	assert.Equal(t, entities.JobCompleted, last.Status)
}

func TestRunner_StopIsCooperative(t *testing.T) {
	r := New(testLogger())
	started := make(chan struct{})
	items := 0

	_, err := r.Start(context.Background(), "instagram", func(ctx context.Context, stop StopFlag) error {
		close(started)
		for !stop.Stopping() {
			items++
			time.Sleep(time.Millisecond)
		}
		return nil
	})
	require.NoError(t, err)

	<-started
	r.Stop()
	require.NoError(t, r.Wait())
	assert.Greater(t, items, 0)
	assert.True(t, r.Stopping())
}

func TestRunner_RejectsSecondJob(t *testing.T) {
	r := New(testLogger())
	release := make(chan struct{})

	_, err := r.Start(context.Background(), "first", func(ctx context.Context, stop StopFlag) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	_, err = r.Start(context.Background(), "second", func(ctx context.Context, stop StopFlag) error {
		return nil
	})
	assert.ErrorIs(t, err, entities.ErrAlreadyRunning)

	close(release)
	require.NoError(t, r.Wait())

	_, err = r.Start(context.Background(), "third", func(ctx context.Context, stop StopFlag) error {
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, r.Wait())
	assert.False(t, r.Stopping())
}

func TestRunner_FailedAndPanickingJobs(t *testing.T) {
	r := New(testLogger())
	boom := errors.New("browser crashed")

	_, err := r.Start(context.Background(), "fails", func(ctx context.Context, stop StopFlag) error {
		return boom
	})
	require.NoError(t, err)
	assert.ErrorIs(t, r.Wait(), boom)

	last, _ := r.Job()
	assert.Equal(t, entities.JobFailed, last.Status)
	assert.Equal(t, "browser crashed", last.Error)

	_, err = r.Start(context.Background(), "panics", func(ctx context.Context, stop StopFlag) error {
		panic("nil page")
	})
	require.NoError(t, err)
	assert.ErrorContains(t, r.Wait(), "nil page")
}

func TestRunner_WaitWithoutJob(t *testing.T) {
	r := New(testLogger())
	assert.NoError(t, r.Wait())
	_, ok := r.Job()
	assert.False(t, ok)
	r.Stop()
	assert.False(t, r.Stopping())
}
