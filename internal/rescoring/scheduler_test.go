package rescoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRescorer is a mock implementation of the Rescorer interface
type MockRescorer struct {
	mock.Mock
}

func (m *MockRescorer) Rescore(ctx context.Context, batchSize int) (int, error) {
	args := m.Called(ctx, batchSize)
	return args.Int(0), args.Error(1)
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler(new(MockRescorer), zap.NewNop(), Config{Schedule: "every night"})
	assert.Error(t, err)

	// Five-field expressions lack the seconds field.
	_, err = NewScheduler(new(MockRescorer), zap.NewNop(), Config{Schedule: "0 2 * * *"})
	assert.Error(t, err)
}

func TestScheduler_RunOnce(t *testing.T) {
	rescorer := new(MockRescorer)
	scheduler, err := NewScheduler(rescorer, zap.NewNop(), Config{Schedule: "0 0 2 * * *", BatchSize: 25})
	require.NoError(t, err)

	rescorer.On("Rescore", mock.Anything, 25).Return(7, nil).Once()
	rescorer.On("Rescore", mock.Anything, 25).Return(3, errors.New("connection reset")).Once()

	saved, err := scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, saved)

	saved, err = scheduler.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 3, saved)

	rescorer.AssertExpectations(t)
}

func TestScheduler_RunOnceAppliesDefaults(t *testing.T) {
	rescorer := new(MockRescorer)
	scheduler, err := NewScheduler(rescorer, zap.NewNop(), Config{Schedule: "0 */5 * * * *"})
	require.NoError(t, err)

	rescorer.On("Rescore", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), DefaultConfig().BatchSize).Return(0, nil)

	_, err = scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	rescorer.AssertExpectations(t)
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler, err := NewScheduler(new(MockRescorer), zap.NewNop(), DefaultConfig())
	require.NoError(t, err)

	assert.True(t, scheduler.NextRun().IsZero())

	require.NoError(t, scheduler.Start(context.Background()))
	assert.ErrorIs(t, scheduler.Start(context.Background()), ErrAlreadyRunning)

	next := scheduler.NextRun()
	assert.False(t, next.IsZero())
	assert.Equal(t, 2, next.Hour())
	assert.True(t, next.After(time.Now()))

	scheduler.Stop()
	scheduler.Stop()
	assert.True(t, scheduler.NextRun().IsZero())
}
