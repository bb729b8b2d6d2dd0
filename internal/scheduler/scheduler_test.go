package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketSnapshot/internal/model"
)

type fakeBuilder struct {
	calls   int32
	release chan struct{}
	err     error
	snap    *model.Snapshot
}

func (f *fakeBuilder) Build(_ context.Context, symbols []string) (*model.Snapshot, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.release != nil {
		<-f.release
	}
	return f.snap, f.err
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, text)
	return nil
}

func (f *fakeSender) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs...)
}

func TestRunNow_RecordsStatusAndNotifies(t *testing.T) {
	b := &fakeBuilder{snap: &model.Snapshot{RunID: "r1", AsOfUTC: "2024-03-01T22:30:00Z", Count: 4}}
	n := &fakeSender{}
	s := NewScheduler(context.Background(), b, []string{"AAPL"}, n, nil)

	require.True(t, s.RunNow())
	st := s.Status()
	assert.False(t, st.Running)
	require.NotNil(t, st.Last)
	assert.Equal(t, "r1", st.Last.RunID)
	assert.Equal(t, 4, st.Last.Count)

	msgs := n.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Symbols: 4")
}

func TestRunNow_FailureIsReported(t *testing.T) {
	b := &fakeBuilder{err: errors.New("context canceled")}
	n := &fakeSender{}
	s := NewScheduler(context.Background(), b, nil, n, nil)

	s.RunNow()
	st := s.Status()
	assert.Nil(t, st.Last)
	assert.EqualError(t, st.LastErr, "context canceled")
	assert.Contains(t, n.messages()[0], "Snapshot build failed")
}

func TestRunNow_SingleFlight(t *testing.T) {
	b := &fakeBuilder{release: make(chan struct{}), snap: &model.Snapshot{}}
	s := NewScheduler(context.Background(), b, nil, nil, nil)

	started := make(chan bool)
	go func() { started <- s.RunNow() }()
	require.Eventually(t, func() bool { return s.Status().Running }, 2*time.Second, 10*time.Millisecond)

	assert.False(t, s.RunNow(), "second trigger is ignored")
	assert.Contains(t, s.HandleCommand("/snapshot"), "already running")

	close(b.release)
	assert.True(t, <-started)
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.calls))
}

func TestHandleCommand(t *testing.T) {
	b := &fakeBuilder{snap: &model.Snapshot{RunID: "r"}}
	s := NewScheduler(context.Background(), b, nil, nil, nil)
	require.NoError(t, s.Register("0 30 22 * * 1-5"))
	s.Start()
	defer s.Stop()

	status := s.HandleCommand("/status@snapbot")
	assert.Contains(t, status, "No completed run yet")
	assert.Contains(t, status, "Next run:")

	assert.Contains(t, s.HandleCommand(""), "/snapshot")
	assert.Contains(t, s.HandleCommand("hello"), "/status")

	assert.Contains(t, s.HandleCommand("/SNAPSHOT"), "started")
	require.Eventually(t, func() bool { return atomic.LoadInt32(&b.calls) == 1 && !s.Status().Running }, 2*time.Second, 10*time.Millisecond)
}

func TestRegister_InvalidSpec(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeBuilder{}, nil, nil, nil)
	assert.Error(t, s.Register("every day"))
}
