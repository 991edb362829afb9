package cli

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/reactimer/internal/dependencies/mocks"
	"github.com/mcoot/reactimer/internal/services/round"
)

type runResult struct {
	state     round.State
	remaining int64
	err       error
}

func startRunner(t *testing.T) (*roundRunner, *mocks.MockClock, *io.PipeWriter, <-chan runResult) {
	t.Helper()

	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	runner := newRoundRunner(clk, pr, io.Discard)
	results := make(chan runResult, 1)
	go func() {
		state, remaining, err := runner.Run()
		results <- runResult{state, remaining, err}
	}()

	_, err := pw.Write([]byte("\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return runner.round.State() == round.Running
	}, time.Second, time.Millisecond)

	return runner, clk, pw, results
}

func TestRoundRunnerStop(t *testing.T) {
	_, clk, pw, results := startRunner(t)

	clk.Advance(1200 * time.Millisecond)
	_, err := pw.Write([]byte("\n"))
	require.NoError(t, err)

	res := <-results
	require.NoError(t, res.err)
	assert.Equal(t, round.Stopped, res.state)
	assert.Equal(t, int64(3800), res.remaining)
}

func TestRoundRunnerExpires(t *testing.T) {
	_, clk, _, results := startRunner(t)

	clk.Advance(5 * time.Second)

	select {
	case res := <-results:
		require.NoError(t, res.err)
		assert.Equal(t, round.Failed, res.state)
		assert.Zero(t, res.remaining)
	case <-time.After(time.Second):
		t.Fatal("round did not expire")
	}
}

func TestRoundRunnerClosedInputBeforeStart(t *testing.T) {
	clk := mocks.NewMockClock(time.Now())
	runner := newRoundRunner(clk, strings.NewReader(""), io.Discard)

	state, _, err := runner.Run()
	assert.Error(t, err)
	assert.Equal(t, round.Idle, state)
}

func TestRoundRunnerEOFStops(t *testing.T) {
	clk := mocks.NewMockClock(time.Now())
	runner := newRoundRunner(clk, strings.NewReader("\n"), io.Discard)

	state, remaining, err := runner.Run()
	require.NoError(t, err)
	assert.Equal(t, round.Stopped, state)
	assert.Equal(t, int64(5000), remaining)
}
