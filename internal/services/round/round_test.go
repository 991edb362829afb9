package round

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/reactimer/internal/dependencies/mocks"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type RoundSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	ticks   chan time.Duration
	expired chan struct{}
	round   *Round
}

func TestRoundSuite(t *testing.T) {
	suite.Run(t, new(RoundSuite))
}

func (s *RoundSuite) SetupTest() {
	s.clock = mocks.NewMockClock(epoch)
	s.ticks = make(chan time.Duration, 16)
	s.expired = make(chan struct{}, 1)

	cfg := DefaultConfig()
	cfg.OnTick = func(remaining time.Duration) { s.ticks <- remaining }
	cfg.OnExpire = func() { s.expired <- struct{}{} }
	s.round = New(s.clock, cfg)
}

func (s *RoundSuite) TearDownTest() {
	s.round.Reset()
	s.round.Wait()
}

func (s *RoundSuite) TestNewRoundIsIdle() {
	s.Equal(Idle, s.round.State())
	s.Equal(time.Duration(0), s.round.Remaining())
}

func (s *RoundSuite) TestStartRuns() {
	s.round.Start()

	s.Equal(Running, s.round.State())
	s.Equal(5*time.Second, s.round.Remaining())
}

func (s *RoundSuite) TestStopBeforeDeadlineRecordsRoundedRemaining() {
	s.round.Start()
	s.clock.Set(epoch.Add(1234400 * time.Microsecond))

	ms, err := s.round.Stop()
	s.Require().NoError(err)
	s.Equal(int64(3766), ms)
	s.Equal(Stopped, s.round.State())
	s.Equal(3766*time.Millisecond, s.round.Remaining())
}

func (s *RoundSuite) TestStopAtDeadlineFails() {
	s.round.Start()
	s.clock.Set(epoch.Add(5 * time.Second))

	_, err := s.round.Stop()
	s.ErrorIs(err, ErrExpired)
	s.Equal(Failed, s.round.State())
}

func (s *RoundSuite) TestStopWhenIdleFails() {
	_, err := s.round.Stop()
	s.ErrorIs(err, ErrNotRunning)
}

func (s *RoundSuite) TestStopTwiceFails() {
	s.round.Start()
	_, _ = s.round.Stop()

	_, err := s.round.Stop()
	s.ErrorIs(err, ErrNotRunning)
}

func (s *RoundSuite) TestRefreshReportsRemaining() {
	s.round.Start()

	s.clock.Advance(50 * time.Millisecond)

	select {
	case left := <-s.ticks:
		s.Equal(4950*time.Millisecond, left)
	case <-time.After(time.Second):
		s.Fail("no tick received")
	}
}

func (s *RoundSuite) TestAutoFailsAtDeadline() {
	s.round.Start()

	s.clock.Advance(5 * time.Second)

	select {
	case <-s.expired:
	case <-time.After(time.Second):
		s.Fail("round did not expire")
	}
	s.Equal(Failed, s.round.State())
	s.Equal(time.Duration(0), s.round.Remaining())

	_, err := s.round.Stop()
	s.ErrorIs(err, ErrNotRunning)
}

func (s *RoundSuite) TestTickFailsAfterDeadline() {
	s.round.Start()
	s.clock.Set(epoch.Add(6 * time.Second))

	state, left := s.round.Tick()
	s.Equal(Failed, state)
	s.Equal(time.Duration(0), left)
}

func (s *RoundSuite) TestTickWhileRunning() {
	s.round.Start()
	s.clock.Set(epoch.Add(time.Second))

	state, left := s.round.Tick()
	s.Equal(Running, state)
	s.Equal(4*time.Second, left)
}

func (s *RoundSuite) TestRestartCancelsPreviousLoop() {
	s.round.Start()
	s.clock.Set(epoch.Add(2 * time.Second))
	s.round.Start()

	s.Eventually(func() bool { return s.clock.ActiveTickers() == 1 }, time.Second, time.Millisecond)
	s.Equal(Running, s.round.State())
	s.Equal(5*time.Second, s.round.Remaining())
}

func (s *RoundSuite) TestStartAfterFailureRunsAgain() {
	s.round.Start()
	s.clock.Set(epoch.Add(5 * time.Second))
	_, _ = s.round.Stop()

	s.round.Start()
	s.Equal(Running, s.round.State())
}

func (s *RoundSuite) TestStopReleasesTicker() {
	s.round.Start()
	_, _ = s.round.Stop()

	s.round.Wait()
	s.Equal(0, s.clock.ActiveTickers())
}

func (s *RoundSuite) TestResetFromStopped() {
	s.round.Start()
	_, _ = s.round.Stop()

	s.round.Reset()
	s.Equal(Idle, s.round.State())
	s.Equal(time.Duration(0), s.round.Remaining())
}

func (s *RoundSuite) TestStateString() {
	s.Equal("idle", Idle.String())
	s.Equal("running", Running.String())
	s.Equal("stopped", Stopped.String())
	s.Equal("failed", Failed.String())
}
