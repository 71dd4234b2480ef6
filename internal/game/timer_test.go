package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaleTimerGenerationIgnored(t *testing.T) {
	r, _ := newTestRoom(t, bankQuestions(2))
	aliceID, _ := join(t, r, "alice")
	join(t, r, "bob")
	startGame(t, r, ModeHostEvaluates, 10)

	staleGen := r.roundGen

	// Host force-ends mid-round; the pending timer is cancelled and its
	// generation invalidated.
	submit(t, r, aliceID, "a")
	hostEvent(r, EvForceEndRound, nil)
	require.Equal(t, StateRoundEvaluating, r.state)

	evaluate(t, r, aliceID, true)
	require.Equal(t, StateRoundOver, r.state)
	hostEvent(r, EvNextQuestion, nil)
	require.Equal(t, StateRoundActive, r.state)
	require.Equal(t, 1, r.roundIndex)

	// The first round's deadline arrives late. It must not touch round two.
	r.handleTimerExpired(staleGen)
	assert.Equal(t, StateRoundActive, r.state, "stale timer must be a no-op")

	// Round two's own deadline still works.
	r.handleTimerExpired(r.roundGen)
	assert.NotEqual(t, StateRoundActive, r.state)
}

func TestTimerFiresExactlyOnce(t *testing.T) {
	r, _ := newTestRoom(t, bankQuestions(2))
	aliceID, _ := join(t, r, "alice")
	join(t, r, "bob")
	startGame(t, r, ModeHostEvaluates, 10)

	submit(t, r, aliceID, "a")
	gen := r.roundGen
	r.handleTimerExpired(gen)
	require.Equal(t, StateRoundEvaluating, r.state)

	// A duplicate delivery of the same expiry changes nothing.
	r.handleTimerExpired(gen)
	assert.Equal(t, StateRoundEvaluating, r.state)
	assert.Len(t, r.answers, 1)
}

func TestTimerIgnoredOutsideRoundActive(t *testing.T) {
	r, _ := newTestRoom(t, bankQuestions(2))
	join(t, r, "alice")
	join(t, r, "bob")
	startGame(t, r, ModeHostEvaluates, 10)

	hostEvent(r, EvForceEndRound, nil)
	state := r.state
	r.handleTimerExpired(r.roundGen)
	assert.Equal(t, state, r.state)
}

func TestAllSubmittedCancelsDeadline(t *testing.T) {
	r, _ := newTestRoom(t, bankQuestions(2))
	aliceID, _ := join(t, r, "alice")
	bobID, _ := join(t, r, "bob")
	startGame(t, r, ModeHostEvaluates, 10)

	gen := r.roundGen
	submit(t, r, aliceID, "a")
	submit(t, r, bobID, "b")
	require.Equal(t, StateRoundEvaluating, r.state)

	assert.NotEqual(t, gen, r.roundGen, "deadline generation invalidated on early close")
	assert.Nil(t, r.roundTimer)
}

func TestUntimedRoundSchedulesNoTimer(t *testing.T) {
	r, _ := newTestRoom(t, bankQuestions(2))
	join(t, r, "alice")
	join(t, r, "bob")
	startGame(t, r, ModeHostEvaluates, 0)

	assert.Nil(t, r.roundTimer)
	assert.True(t, r.roundDeadline.IsZero())
}

func TestScheduledTimerPostsIntoInbox(t *testing.T) {
	r, _ := newTestRoom(t, bankQuestions(2))
	r.timeLimit = 20 * time.Millisecond
	r.roundStarted = time.Now()
	r.state = StateRoundActive
	r.scheduleRoundTimer()

	select {
	case cmd := <-r.inbox:
		expiry, ok := cmd.(timerExpired)
		require.True(t, ok)
		assert.Equal(t, r.roundGen, expiry.generation)
	case <-time.After(time.Second):
		t.Fatal("timer never posted its expiry")
	}
}
