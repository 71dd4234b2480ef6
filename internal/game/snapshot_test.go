package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostSnapshotSeesEverything(t *testing.T) {
	r, host := newTestRoom(t, bankQuestions(2))
	aliceID, _ := join(t, r, "alice")
	bobID, _ := join(t, r, "bob")
	startGame(t, r, ModeHostEvaluates, 0)

	submit(t, r, aliceID, "alice says")
	playerEvent(r, aliceID, EvBoardUpdate, mustJSON(t, BoardUpdatePayload{Drawing: "sketch"}))
	submit(t, r, bobID, "bob says")

	snap := host.lastSnapshot(t)
	require.NotNil(t, snap.Question)
	assert.Equal(t, "answer", snap.Question.Answer, "host sees the canonical answer")
	require.Len(t, snap.Answers, 2)
	assert.Equal(t, "alice says", snap.Answers[0].Text)
	assert.Equal(t, "bob says", snap.Answers[1].Text)
	assert.Equal(t, map[string]string{aliceID: "sketch"}, snap.Boards)
}

func TestParticipantSnapshotRedactsOthers(t *testing.T) {
	r, _ := newTestRoom(t, bankQuestions(2))
	aliceID, alice := join(t, r, "alice")
	bobID, _ := join(t, r, "bob")
	startGame(t, r, ModeHostEvaluates, 0)

	submit(t, r, aliceID, "mine")
	playerEvent(r, bobID, EvBoardUpdate, mustJSON(t, BoardUpdatePayload{Drawing: "bob board"}))
	submit(t, r, bobID, "not yours")

	snap := alice.lastSnapshot(t)
	require.NotNil(t, snap.Question)
	assert.Empty(t, snap.Question.Answer, "canonical answer never reaches participants")

	require.Len(t, snap.Answers, 1, "host mode shows only the player's own answer")
	assert.Equal(t, aliceID, snap.Answers[0].PlayerID)
	assert.Equal(t, "mine", snap.Answers[0].Text)

	assert.Empty(t, snap.Boards, "other players' boards stay private")
	assert.Equal(t, aliceID, snap.You)
}

func TestParticipantSeesAnsweredFlagsNotContent(t *testing.T) {
	r, _ := newTestRoom(t, bankQuestions(2))
	aliceID, alice := join(t, r, "alice")
	bobID, _ := join(t, r, "bob")
	join(t, r, "carol")
	startGame(t, r, ModeHostEvaluates, 0)

	submit(t, r, bobID, "secret")

	snap := alice.lastSnapshot(t)
	assert.Empty(t, snap.Answers, "nothing sharable yet")
	for _, pv := range snap.Players {
		switch pv.ID {
		case bobID:
			assert.True(t, pv.Answered)
		case aliceID:
			assert.False(t, pv.Answered)
		}
	}
}

func TestVoteModeRevealsTextWithoutVerdicts(t *testing.T) {
	r, _ := newTestRoom(t, bankQuestions(2))
	aliceID, alice := join(t, r, "alice")
	bobID, _ := join(t, r, "bob")
	startGame(t, r, ModeCommunityVote, 0)

	submit(t, r, aliceID, "a answer")
	submit(t, r, bobID, "b answer")
	require.Equal(t, StateRoundEvaluating, r.state)

	snap := alice.lastSnapshot(t)
	require.Len(t, snap.Answers, 2, "voting needs every answer on every screen")

	var bobs AnswerView
	for _, av := range snap.Answers {
		if av.PlayerID == bobID {
			bobs = av
		}
	}
	assert.Equal(t, "b answer", bobs.Text)
	assert.Nil(t, bobs.Evaluation, "verdicts are not leaked mid-vote")
	assert.Zero(t, bobs.Points)
	assert.Empty(t, snap.Votes, "tallies are host-only")
}

func TestRecapAppearsOnlyAfterConclusion(t *testing.T) {
	r, _ := newTestRoom(t, bankQuestions(2))
	aliceID, alice := join(t, r, "alice")
	bobID, _ := join(t, r, "bob")
	startGame(t, r, ModeHostEvaluates, 0)

	submit(t, r, aliceID, "a")
	submit(t, r, bobID, "b")
	assert.Empty(t, alice.lastSnapshot(t).Recap)

	evaluate(t, r, aliceID, true)
	evaluate(t, r, bobID, false)
	hostEvent(r, EvNextQuestion, nil)

	submit(t, r, aliceID, "a2")
	submit(t, r, bobID, "b2")
	evaluate(t, r, aliceID, true)
	evaluate(t, r, bobID, true)
	hostEvent(r, EvNextQuestion, nil)
	require.Equal(t, StateConcluded, r.state)

	snap := alice.lastSnapshot(t)
	require.Len(t, snap.Recap, 2)
	assert.Equal(t, "answer", snap.Recap[0].Question.Answer, "recap finally shows the canonical answer")
	assert.Len(t, snap.Recap[0].Answers, 2)
}

func TestSnapshotOmitsDeadlineForUntimedRound(t *testing.T) {
	r, host := newTestRoom(t, bankQuestions(2))
	join(t, r, "alice")
	join(t, r, "bob")
	startGame(t, r, ModeHostEvaluates, 0)

	assert.Zero(t, host.lastSnapshot(t).DeadlineMs)
}

func TestHostConnectedFlagTracksHostSocket(t *testing.T) {
	r, hostConn := newTestRoom(t, bankQuestions(2))
	_, alice := join(t, r, "alice")
	assert.True(t, alice.lastSnapshot(t).HostConnected)

	r.handleDisconnect(disconnected{fromHost: true, conn: hostConn})
	assert.False(t, alice.lastSnapshot(t).HostConnected)
}
