package game

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoomAndLookup(t *testing.T) {
	reg := NewRegistry(DefaultSettings(), stubSource{questions: bankQuestions(2)})
	room := reg.CreateRoom(testHostID)
	defer room.Close("test over")

	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), room.Code())

	got, ok := reg.Get(room.Code())
	require.True(t, ok)
	assert.Same(t, room, got)

	_, ok = reg.Get("000000x")
	assert.False(t, ok)
}

func TestCreatedRoomRunsItsLoop(t *testing.T) {
	reg := NewRegistry(DefaultSettings(), stubSource{questions: bankQuestions(2)})
	room := reg.CreateRoom(testHostID)
	defer room.Close("test over")

	// Join goes through the inbox, so a reply proves the loop is draining.
	playerID, err := room.Join("alice", &fakeClient{})
	require.NoError(t, err)
	assert.NotEmpty(t, playerID)
}

func TestListByHost(t *testing.T) {
	reg := NewRegistry(DefaultSettings(), stubSource{questions: bankQuestions(2)})
	a := reg.CreateRoom("teacher-a")
	b := reg.CreateRoom("teacher-a")
	c := reg.CreateRoom("teacher-b")
	defer a.Close("test over")
	defer b.Close("test over")
	defer c.Close("test over")

	infos := reg.ListByHost("teacher-a")
	require.Len(t, infos, 2)
	codes := []string{infos[0].Code, infos[1].Code}
	assert.ElementsMatch(t, []string{a.Code(), b.Code()}, codes)
	assert.Equal(t, StateLobby, infos[0].State)

	assert.Len(t, reg.ListByHost("teacher-b"), 1)
	assert.Empty(t, reg.ListByHost("nobody"))
}

func TestClosedRoomLeavesRegistry(t *testing.T) {
	reg := NewRegistry(DefaultSettings(), stubSource{questions: bankQuestions(2)})
	room := reg.CreateRoom(testHostID)
	code := room.Code()

	room.Close("test over")

	assert.Eventually(t, func() bool {
		_, ok := reg.Get(code)
		return !ok
	}, time.Second, 10*time.Millisecond)

	// Posting into a closed room fails instead of blocking.
	_, err := room.Join("late", &fakeClient{})
	assert.ErrorIs(t, err, ErrRoomClosed)
}

// A room whose host never opens a websocket must not live forever.
func TestUnclaimedRoomExpires(t *testing.T) {
	settings := DefaultSettings()
	settings.HostGrace = 20 * time.Millisecond
	reg := NewRegistry(settings, stubSource{questions: bankQuestions(2)})

	room := reg.CreateRoom(testHostID)
	code := room.Code()

	assert.Eventually(t, func() bool {
		_, ok := reg.Get(code)
		return !ok
	}, time.Second, 10*time.Millisecond, "unattached room should expire after the grace window")
}

func TestHostAttachKeepsFreshRoomAlive(t *testing.T) {
	settings := DefaultSettings()
	settings.HostGrace = 20 * time.Millisecond
	reg := NewRegistry(settings, stubSource{questions: bankQuestions(2)})

	room := reg.CreateRoom(testHostID)
	defer room.Close("test over")
	require.NoError(t, room.AttachHost(testHostID, &fakeClient{}))

	time.Sleep(100 * time.Millisecond)
	_, ok := reg.Get(room.Code())
	assert.True(t, ok, "claimed room must survive its creation grace window")
}
