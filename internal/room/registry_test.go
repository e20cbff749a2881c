package room

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewords-live/server/internal/game"
	"github.com/codewords-live/server/internal/models"
)

func TestCreateAndGetRoom(t *testing.T) {
	reg := NewRegistry(testLogger())

	r := reg.CreateRoom()
	require.NotEmpty(t, r.ID)
	assert.Len(t, r.ID, 8, "short hex id for join links")

	got, ok := reg.GetRoom(r.ID)
	require.True(t, ok)
	assert.Same(t, r, got)

	_, ok = reg.GetRoom("missing")
	assert.False(t, ok)
}

func TestRoomIDsUnique(t *testing.T) {
	reg := NewRegistry(testLogger())
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		r := reg.CreateRoom()
		assert.False(t, seen[r.ID])
		seen[r.ID] = true
	}
}

func TestRegistryDelegation(t *testing.T) {
	reg := NewRegistry(testLogger())
	r := reg.CreateRoom()

	_, err := reg.JoinRoom("missing", "id1", "alice")
	assert.True(t, errors.Is(err, game.ErrNotFound))

	p, err := reg.JoinRoom(r.ID, "id1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Name)

	require.NoError(t, reg.SetTeam(r.ID, "id1", models.TeamRed))
	require.NoError(t, reg.SetRole(r.ID, "id1", models.RoleOperative))
	require.NoError(t, reg.Disconnect(r.ID, "id1"))

	assert.True(t, errors.Is(reg.SetTeam("missing", "id1", models.TeamRed), game.ErrNotFound))
	assert.True(t, errors.Is(reg.Disconnect("missing", "id1"), game.ErrNotFound))
}

func TestEventHookReceivesMutations(t *testing.T) {
	reg := NewRegistry(testLogger())

	var events []Event
	reg.SetEventHook(func(ev Event) { events = append(events, ev) })

	r := reg.CreateRoom()
	_, err := r.Join("id1", "alice")
	require.NoError(t, err)
	require.NoError(t, r.SetTeam("id1", models.TeamBlue))

	require.Len(t, events, 2)
	assert.Equal(t, "player_join", events[0].EventType)
	assert.Equal(t, "team_change", events[1].EventType)
	assert.Equal(t, r.ID, events[0].RoomID)
	assert.Equal(t, uint64(1), events[0].Seq)
	assert.Equal(t, uint64(2), events[1].Seq)
}
