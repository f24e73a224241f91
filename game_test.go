package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoom(t *testing.T, playerCount int) (*Registry, *Room, []*Player) {
	t.Helper()
	require.GreaterOrEqual(t, playerCount, 1)

	reg := newRegistry()
	players := make([]*Player, 0, playerCount)

	host := newTestPlayer(0)
	players = append(players, host)
	room := reg.createRoom(host, 10)

	for i := 1; i < playerCount; i++ {
		p := newTestPlayer(i)
		players = append(players, p)
		reg.addPlayer(room, p)
	}

	return reg, room, players
}

func TestStartGameRequiresHost(t *testing.T) {
	_, room, players := newTestRoom(t, 2)

	err := room.startGame(players[1].ID)
	assert.ErrorIs(t, err, errNotHost)
	assert.Equal(t, stateLobby, room.state)
}

func TestStartGameRequiresTwoPlayers(t *testing.T) {
	_, room, players := newTestRoom(t, 1)

	err := room.startGame(players[0].ID)
	assert.ErrorIs(t, err, errNotEnoughPlayers)
	assert.Equal(t, stateLobby, room.state)
}

func TestStartGameResetsScores(t *testing.T) {
	_, room, players := newTestRoom(t, 3)
	room.scores[players[1].ID] = 75

	require.NoError(t, room.startGame(players[0].ID))

	assert.Equal(t, statePlaying, room.state)
	assert.Equal(t, 0, room.currentTurn)
	for _, p := range players {
		assert.Equal(t, 0, room.scores[p.ID])
	}
}

func TestAdvanceTurnRotatesInJoinOrder(t *testing.T) {
	_, room, players := newTestRoom(t, 3)
	require.NoError(t, room.startGame(players[0].ID))

	assert.Equal(t, players[0].ID, room.activePlayer().ID)

	for i := 1; i <= 9; i++ {
		next := room.advanceTurn()
		assert.Equal(t, players[i%3].ID, next.ID)
		assert.Same(t, next, room.activePlayer())
	}
}

func TestCompleteChallengeScoresActivePlayer(t *testing.T) {
	_, room, players := newTestRoom(t, 2)
	require.NoError(t, room.startGame(players[0].ID))

	assert.True(t, room.completeChallenge(players[0].ID))
	assert.Equal(t, 25, room.scores[players[0].ID])

	assert.True(t, room.completeChallenge(players[0].ID))
	assert.Equal(t, 50, room.scores[players[0].ID])
}

func TestCompleteChallengeIgnoresNonActivePlayer(t *testing.T) {
	_, room, players := newTestRoom(t, 2)
	require.NoError(t, room.startGame(players[0].ID))

	assert.False(t, room.completeChallenge(players[1].ID))
	assert.Equal(t, 0, room.scores[players[1].ID])
}

func TestCompleteChallengeIgnoredInLobby(t *testing.T) {
	_, room, players := newTestRoom(t, 2)

	assert.False(t, room.completeChallenge(players[0].ID))
	assert.Equal(t, 0, room.scores[players[0].ID])
}

func TestSkipChallengeFloorsAtZero(t *testing.T) {
	_, room, players := newTestRoom(t, 2)
	require.NoError(t, room.startGame(players[0].ID))

	assert.True(t, room.skipChallenge(players[0].ID))
	assert.Equal(t, 0, room.scores[players[0].ID], "score never goes negative")

	room.scores[players[0].ID] = 25
	assert.True(t, room.skipChallenge(players[0].ID))
	assert.Equal(t, 15, room.scores[players[0].ID])
}

func TestSelectChallengeAuthority(t *testing.T) {
	_, room, players := newTestRoom(t, 3)

	// Not playing yet: silently ignored.
	_, ok := room.selectChallenge(players[0].ID, "truth", "text", "easy", "")
	assert.False(t, ok)

	require.NoError(t, room.startGame(players[0].ID))

	// Non-active player: silently ignored.
	_, ok = room.selectChallenge(players[1].ID, "dare", "text", "hard", "")
	assert.False(t, ok)

	challenge, ok := room.selectChallenge(players[0].ID, "dare", "do a handstand", "medium", players[2].ID)
	require.True(t, ok)
	assert.Equal(t, "dare", challenge.Type)
	assert.Equal(t, "do a handstand", challenge.Text)
	assert.Equal(t, "medium", challenge.Difficulty)
	require.NotNil(t, challenge.TargetPlayer)
	assert.Equal(t, players[2].ID, challenge.TargetPlayer.ID)
}

func TestSelectChallengeWithoutTarget(t *testing.T) {
	_, room, players := newTestRoom(t, 2)
	require.NoError(t, room.startGame(players[0].ID))

	challenge, ok := room.selectChallenge(players[0].ID, "truth", "favorite color?", "easy", "")
	require.True(t, ok)
	assert.Nil(t, challenge.TargetPlayer, "no target means the challenge applies to all")

	// Unknown targets resolve to none rather than failing.
	challenge, ok = room.selectChallenge(players[0].ID, "truth", "favorite color?", "easy", "conn-99")
	require.True(t, ok)
	assert.Nil(t, challenge.TargetPlayer)
}

// TestPlayScenario walks the two-player flow end to end: P1 completes a
// challenge and earns 25, the turn passes to P2, P2 skips and stays at
// zero, and the rotation returns to P1.
func TestPlayScenario(t *testing.T) {
	_, room, players := newTestRoom(t, 2)
	p1, p2 := players[0], players[1]

	require.NoError(t, room.startGame(p1.ID))
	assert.Equal(t, map[string]int{p1.ID: 0, p2.ID: 0}, room.scores)
	assert.Equal(t, p1.ID, room.activePlayer().ID)

	require.True(t, room.completeChallenge(p1.ID))
	assert.Equal(t, map[string]int{p1.ID: 25, p2.ID: 0}, room.scores)

	assert.Equal(t, p2.ID, room.advanceTurn().ID)

	require.True(t, room.skipChallenge(p2.ID))
	assert.Equal(t, map[string]int{p1.ID: 25, p2.ID: 0}, room.scores)

	assert.Equal(t, p1.ID, room.advanceTurn().ID)
}

func TestScoreSnapshotIsACopy(t *testing.T) {
	_, room, players := newTestRoom(t, 2)

	snapshot := room.scoreSnapshot()
	snapshot[players[0].ID] = 999

	assert.Equal(t, 0, room.scores[players[0].ID])
}
