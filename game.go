package main

const (
	completeReward = 25
	skipPenalty    = 10
)

// Challenge is ephemeral: it only exists as a broadcast payload between
// selection and resolution. Resolution never references the challenge
// content, so nothing is stored on the room.
type Challenge struct {
	Type         string
	Text         string
	Difficulty   string
	TargetPlayer *Player
}

// activePlayer returns whose turn it is, or nil outside of a game.
func (r *Room) activePlayer() *Player {
	if r.state != statePlaying || len(r.players) == 0 {
		return nil
	}
	return r.players[r.currentTurn%len(r.players)]
}

// startGame flips the room into the playing state. Only the host may
// start, and a game needs at least two players. Scores are zeroed and the
// turn pointer returns to the first joiner; announcing the first turn is
// left to the caller so it can be delayed.
func (r *Room) startGame(requesterID string) error {
	if requesterID != r.hostID {
		return errNotHost
	}
	if len(r.players) < 2 {
		return errNotEnoughPlayers
	}

	r.state = statePlaying
	r.currentTurn = 0
	for _, p := range r.players {
		r.scores[p.ID] = 0
	}

	return nil
}

// advanceTurn rotates to the next player in join order and returns them.
func (r *Room) advanceTurn() *Player {
	r.currentTurn = (r.currentTurn + 1) % len(r.players)
	return r.players[r.currentTurn]
}

// selectChallenge validates that the requester is the active player and
// resolves the optional target. A nil target means the challenge applies
// to everyone. Returns false when the request must be silently ignored.
func (r *Room) selectChallenge(requesterID, challengeType, text, difficulty, targetPlayerID string) (*Challenge, bool) {
	active := r.activePlayer()
	if active == nil || active.ID != requesterID {
		return nil, false
	}

	var target *Player
	if targetPlayerID != "" {
		target = r.player(targetPlayerID)
	}

	return &Challenge{
		Type:         challengeType,
		Text:         text,
		Difficulty:   difficulty,
		TargetPlayer: target,
	}, true
}

// completeChallenge awards the active player a fixed reward. Requests from
// anyone else are silently ignored.
func (r *Room) completeChallenge(requesterID string) bool {
	active := r.activePlayer()
	if active == nil || active.ID != requesterID {
		return false
	}

	r.scores[requesterID] += completeReward

	return true
}

// skipChallenge docks the active player a fixed penalty, floored at zero.
func (r *Room) skipChallenge(requesterID string) bool {
	active := r.activePlayer()
	if active == nil || active.ID != requesterID {
		return false
	}

	score := r.scores[requesterID] - skipPenalty
	if score < 0 {
		score = 0
	}
	r.scores[requesterID] = score

	return true
}

// scoreSnapshot copies the score table for broadcasting.
func (r *Room) scoreSnapshot() map[string]int {
	scores := make(map[string]int, len(r.scores))
	for id, score := range r.scores {
		scores[id] = score
	}
	return scores
}
