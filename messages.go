package main

// Messages coming from clients
type ClientMessage struct {
	Type           string `json:"type"`                     // event name, see readPump
	Username       string `json:"username,omitempty"`       // create_room / join_room
	RoomCode       string `json:"roomCode,omitempty"`       // join_room
	MaxPlayers     int    `json:"maxPlayers,omitempty"`     // create_room
	ChallengeType  string `json:"challengeType,omitempty"`  // select_challenge: "truth" or "dare"
	Challenge      string `json:"challenge,omitempty"`      // select_challenge: prompt text
	Difficulty     string `json:"difficulty,omitempty"`     // select_challenge: "easy", "medium" or "hard"
	TargetPlayerID string `json:"targetPlayerId,omitempty"` // select_challenge
	Emoji          string `json:"emoji,omitempty"`          // send_reaction
	Message        string `json:"message,omitempty"`        // chat_message / game_chat_message
}

// PlayerInfo mirrors the Player entity on the wire.
type PlayerInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Ready    bool   `json:"ready"`
}

// ChallengeInfo mirrors the Challenge entity on the wire.
type ChallengeInfo struct {
	Type         string      `json:"type"`
	Text         string      `json:"text"`
	Difficulty   string      `json:"difficulty"`
	TargetPlayer *PlayerInfo `json:"targetPlayer,omitempty"`
}

// ConnectedMessage is sent once on connect so the client knows its own
// connection identifier.
type ConnectedMessage struct {
	Type     string `json:"type"` // "connected"
	PlayerID string `json:"playerId"`
}

// RoomCreatedMessage acknowledges a create_room to its sender only.
type RoomCreatedMessage struct {
	Type     string       `json:"type"` // "room_created"
	RoomCode string       `json:"roomCode"`
	HostID   string       `json:"hostId"`
	Players  []PlayerInfo `json:"players"`
}

// RoomJoinedMessage acknowledges a join_room to its sender only.
type RoomJoinedMessage struct {
	Type     string       `json:"type"` // "room_joined"
	RoomCode string       `json:"roomCode"`
	HostID   string       `json:"hostId"`
	Players  []PlayerInfo `json:"players"`
}

// PlayerJoinedMessage notifies everyone else in the room about a join.
type PlayerJoinedMessage struct {
	Type   string     `json:"type"` // "player_joined"
	Player PlayerInfo `json:"player"`
}

// PlayerLeftMessage notifies remaining players about a departure.
type PlayerLeftMessage struct {
	Type     string `json:"type"` // "player_left"
	PlayerID string `json:"playerId"`
}

// PlayersUpdatedMessage resynchronizes the member list after a change.
type PlayersUpdatedMessage struct {
	Type    string       `json:"type"` // "players_updated"
	HostID  string       `json:"hostId"`
	Players []PlayerInfo `json:"players"`
}

// GameStartedMessage announces the lobby -> playing transition.
type GameStartedMessage struct {
	Type    string         `json:"type"` // "game_started"
	Players []PlayerInfo   `json:"players"`
	Scores  map[string]int `json:"scores"`
}

// TurnStartedMessage announces the new active player.
type TurnStartedMessage struct {
	Type   string     `json:"type"` // "turn_started"
	Player PlayerInfo `json:"player"`
}

// ChallengeSelectedMessage shows everyone what the active player picked.
type ChallengeSelectedMessage struct {
	Type         string        `json:"type"` // "challenge_selected"
	Challenge    ChallengeInfo `json:"challenge"`
	Player       PlayerInfo    `json:"player"`
	TargetPlayer *PlayerInfo   `json:"targetPlayer,omitempty"`
}

// ChallengeCompletedMessage carries the score delta after a completion.
type ChallengeCompletedMessage struct {
	Type   string         `json:"type"` // "challenge_completed"
	Player PlayerInfo     `json:"player"`
	Scores map[string]int `json:"scores"`
}

// ChallengeSkippedMessage carries the score delta after a skip.
type ChallengeSkippedMessage struct {
	Type   string         `json:"type"` // "challenge_skipped"
	Player PlayerInfo     `json:"player"`
	Scores map[string]int `json:"scores"`
}

// ReactionAddedMessage relays an emoji reaction to the whole room.
type ReactionAddedMessage struct {
	Type     string `json:"type"` // "reaction_added"
	PlayerID string `json:"playerId"`
	Reaction string `json:"reaction"`
}

// ChatBroadcastMessage relays lobby and in-game chat; Type distinguishes
// "chat_message" from "game_chat_message".
type ChatBroadcastMessage struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// ErrorMessage is sent to the offending client only.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

func playerInfo(p *Player) PlayerInfo {
	return PlayerInfo{
		ID:       p.ID,
		Username: p.Username,
		Ready:    p.Ready,
	}
}

func playerInfos(players []*Player) []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(players))
	for _, p := range players {
		infos = append(infos, playerInfo(p))
	}
	return infos
}

func challengeInfo(c *Challenge) ChallengeInfo {
	info := ChallengeInfo{
		Type:       c.Type,
		Text:       c.Text,
		Difficulty: c.Difficulty,
	}
	if c.TargetPlayer != nil {
		target := playerInfo(c.TargetPlayer)
		info.TargetPlayer = &target
	}
	return info
}
