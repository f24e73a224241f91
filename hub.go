package main

import (
	"time"
)

type inboundEvent struct {
	client *Client
	msg    ClientMessage
}

type taskKind int

const (
	taskFirstTurn taskKind = iota
	taskNextTurn
	taskReapIdle
)

// task is a deferred unit of work keyed by room code rather than a room
// reference, so a fired timer re-validates against the registry instead
// of acting on a possibly-stale object.
type task struct {
	kind taskKind
	code string
}

// Hub is the event router: it owns the only goroutine allowed to mutate
// rooms, so handlers never race each other and no per-room locking is
// needed.
type Hub struct {
	registry *Registry
	clients  map[string]*Client

	register chan *Client
	unreg    chan *Client
	events   chan inboundEvent
	tasks    chan task
}

func newHub(registry *Registry) *Hub {
	return &Hub{
		registry: registry,
		clients:  make(map[string]*Client),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		events:   make(chan inboundEvent),
		tasks:    make(chan task, 16),
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.clients[c.id] = c
			h.sendTo(c, ConnectedMessage{
				Type:     "connected",
				PlayerID: c.id,
			})
			logf(cfg, "GAME: Client %s connected", c.id)

		case c := <-h.unreg:
			if cur, ok := h.clients[c.id]; ok && cur == c {
				delete(h.clients, c.id)
				close(c.send)
			}
			h.handleLeave(cfg, c)
			logf(cfg, "GAME: Client %s disconnected", c.id)

		case ev := <-h.events:
			h.handleEvent(cfg, ev)

		case t := <-h.tasks:
			h.handleTask(cfg, t)
		}
	}
}

func (h *Hub) handleEvent(cfg *Config, ev inboundEvent) {
	switch ev.msg.Type {
	case "create_room":
		h.handleCreateRoom(cfg, ev.client, ev.msg)
	case "join_room":
		h.handleJoinRoom(cfg, ev.client, ev.msg)
	case "start_game":
		h.handleStartGame(cfg, ev.client)
	case "select_challenge":
		h.handleSelectChallenge(ev.client, ev.msg)
	case "complete_challenge":
		h.handleCompleteChallenge(cfg, ev.client)
	case "skip_challenge":
		h.handleSkipChallenge(cfg, ev.client)
	case "send_reaction":
		h.handleReaction(ev.client, ev.msg)
	case "chat_message", "game_chat_message":
		h.handleChat(ev.client, ev.msg)
	case "leave_room":
		h.handleLeave(cfg, ev.client)
	default:
		// ignore unknown types
	}
}

func (h *Hub) handleCreateRoom(cfg *Config, c *Client, msg ClientMessage) {
	username, err := validateUsername(msg.Username)
	if err != nil {
		h.sendError(c, err)
		return
	}

	if h.registry.findRoomContaining(c.id) != nil {
		h.sendError(c, errAlreadyInRoom)
		return
	}

	maxPlayers := cfg.maxPlayers
	if msg.MaxPlayers >= 2 && msg.MaxPlayers <= cfg.maxPlayers {
		maxPlayers = msg.MaxPlayers
	}

	player := &Player{
		ID:       c.id,
		Username: username,
	}
	room := h.registry.createRoom(player, maxPlayers)

	h.sendTo(c, RoomCreatedMessage{
		Type:     "room_created",
		RoomCode: room.code,
		HostID:   room.hostID,
		Players:  playerInfos(room.players),
	})

	logf(cfg, "ROOMS: %q created room %s", username, room.code)
}

func (h *Hub) handleJoinRoom(cfg *Config, c *Client, msg ClientMessage) {
	username, err := validateUsername(msg.Username)
	if err != nil {
		h.sendError(c, err)
		return
	}

	code, err := normalizeRoomCode(msg.RoomCode)
	if err != nil {
		h.sendError(c, err)
		return
	}

	if h.registry.findRoomContaining(c.id) != nil {
		h.sendError(c, errAlreadyInRoom)
		return
	}

	room := h.registry.get(code)
	if room == nil {
		h.sendError(c, errRoomNotFound)
		return
	}
	if room.full() {
		h.sendError(c, errRoomFull)
		return
	}

	player := &Player{
		ID:       c.id,
		Username: username,
	}
	h.registry.addPlayer(room, player)
	room.touch()

	h.sendTo(c, RoomJoinedMessage{
		Type:     "room_joined",
		RoomCode: room.code,
		HostID:   room.hostID,
		Players:  playerInfos(room.players),
	})

	h.broadcastOthers(room, c.id, PlayerJoinedMessage{
		Type:   "player_joined",
		Player: playerInfo(player),
	})

	logf(cfg, "ROOMS: %q joined room %s", username, room.code)
}

func (h *Hub) handleStartGame(cfg *Config, c *Client) {
	room := h.registry.findRoomContaining(c.id)
	if room == nil {
		h.sendError(c, errRoomNotFound)
		return
	}

	// lobby -> playing is one-way; a second start mid-game would reset
	// every score.
	if room.state == statePlaying {
		return
	}

	if err := room.startGame(c.id); err != nil {
		h.sendError(c, err)
		return
	}
	room.touch()

	h.broadcastRoom(room, GameStartedMessage{
		Type:    "game_started",
		Players: playerInfos(room.players),
		Scores:  room.scoreSnapshot(),
	})

	// Grace period so clients can render the game screen before the
	// first turn is announced.
	h.scheduleTask(cfg.turnDelay, task{kind: taskFirstTurn, code: room.code})

	logf(cfg, "GAME: Game started in room %s with %d players", room.code, len(room.players))
}

func (h *Hub) handleSelectChallenge(c *Client, msg ClientMessage) {
	room := h.registry.findRoomContaining(c.id)
	if room == nil {
		return
	}

	challenge, ok := room.selectChallenge(c.id, msg.ChallengeType, msg.Challenge, msg.Difficulty, msg.TargetPlayerID)
	if !ok {
		return
	}
	room.touch()

	out := ChallengeSelectedMessage{
		Type:      "challenge_selected",
		Challenge: challengeInfo(challenge),
		Player:    playerInfo(room.activePlayer()),
	}
	if challenge.TargetPlayer != nil {
		target := playerInfo(challenge.TargetPlayer)
		out.TargetPlayer = &target
	}

	h.broadcastRoom(room, out)
}

func (h *Hub) handleCompleteChallenge(cfg *Config, c *Client) {
	room := h.registry.findRoomContaining(c.id)
	if room == nil {
		return
	}

	active := room.activePlayer()
	if !room.completeChallenge(c.id) {
		return
	}
	room.touch()

	h.broadcastRoom(room, ChallengeCompletedMessage{
		Type:   "challenge_completed",
		Player: playerInfo(active),
		Scores: room.scoreSnapshot(),
	})

	h.scheduleTask(cfg.turnDelay, task{kind: taskNextTurn, code: room.code})

	logf(cfg, "GAME: %q completed a challenge in room %s", active.Username, room.code)
}

func (h *Hub) handleSkipChallenge(cfg *Config, c *Client) {
	room := h.registry.findRoomContaining(c.id)
	if room == nil {
		return
	}

	active := room.activePlayer()
	if !room.skipChallenge(c.id) {
		return
	}
	room.touch()

	h.broadcastRoom(room, ChallengeSkippedMessage{
		Type:   "challenge_skipped",
		Player: playerInfo(active),
		Scores: room.scoreSnapshot(),
	})

	h.scheduleTask(cfg.turnDelay, task{kind: taskNextTurn, code: room.code})

	logf(cfg, "GAME: %q skipped a challenge in room %s", active.Username, room.code)
}

func (h *Hub) handleReaction(c *Client, msg ClientMessage) {
	room := h.registry.findRoomContaining(c.id)
	if room == nil || msg.Emoji == "" {
		return
	}

	if !c.limiter.Allow() {
		return
	}

	h.broadcastRoom(room, ReactionAddedMessage{
		Type:     "reaction_added",
		PlayerID: c.id,
		Reaction: msg.Emoji,
	})
}

func (h *Hub) handleChat(c *Client, msg ClientMessage) {
	room := h.registry.findRoomContaining(c.id)
	if room == nil || msg.Message == "" {
		return
	}

	player := room.player(c.id)
	if player == nil {
		return
	}

	if !c.limiter.Allow() {
		return
	}

	h.broadcastRoom(room, ChatBroadcastMessage{
		Type:     msg.Type,
		Username: player.Username,
		Message:  msg.Message,
	})
}

// handleLeave covers both explicit leave_room events and disconnects;
// the two are equivalent for room state.
func (h *Hub) handleLeave(cfg *Config, c *Client) {
	room := h.registry.findRoomContaining(c.id)
	if room == nil {
		return
	}

	wasActive := false
	if active := room.activePlayer(); active != nil && active.ID == c.id {
		wasActive = true
	}

	code := room.code
	room = h.registry.removePlayer(c.id)
	if room == nil {
		logf(cfg, "ROOMS: Room %s deleted (empty)", code)
		return
	}

	h.broadcastRoom(room, PlayerLeftMessage{
		Type:     "player_left",
		PlayerID: c.id,
	})

	h.broadcastRoom(room, PlayersUpdatedMessage{
		Type:    "players_updated",
		HostID:  room.hostID,
		Players: playerInfos(room.players),
	})

	// If the active player left mid-turn the rotation pointer now rests
	// on the next player, who must be told it is their turn.
	if wasActive && room.state == statePlaying {
		h.broadcastRoom(room, TurnStartedMessage{
			Type:   "turn_started",
			Player: playerInfo(room.activePlayer()),
		})
	}

	logf(cfg, "ROOMS: Client %s left room %s", c.id, code)
}

func (h *Hub) handleTask(cfg *Config, t task) {
	switch t.kind {
	case taskFirstTurn, taskNextTurn:
		// The room may have emptied out or been reaped since this was
		// scheduled; a stale task is a no-op.
		room := h.registry.get(t.code)
		if room == nil || room.state != statePlaying || len(room.players) == 0 {
			return
		}

		player := room.activePlayer()
		if t.kind == taskNextTurn {
			player = room.advanceTurn()
		}
		room.touch()

		h.broadcastRoom(room, TurnStartedMessage{
			Type:   "turn_started",
			Player: playerInfo(player),
		})

		logf(cfg, "GAME: Turn started for %q in room %s", player.Username, room.code)

	case taskReapIdle:
		cutoff := time.Now().Add(-cfg.sessionTimeout)
		for _, code := range h.registry.idleRooms(cutoff) {
			room := h.registry.get(code)
			if room == nil {
				continue
			}
			h.broadcastRoom(room, ErrorMessage{
				Type:    "error",
				Message: "room closed due to inactivity",
			})
			h.registry.deleteRoom(code)
			logf(cfg, "ROOMS: Room %s reaped after %s idle", code, cfg.sessionTimeout)
		}
	}
}

func (h *Hub) scheduleTask(d time.Duration, t task) {
	time.AfterFunc(d, func() {
		h.tasks <- t
	})
}

func (h *Hub) reaperLoop(cfg *Config) {
	ticker := time.NewTicker(cfg.sessionTimeout / 2)
	for range ticker.C {
		h.tasks <- task{kind: taskReapIdle}
	}
}

func (h *Hub) sendError(c *Client, err error) {
	h.sendTo(c, ErrorMessage{
		Type:    "error",
		Message: err.Error(),
	})
}

// sendTo delivers on the client's buffered channel; a client too slow to
// drain its buffer is evicted. Clients already evicted are skipped so a
// later broadcast in the same handler can't write to a closed channel.
func (h *Hub) sendTo(c *Client, msg any) {
	if cur, ok := h.clients[c.id]; !ok || cur != c {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c.id)
		close(c.send)
	}
}

func (h *Hub) broadcastRoom(room *Room, msg any) {
	for _, p := range room.players {
		if c, ok := h.clients[p.ID]; ok {
			h.sendTo(c, msg)
		}
	}
}

func (h *Hub) broadcastOthers(room *Room, senderID string, msg any) {
	for _, p := range room.players {
		if p.ID == senderID {
			continue
		}
		if c, ok := h.clients[p.ID]; ok {
			h.sendTo(c, msg)
		}
	}
}
