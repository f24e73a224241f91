package main

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	roomCodeLength  = 6
	roomCodeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	minUsernameLength = 2
	maxUsernameLength = 24
)

var (
	errAlreadyInRoom    = errors.New("you are already in a room")
	errRoomNotFound     = errors.New("room does not exist")
	errRoomFull         = errors.New("room is full")
	errNotHost          = errors.New("only the host can start the game")
	errNotEnoughPlayers = errors.New("at least 2 players are required")
	errInvalidUsername  = errors.New("username must be at least 2 characters")
	errInvalidRoomCode  = errors.New("room codes are 6 characters")
)

type roomState int

const (
	stateLobby roomState = iota
	statePlaying
)

// Player is one connected participant of a single room. The ID is the
// connection identifier assigned at upgrade time and is only stable for
// the lifetime of that connection.
type Player struct {
	ID       string
	Username string
	Ready    bool
}

// Room holds everything the server knows about one session. The players
// slice is kept in join order, which is also the turn rotation order.
// All fields are only touched from the hub loop once the room has been
// published in the registry.
type Room struct {
	code        string
	hostID      string
	players     []*Player
	state       roomState
	scores      map[string]int
	currentTurn int
	maxPlayers  int

	createdAt  time.Time
	lastActive time.Time
}

func (r *Room) player(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) full() bool {
	return len(r.players) >= r.maxPlayers
}

func (r *Room) touch() {
	r.lastActive = time.Now()
}

// Registry owns the process-wide room map plus a connection-id to room-code
// index used to enforce single-room membership. The mutex only guards the
// two maps; room contents are mutated exclusively from the hub loop.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	members map[string]string
}

func newRegistry() *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		members: make(map[string]string),
	}
}

// newRoomCode generates a crypto-random 6-character code and ensures it
// doesn't collide with an existing room. Caller must hold reg.mu.
func (reg *Registry) newRoomCodeLocked() string {
	for {
		buf := make([]byte, roomCodeLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, roomCodeLength)
		for i := range out {
			out[i] = roomCodeLetters[int(buf[i])%len(roomCodeLetters)]
		}
		code := string(out)

		if _, exists := reg.rooms[code]; !exists {
			return code
		}
	}
}

// createRoom inserts a new lobby-state room with the given player as host
// and sole member, seeded with a zero score.
func (reg *Registry) createRoom(host *Player, maxPlayers int) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	now := time.Now()
	room := &Room{
		code:       reg.newRoomCodeLocked(),
		hostID:     host.ID,
		players:    []*Player{host},
		state:      stateLobby,
		scores:     map[string]int{host.ID: 0},
		maxPlayers: maxPlayers,
		createdAt:  now,
		lastActive: now,
	}

	reg.rooms[room.code] = room
	reg.members[host.ID] = room.code

	return room
}

func (reg *Registry) get(code string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return reg.rooms[code]
}

// findRoomContaining returns the room this connection belongs to, if any.
func (reg *Registry) findRoomContaining(connID string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	code, ok := reg.members[connID]
	if !ok {
		return nil
	}
	return reg.rooms[code]
}

// addPlayer appends the player to the room and seeds their score entry.
func (reg *Registry) addPlayer(room *Room, player *Player) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room.players = append(room.players, player)
	room.scores[player.ID] = 0
	reg.members[player.ID] = room.code
}

// removePlayer takes the connection out of whatever room it belongs to.
// An emptied room is deleted outright and nil is returned; otherwise the
// surviving room is returned with host and turn pointers repaired and the
// departed player's score entry pruned.
func (reg *Registry) removePlayer(connID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, ok := reg.members[connID]
	if !ok {
		return nil
	}
	delete(reg.members, connID)

	room := reg.rooms[code]
	if room == nil {
		return nil
	}

	idx := -1
	for i, p := range room.players {
		if p.ID == connID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return room
	}

	room.players = append(room.players[:idx], room.players[idx+1:]...)
	delete(room.scores, connID)

	if len(room.players) == 0 {
		delete(reg.rooms, code)
		return nil
	}

	if room.hostID == connID {
		room.hostID = room.players[0].ID
	}

	// Removing an earlier index shifts everything after it down one, so
	// keep the pointer on the same player; the modulo covers the case of
	// the last player in the rotation leaving.
	if idx < room.currentTurn {
		room.currentTurn--
	}
	room.currentTurn %= len(room.players)

	room.lastActive = time.Now()

	return room
}

// deleteRoom removes the room and all of its membership entries, used by
// the idle reaper.
func (reg *Registry) deleteRoom(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room := reg.rooms[code]
	if room == nil {
		return
	}

	for _, p := range room.players {
		delete(reg.members, p.ID)
	}
	delete(reg.rooms, code)
}

// idleRooms returns the codes of rooms whose last activity predates the
// cutoff.
func (reg *Registry) idleRooms(cutoff time.Time) []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	var codes []string
	for code, room := range reg.rooms {
		if room.lastActive.Before(cutoff) {
			codes = append(codes, code)
		}
	}
	return codes
}

func normalizeRoomCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != roomCodeLength {
		return "", errInvalidRoomCode
	}
	return code, nil
}

func validateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	length := utf8.RuneCountInString(username)
	if length < minUsernameLength || length > maxUsernameLength {
		return "", errInvalidUsername
	}
	return username, nil
}
