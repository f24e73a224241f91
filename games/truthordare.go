package games

// Players gather in a room identified by a short shareable code, and take
// turns picking either a truth or a dare
// The active player picks the challenge in their client; everyone else sees
// what was picked, including an optional target player
// Completing a challenge is worth 25 points, chickening out costs 10
// (scores never go below zero)
// Turn order is join order; whoever joined first goes first

// Room rules:
// - Codes are 6 uppercase characters, letters and digits
// - A connection can be in at most one room at a time
// - The first player is the host; only the host can start the game
// - A game needs at least 2 players; rooms cap at 10 by default
// - If the host leaves, the earliest remaining joiner becomes host
// - An empty room is deleted immediately

// Implementation details:
// - One websocket per client at /ws, JSON events both ways
// - A single hub goroutine owns all room state, so handlers never race
// - Turn advancement after a resolved challenge is delayed a few seconds
//   so clients can show the result before the next prompt
// - Delayed work is keyed by room code and re-checked against the
//   registry when it fires, in case the room is gone by then
