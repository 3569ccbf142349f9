package parties

import "github.com/google/uuid"

// Message is a renderable party notification. Cyrene only deals in
// translation keys and their arguments; the game servers render and
// localize them for each viewer.
type Message struct {
	Key  string   `json:"key"`
	Args []string `json:"args,omitempty"`
}

// NewMessage builds a message packet for the given translation key.
func NewMessage(key string, args ...string) Message {
	return Message{Key: key, Args: args}
}

// Notifier delivers private messages to individual players.
type Notifier interface {
	SendPrivate(playerID uuid.UUID, msg Message)
}

// Presence reports which players are currently connected to the
// network. Implemented by the presence registry, fed by the proxies'
// connect/disconnect notifications.
type Presence interface {
	IsOnline(playerID uuid.UUID) bool
	Username(playerID uuid.UUID) (string, bool)
}

// Audience receives a copy of every broadcast a party makes.
type Audience interface {
	SendMessage(msg Message)
}

// PlayerAudience adapts a single player into an Audience. Used for
// players spying on a party's broadcasts.
type PlayerAudience struct {
	PlayerID uuid.UUID

	notifier Notifier
}

// NewPlayerAudience wraps a player as a broadcast audience.
func NewPlayerAudience(playerID uuid.UUID, notifier Notifier) *PlayerAudience {
	return &PlayerAudience{PlayerID: playerID, notifier: notifier}
}

func (a *PlayerAudience) SendMessage(msg Message) {
	a.notifier.SendPrivate(a.PlayerID, msg)
}

// audiencesEqual compares audiences by player identity when both sides
// wrap players, and by plain interface equality otherwise.
func audiencesEqual(a, b Audience) bool {
	pa, okA := a.(*PlayerAudience)
	pb, okB := b.(*PlayerAudience)
	if okA && okB {
		return pa.PlayerID == pb.PlayerID
	}
	return a == b
}

// playerName resolves a display name for messages, falling back to the
// UUID for players the presence registry has never seen.
func playerName(presence Presence, playerID uuid.UUID) string {
	if username, ok := presence.Username(playerID); ok {
		return username
	}
	return playerID.String()
}
