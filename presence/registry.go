package presence

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Registry tracks which players are currently connected to the network,
// fed by the proxies' connect/disconnect notifications. It is the
// connectivity oracle the party core consults: ownership succession
// prefers connected members and private messages are only attempted for
// connected players.
type Registry struct {
	mu      sync.RWMutex
	players map[uuid.UUID]string
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{players: make(map[uuid.UUID]string)}
}

// Connect records a player as online under the given username.
func (r *Registry) Connect(playerID uuid.UUID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[playerID] = username
	log.Printf("Player connected: %s (%s)", username, playerID)
}

// Disconnect records a player as offline. Unknown players are ignored.
func (r *Registry) Disconnect(playerID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if username, ok := r.players[playerID]; ok {
		delete(r.players, playerID)
		log.Printf("Player disconnected: %s (%s)", username, playerID)
	}
}

// IsOnline reports whether the player is currently connected.
func (r *Registry) IsOnline(playerID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.players[playerID]
	return ok
}

// Username returns the last username the player connected with.
func (r *Registry) Username(playerID uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	username, ok := r.players[playerID]
	return username, ok
}

// Count returns the number of connected players.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}
