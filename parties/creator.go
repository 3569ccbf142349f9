package parties

import (
	"math/rand"
	"sync"

	"github.com/CytonicMC/Cyrene/scheduler"
	"github.com/google/uuid"
)

// Creator builds parties wired with the service's shared collaborators.
// Each party gets its own randomness source (derived from the seed
// stream) so succession rolls never contend across parties.
type Creator struct {
	mu       sync.Mutex
	seedRand *rand.Rand

	scheduler scheduler.Scheduler
	presence  Presence
	notifier  Notifier
}

// NewCreator creates a party factory seeded with the given value.
func NewCreator(seed int64, sched scheduler.Scheduler, presence Presence, notifier Notifier) *Creator {
	return &Creator{
		seedRand:  rand.New(rand.NewSource(seed)),
		scheduler: sched,
		presence:  presence,
		notifier:  notifier,
	}
}

// CreateParty creates a new party owned by the given player, with fresh
// default settings and its own invitation manager.
func (c *Creator) CreateParty(ownerID uuid.UUID) *Party {
	c.mu.Lock()
	r := rand.New(rand.NewSource(c.seedRand.Int63()))
	c.mu.Unlock()

	invitations := NewTimedInvitationManager(c.scheduler, c.presence, c.notifier)
	return NewParty(r, ownerID, NewPartySettings(), NewPartyMember, invitations, c.presence, c.notifier)
}
