package parties

import (
	"fmt"
	"time"
)

// TickDuration is the length of one game tick. All expiry settings are
// stored in ticks because that is the unit the game servers speak.
const TickDuration = 50 * time.Millisecond

// DefaultInviteExpirationTicks is 60 seconds, the same invite window
// Cydian used for its party invites.
const DefaultInviteExpirationTicks = 1200

// PartySettings holds a party's mutable configuration. Access it
// through Party.Settings and Party.UpdateSettings so reads and writes
// stay serialized with the rest of the party's state.
type PartySettings struct {
	// Muted prevents everyone but the owner from speaking in party chat.
	Muted bool

	// AllowAnyoneToJoin lets players join without an invitation.
	AllowAnyoneToJoin bool

	// InviteExpirationTicks is how long an invitation stays pending,
	// in game ticks.
	InviteExpirationTicks int
}

// NewPartySettings returns settings with the network defaults.
func NewPartySettings() *PartySettings {
	return &PartySettings{InviteExpirationTicks: DefaultInviteExpirationTicks}
}

// InviteExpiration converts the configured tick count to a duration.
func (s *PartySettings) InviteExpiration() time.Duration {
	return time.Duration(s.InviteExpirationTicks) * TickDuration
}

// InviteExpirationSeconds renders the invite window in seconds for
// player-facing messages, e.g. "60.0".
func (s *PartySettings) InviteExpirationSeconds() string {
	return fmt.Sprintf("%.1f", float64(s.InviteExpirationTicks)/20)
}
