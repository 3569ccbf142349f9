package parties

import (
	"sort"

	"github.com/google/uuid"
)

// Packet structs for the NATS command surface. Field names mirror the
// JSON the game servers and proxies already send.

// GenericResponsePacket acknowledges a party command.
type GenericResponsePacket struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PlayerPacket carries a single acting player.
type PlayerPacket struct {
	PlayerID uuid.UUID `json:"player_id"`
}

// TargetPacket carries an acting player and the player they act on.
type TargetPacket struct {
	SenderID uuid.UUID `json:"sender_id"`
	PlayerID uuid.UUID `json:"player_id"`
}

// JoinPacket asks to join the party that TargetID is a member of,
// either via a pending invitation or because the party is open.
type JoinPacket struct {
	PlayerID uuid.UUID `json:"player_id"`
	TargetID uuid.UUID `json:"target_id"`
}

// InviteSendPacket invites a player to the sender's party, creating the
// party if the sender is not in one yet.
type InviteSendPacket struct {
	SenderID    uuid.UUID `json:"sender_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
}

// StatePacket toggles a boolean party setting; Ticks rides along for
// the invite expiry setting.
type StatePacket struct {
	PlayerID uuid.UUID `json:"player_id"`
	State    bool      `json:"state"`
	Ticks    int       `json:"ticks,omitempty"`
}

// SpyPacket starts or stops spying on the party TargetID belongs to.
type SpyPacket struct {
	PlayerID uuid.UUID `json:"player_id"`
	TargetID uuid.UUID `json:"target_id"`
	State    bool      `json:"state"`
}

// ChatPacket is a party chat message from a player.
type ChatPacket struct {
	PlayerID uuid.UUID `json:"player_id"`
	Message  string    `json:"message"`
}

// MemberListing is one row of the listing a player sees for their own
// party.
type MemberListing struct {
	PlayerID uuid.UUID `json:"player_id"`
	Username string    `json:"username"`
	Owner    bool      `json:"owner"`
	Online   bool      `json:"online"`
	Muted    bool      `json:"muted"`
}

// Listing is the member-facing view of a party: resolved usernames,
// the owner highlighted, and the pending invitations.
type Listing struct {
	ID      uuid.UUID       `json:"id"`
	Members []MemberListing `json:"members"`
	Invited []uuid.UUID     `json:"invited"`
	Muted   bool            `json:"muted"`
	Open    bool            `json:"open"`
}

// Listing snapshots the party for a member's listing request. The
// owner sorts first, the rest alphabetically by username.
func (p *Party) Listing() Listing {
	p.mu.Lock()
	defer p.mu.Unlock()

	listing := Listing{
		ID:      p.id,
		Members: make([]MemberListing, 0, len(p.members)),
		Muted:   p.settings.Muted,
		Open:    p.settings.AllowAnyoneToJoin,
	}
	for playerID, member := range p.members {
		listing.Members = append(listing.Members, MemberListing{
			PlayerID: playerID,
			Username: p.nameLocked(playerID),
			Owner:    member == p.owner,
			Online:   p.presence.IsOnline(playerID),
			Muted:    member.Muted,
		})
	}
	sort.Slice(listing.Members, func(i, j int) bool {
		if listing.Members[i].Owner != listing.Members[j].Owner {
			return listing.Members[i].Owner
		}
		return listing.Members[i].Username < listing.Members[j].Username
	})
	listing.Invited = p.invitations.Invitations()
	return listing
}

// Info is the wire-serializable view of a party's current state.
type Info struct {
	ID      uuid.UUID   `json:"id"`
	OwnerID uuid.UUID   `json:"owner_id"`
	Members []uuid.UUID `json:"members"`
	Invited []uuid.UUID `json:"invited"`
	Muted   bool        `json:"muted"`
	Open    bool        `json:"open"`
}

// Info snapshots the party for state fetches.
func (p *Party) Info() Info {
	p.mu.Lock()
	defer p.mu.Unlock()

	info := Info{
		ID:      p.id,
		Members: make([]uuid.UUID, 0, len(p.members)),
		Muted:   p.settings.Muted,
		Open:    p.settings.AllowAnyoneToJoin,
	}
	if p.owner != nil {
		info.OwnerID = p.owner.PlayerID
	}
	for playerID := range p.members {
		info.Members = append(info.Members, playerID)
	}
	info.Invited = p.invitations.Invitations()
	return info
}
