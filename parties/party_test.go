package parties

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type PartySuite struct {
	suite.Suite
	presence *fakePresence
	notifier *recordingNotifier
	sched    *fakeScheduler
}

func TestPartySuite(t *testing.T) {
	suite.Run(t, new(PartySuite))
}

func (s *PartySuite) SetupTest() {
	s.presence = newFakePresence()
	s.notifier = newRecordingNotifier()
	s.sched = newFakeScheduler()
}

// newParty builds a party with a connected owner and a seeded
// randomness source.
func (s *PartySuite) newParty(ownerID uuid.UUID, seed int64) *Party {
	s.presence.connect(ownerID, "Owner")
	invitations := NewTimedInvitationManager(s.sched, s.presence, s.notifier)
	return NewParty(rand.New(rand.NewSource(seed)), ownerID, NewPartySettings(),
		NewPartyMember, invitations, s.presence, s.notifier)
}

// assertOwnerInvariant checks that a non-empty party always has exactly
// one owner who is a current member.
func (s *PartySuite) assertOwnerInvariant(p *Party) {
	if p.Size() == 0 {
		return
	}
	owner, ok := p.Owner()
	s.Require().True(ok, "non-empty party must have an owner")
	s.True(p.HasMember(owner.PlayerID), "owner must be a member")
}

func (s *PartySuite) TestOwnerInvariantAcrossOperations() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)

	others := make([]uuid.UUID, 6)
	for i := range others {
		others[i] = uuid.New()
		if i%2 == 0 {
			s.presence.connect(others[i], "Member")
		}
		p.AddMember(others[i])
		s.assertOwnerInvariant(p)
	}

	p.RemoveMember(ownerID, false)
	s.assertOwnerInvariant(p)

	p.KickOffline()
	s.assertOwnerInvariant(p)

	p.RemoveMember(others[0], true)
	s.assertOwnerInvariant(p)

	p.Disband()
	s.Equal(0, p.Size())
	_, ok := p.Owner()
	s.False(ok)
}

func (s *PartySuite) TestAddMemberIsIdempotent() {
	p := s.newParty(uuid.New(), 1)
	playerID := uuid.New()

	joins := 0
	p.OnJoin(func(*PartyMember) { joins++ })

	s.Require().NotNil(p.AddMember(playerID))
	s.Nil(p.AddMember(playerID))

	s.Equal(2, p.Size())
	s.Equal(1, joins)
}

func (s *PartySuite) TestSuccessionPrefersConnectedMembers() {
	for seed := int64(0); seed < 50; seed++ {
		s.SetupTest()

		ownerID := uuid.New()
		p := s.newParty(ownerID, seed)

		online := map[uuid.UUID]bool{}
		for i := 0; i < 3; i++ {
			playerID := uuid.New()
			s.presence.connect(playerID, "Online")
			online[playerID] = true
			p.AddMember(playerID)
		}
		for i := 0; i < 3; i++ {
			p.AddMember(uuid.New())
		}

		p.RemoveMember(ownerID, false)

		owner, ok := p.Owner()
		s.Require().True(ok)
		s.True(online[owner.PlayerID], "seed %d picked a disconnected owner", seed)
	}
}

func (s *PartySuite) TestSuccessionFallsBackToDisconnectedMembers() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 7)

	offline := uuid.New()
	p.AddMember(offline)

	p.RemoveMember(ownerID, false)

	owner, ok := p.Owner()
	s.Require().True(ok)
	s.Equal(offline, owner.PlayerID)
}

func (s *PartySuite) TestSuccessionScenarioSingleConnectedCandidate() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)

	a := uuid.New()
	b := uuid.New()
	s.presence.connect(a, "A")
	p.AddMember(a)
	p.AddMember(b) // offline

	p.RemoveMember(ownerID, false)

	owner, ok := p.Owner()
	s.Require().True(ok)
	s.Equal(a, owner.PlayerID)
	s.True(p.HasMember(b))

	// stable across reads
	again, ok := p.Owner()
	s.Require().True(ok)
	s.Equal(a, again.PlayerID)
}

func (s *PartySuite) TestJoiningStopsSpying() {
	p := s.newParty(uuid.New(), 1)

	spyID := uuid.New()
	p.AddSpy(NewPlayerAudience(spyID, s.notifier))
	s.Require().True(p.IsSpying(spyID))

	p.AddMember(spyID)

	s.False(p.IsSpying(spyID))
	s.True(p.HasMember(spyID))
}

func (s *PartySuite) TestSpyListRejectsDuplicatesAndMembers() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)

	spyID := uuid.New()
	p.AddSpy(NewPlayerAudience(spyID, s.notifier))
	p.AddSpy(NewPlayerAudience(spyID, s.notifier))
	s.Len(p.spies, 1)

	// members cannot spy on their own party
	p.AddSpy(NewPlayerAudience(ownerID, s.notifier))
	s.Len(p.spies, 1)

	p.RemoveSpy(NewPlayerAudience(spyID, s.notifier))
	s.False(p.IsSpying(spyID))
}

func (s *PartySuite) TestBroadcastReachesOnlineMembersAndSpies() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)
	offline := uuid.New()
	p.AddMember(offline)

	audience := &recordingAudience{}
	p.AddSpy(audience)

	s.notifier.reset()
	p.Broadcast(NewMessage("party.muted"))

	s.Equal(1, s.notifier.received(ownerID, "party.muted"))
	s.Equal(0, s.notifier.received(offline, "party.muted"))
	s.Require().Len(audience.messages, 1)
	s.Equal("party.muted", audience.messages[0].Key)
}

func (s *PartySuite) TestDisbandIsTerminal() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)
	a := uuid.New()
	s.presence.connect(a, "A")
	p.AddMember(a)

	leaves := 0
	p.OnLeave(func(*PartyMember) { leaves++ })

	removed := p.Disband()
	s.ElementsMatch([]uuid.UUID{ownerID, a}, removed)
	s.Equal(2, leaves)
	_, ok := p.Owner()
	s.False(ok)
	s.Equal(1, s.notifier.received(a, "party.disbanded"))
	s.Empty(p.joinHandlers)
	s.Empty(p.leaveHandlers)

	s.Empty(p.Disband())
	s.Equal(2, leaves)
}

func (s *PartySuite) TestKickOfflineSweepsAndSummarizes() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)

	a := uuid.New()
	b := uuid.New()
	c := uuid.New()
	s.presence.connect(c, "C")
	p.AddMember(a)
	p.AddMember(b)
	p.AddMember(c)

	leaves := 0
	p.OnLeave(func(*PartyMember) { leaves++ })
	s.notifier.reset()

	kicked := p.KickOffline()

	s.ElementsMatch([]uuid.UUID{a, b}, kicked)
	s.Equal(2, leaves)
	s.Equal(1, s.notifier.received(ownerID, "party.kickoffline.kicked.other"))
	s.Equal(1, s.notifier.received(c, "party.kickoffline.kicked.other"))
	s.assertOwnerInvariant(p)
}

func (s *PartySuite) TestKickOfflineUsesSingularForm() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)
	p.AddMember(uuid.New()) // offline

	s.notifier.reset()
	kicked := p.KickOffline()

	s.Len(kicked, 1)
	s.Equal(1, s.notifier.received(ownerID, "party.kickoffline.kicked.one"))
}

func (s *PartySuite) TestKickOfflineReassignsOwnership() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 3)
	a := uuid.New()
	s.presence.connect(a, "A")
	p.AddMember(a)

	s.presence.disconnect(ownerID)
	kicked := p.KickOffline()

	s.ElementsMatch([]uuid.UUID{ownerID}, kicked)
	owner, ok := p.Owner()
	s.Require().True(ok)
	s.Equal(a, owner.PlayerID)
	s.Equal(1, s.notifier.received(a, "party.kickoffline.newowner"))
}

func (s *PartySuite) TestKickOfflineEmptyingPartyCancelsInvites() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)

	invitee := uuid.New()
	p.Invite(invitee, ownerID)
	s.Require().True(p.Invitations().HasInvitation(invitee))

	s.presence.disconnect(ownerID)
	p.KickOffline()

	s.Equal(0, p.Size())
	s.False(p.Invitations().HasInvitation(invitee))
	s.Empty(p.joinHandlers)
	s.Empty(p.leaveHandlers)
}

func (s *PartySuite) TestMuteTogglesAndAnnounces() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)

	p.Mute()
	s.True(p.Settings().Muted)
	s.Equal(1, s.notifier.received(ownerID, "party.muted"))

	p.Mute()
	s.False(p.Settings().Muted)
	s.Equal(1, s.notifier.received(ownerID, "party.unmuted"))
}

func (s *PartySuite) TestMutePlayerSkipsOwnerAndNonMembers() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)
	a := uuid.New()
	p.AddMember(a)

	s.notifier.reset()

	p.MutePlayer(ownerID)
	owner, _ := p.Member(ownerID)
	s.False(owner.Muted)

	p.MutePlayer(uuid.New())
	s.Equal(0, s.notifier.received(ownerID, "party.member.muted"))

	p.MutePlayer(a)
	member, _ := p.Member(a)
	s.True(member.Muted)
	s.Equal(1, s.notifier.received(ownerID, "party.member.muted"))

	p.MutePlayer(a)
	member, _ = p.Member(a)
	s.False(member.Muted)
	s.Equal(1, s.notifier.received(ownerID, "party.member.unmuted"))
}

func (s *PartySuite) TestTransferRequiresMembership() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)

	err := p.TransferPartyToPlayer(uuid.New())
	s.Require().ErrorIs(err, ErrNotAMember)
	s.True(p.IsOwner(ownerID))
}

func (s *PartySuite) TestTransferReassignsUnconditionally() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)
	a := uuid.New() // offline member; explicit transfer skips succession rules
	p.AddMember(a)

	s.Require().NoError(p.TransferPartyToPlayer(a))
	s.True(p.IsOwner(a))
	s.False(p.IsOwner(ownerID))
	s.Equal(1, s.notifier.received(ownerID, "party.transferred"))
}

func (s *PartySuite) TestRemovalNoticesDistinguishKickFromLeave() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)

	kickedID := uuid.New()
	s.presence.connect(kickedID, "Kicked")
	leaverID := uuid.New()
	s.presence.connect(leaverID, "Leaver")
	p.AddMember(kickedID)
	p.AddMember(leaverID)

	p.RemoveMember(kickedID, true)
	s.Equal(1, s.notifier.received(kickedID, "party.member.removed.leaver"))
	s.Equal(1, s.notifier.received(ownerID, "party.member.removed.remaining"))

	p.RemoveMember(leaverID, false)
	s.Equal(1, s.notifier.received(leaverID, "party.member.left.leaver"))
	s.Equal(1, s.notifier.received(ownerID, "party.member.left.remaining"))
}

func (s *PartySuite) TestOfflineLeaverGetsNoPrivateNotice() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)
	a := uuid.New() // never connected
	p.AddMember(a)

	p.RemoveMember(a, false)
	s.Empty(s.notifier.keysFor(a))
}

func (s *PartySuite) TestLastLeaveDispatchesBeforeClearingHandlers() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)

	var left []uuid.UUID
	p.OnLeave(func(m *PartyMember) { left = append(left, m.PlayerID) })

	invitee := uuid.New()
	p.Invite(invitee, ownerID)

	p.RemoveMember(ownerID, false)

	s.Equal([]uuid.UUID{ownerID}, left)
	s.Equal(0, p.Size())
	_, ok := p.Owner()
	s.False(ok)
	s.False(p.Invitations().HasInvitation(invitee))
	s.Empty(p.joinHandlers)
	s.Empty(p.leaveHandlers)
}

func (s *PartySuite) TestHandlersFireInRegistrationOrder() {
	p := s.newParty(uuid.New(), 1)

	var order []int
	p.OnJoin(func(*PartyMember) { order = append(order, 1) })
	p.OnJoin(func(*PartyMember) { order = append(order, 2) })
	p.OnJoin(func(*PartyMember) { order = append(order, 3) })

	p.AddMember(uuid.New())
	s.Equal([]int{1, 2, 3}, order)
}

func (s *PartySuite) TestListingHighlightsOwnerAndResolvesNames() {
	ownerID := uuid.New()
	p := s.newParty(ownerID, 1)

	bella := uuid.New()
	s.presence.connect(bella, "Bella")
	p.AddMember(bella)
	adam := uuid.New() // offline, name falls back to the uuid
	p.AddMember(adam)
	p.MutePlayer(bella)

	invitee := uuid.New()
	p.Invite(invitee, ownerID)

	listing := p.Listing()

	s.Equal(p.ID(), listing.ID)
	s.Equal([]uuid.UUID{invitee}, listing.Invited)
	s.Require().Len(listing.Members, 3)

	s.Equal(ownerID, listing.Members[0].PlayerID, "owner sorts first")
	s.True(listing.Members[0].Owner)
	s.Equal("Owner", listing.Members[0].Username)

	for _, row := range listing.Members[1:] {
		s.False(row.Owner)
	}
	for _, row := range listing.Members {
		switch row.PlayerID {
		case bella:
			s.Equal("Bella", row.Username)
			s.True(row.Online)
			s.True(row.Muted)
		case adam:
			s.Equal(adam.String(), row.Username)
			s.False(row.Online)
			s.False(row.Muted)
		}
	}
}
