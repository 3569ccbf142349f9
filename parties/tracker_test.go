package parties

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type TrackerSuite struct {
	suite.Suite
	presence *fakePresence
	notifier *recordingNotifier
	sched    *fakeScheduler
	tracker  *PartyTracker
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerSuite))
}

func (s *TrackerSuite) SetupTest() {
	s.presence = newFakePresence()
	s.notifier = newRecordingNotifier()
	s.sched = newFakeScheduler()
	s.tracker = NewPartyTracker()
}

func (s *TrackerSuite) newParty(ownerID uuid.UUID) *Party {
	s.presence.connect(ownerID, "Owner")
	invitations := NewTimedInvitationManager(s.sched, s.presence, s.notifier)
	return NewParty(rand.New(rand.NewSource(1)), ownerID, NewPartySettings(),
		NewPartyMember, invitations, s.presence, s.notifier)
}

func (s *TrackerSuite) TestTrackIndexesCurrentMembers() {
	ownerID := uuid.New()
	p := s.newParty(ownerID)
	memberID := uuid.New()
	p.AddMember(memberID) // joined before tracking

	s.tracker.TrackParty(p)

	s.Same(p, s.tracker.GetPartyForPlayer(ownerID))
	s.Same(p, s.tracker.GetPartyForPlayer(memberID))
	s.Nil(s.tracker.GetPartyForPlayer(uuid.New()))
	s.Equal(2, s.tracker.Size())
}

func (s *TrackerSuite) TestIndexFollowsJoinsAndLeaves() {
	ownerID := uuid.New()
	p := s.newParty(ownerID)
	s.tracker.TrackParty(p)

	memberID := uuid.New()
	p.AddMember(memberID)
	s.Same(p, s.tracker.GetPartyForPlayer(memberID))

	p.RemoveMember(memberID, false)
	s.Nil(s.tracker.GetPartyForPlayer(memberID))
	s.Same(p, s.tracker.GetPartyForPlayer(ownerID))
}

func (s *TrackerSuite) TestDisbandEmptiesIndex() {
	ownerID := uuid.New()
	p := s.newParty(ownerID)
	s.tracker.TrackParty(p)
	p.AddMember(uuid.New())

	p.Disband()

	s.Equal(0, s.tracker.Size())
	s.Nil(s.tracker.GetPartyForPlayer(ownerID))
	s.Empty(s.tracker.Parties())
}

func (s *TrackerSuite) TestLastMemberLeavingDropsParty() {
	ownerID := uuid.New()
	p := s.newParty(ownerID)
	s.tracker.TrackParty(p)

	p.RemoveMember(ownerID, false)

	s.Equal(0, s.tracker.Size())
	s.Empty(s.tracker.Parties())
}

func (s *TrackerSuite) TestPendingInvitationsFollowExpiry() {
	ownerID := uuid.New()
	p := s.newParty(ownerID)
	s.tracker.TrackParty(p)

	p.Invite(uuid.New(), ownerID)
	p.Invite(uuid.New(), ownerID)
	s.Equal(2, s.tracker.PendingInvitations())

	// an expiring invitation stops counting without any command running
	s.sched.timers[0].fire()
	s.Equal(1, s.tracker.PendingInvitations())

	s.sched.timers[1].fire()
	s.Equal(0, s.tracker.PendingInvitations())
}

func (s *TrackerSuite) TestPartiesDeduplicatesByParty() {
	first := s.newParty(uuid.New())
	first.AddMember(uuid.New())
	second := s.newParty(uuid.New())
	s.tracker.TrackParty(first)
	s.tracker.TrackParty(second)

	parties := s.tracker.Parties()
	s.Len(parties, 2)
	s.Equal(3, s.tracker.Size())
}
