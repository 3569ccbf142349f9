package handlers

import (
	"encoding/json"
	"log"

	"github.com/CytonicMC/Cyrene/app"
	"github.com/CytonicMC/Cyrene/env"
	"github.com/CytonicMC/Cyrene/parties"
	"github.com/nats-io/nats.go"
)

// RegisterInvites sets up the NATS subscriptions for party invitations.
func RegisterInvites(nc *nats.Conn, instance *app.Cyrene) {
	sendInviteHandler(nc, instance)
	acceptInviteHandler(nc, instance)
	revokeInviteHandler(nc, instance)
}

func sendInviteHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.invites.send"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.InviteSendPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid InviteSendPacket message format: %s", msg.Data)
			reply(msg, "invite", false, "ERR_INVALID_MESSAGE_FORMAT")
			return
		}

		success, reason := sendInvite(instance, packet)
		reply(msg, "invite", success, reason)
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party invite sends on subject '%s'", subject)
}

func sendInvite(instance *app.Cyrene, packet parties.InviteSendPacket) (bool, string) {
	if packet.SenderID == packet.RecipientID {
		return false, "ERR_ALREADY_IN_PARTY"
	}
	if instance.Tracker.GetPartyForPlayer(packet.RecipientID) != nil {
		return false, "ERR_ALREADY_IN_PARTY"
	}

	party := instance.Tracker.GetPartyForPlayer(packet.SenderID)
	if party == nil {
		// first invite creates the sender's party
		party = instance.Creator.CreateParty(packet.SenderID)
		instance.Tracker.TrackParty(party)
		log.Printf("Created party %s for %s", party.ID(), packet.SenderID)
	}

	party.Invite(packet.RecipientID, packet.SenderID)
	if !party.Invitations().HasInvitation(packet.RecipientID) {
		return false, "ERR_STATE_MISMATCH_SERVICE"
	}
	return true, ""
}

func acceptInviteHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.invites.accept"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.JoinPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid JoinPacket message format: %s", msg.Data)
			reply(msg, "accept", false, "ERR_INVALID_MESSAGE_FORMAT")
			return
		}

		success, reason := acceptInvite(instance, packet)
		reply(msg, "accept", success, reason)
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party invite accepts on subject '%s'", subject)
}

// acceptInvite joins the player to TargetID's party strictly on the
// strength of a pending invitation, unlike the join command which also
// honors open parties and the bypass subject.
func acceptInvite(instance *app.Cyrene, packet parties.JoinPacket) (bool, string) {
	party := instance.Tracker.GetPartyForPlayer(packet.TargetID)
	if party == nil {
		return false, "ERR_INVALID_PARTY"
	}
	if instance.Tracker.GetPartyForPlayer(packet.PlayerID) != nil {
		return false, "ERR_ALREADY_IN_PARTY"
	}
	if !party.Invitations().HasInvitation(packet.PlayerID) {
		return false, "ERR_NOT_INVITED"
	}

	party.AddMember(packet.PlayerID)
	return true, ""
}

func revokeInviteHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.invites.revoke"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.TargetPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid TargetPacket message format: %s", msg.Data)
			return
		}

		party, errMsg := ownedParty(instance, packet.SenderID)
		if errMsg != "" {
			reply(msg, "uninvite", false, errMsg)
			return
		}

		if !party.Invitations().RemoveInvitation(packet.PlayerID) {
			reply(msg, "uninvite", false, "ERR_NOT_INVITED")
			return
		}

		reply(msg, "uninvite", true, "")
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party invite revocations on subject '%s'", subject)
}
