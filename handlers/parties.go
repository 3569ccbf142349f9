package handlers

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/CytonicMC/Cyrene/app"
	"github.com/CytonicMC/Cyrene/env"
	"github.com/CytonicMC/Cyrene/metrics"
	"github.com/CytonicMC/Cyrene/parties"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// RegisterParties sets up the NATS subscriptions for party membership
// and ownership commands.
func RegisterParties(nc *nats.Conn, instance *app.Cyrene) {
	joinHandler(nc, instance)
	leaveHandler(nc, instance)
	kickHandler(nc, instance)
	kickOfflineHandler(nc, instance)
	disbandHandler(nc, instance)
	transferHandler(nc, instance)
	muteHandler(nc, instance)
	mutePlayerHandler(nc, instance)
	settingsHandler(nc, instance)
	spyHandler(nc, instance)
	listHandler(nc, instance)
	fetchHandler(nc, instance)
}

func joinHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.join.request.*" // allow for bypass using wildcard

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.JoinPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid JoinPacket message format: %s", msg.Data)
			return
		}

		party := instance.Tracker.GetPartyForPlayer(packet.TargetID)
		if party == nil {
			reply(msg, "join", false, "ERR_INVALID_PARTY")
			return
		}
		if instance.Tracker.GetPartyForPlayer(packet.PlayerID) != nil {
			reply(msg, "join", false, "ERR_ALREADY_IN_PARTY")
			return
		}

		hasBypassed := strings.Contains(msg.Subject, "bypass")
		invited := party.Invitations().HasInvitation(packet.PlayerID)
		if !invited && !party.Settings().AllowAnyoneToJoin && !hasBypassed {
			reply(msg, "join", false, "ERR_NOT_INVITED")
			return
		}

		party.AddMember(packet.PlayerID)
		reply(msg, "join", true, "")
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party join requests on subject '%s'", subject)
}

func leaveHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.leave.request"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.PlayerPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid PlayerPacket message format: %s", msg.Data)
			return
		}

		party := instance.Tracker.GetPartyForPlayer(packet.PlayerID)
		if party == nil {
			reply(msg, "leave", false, "ERR_NOT_IN_PARTY")
			return
		}

		party.RemoveMember(packet.PlayerID, false)
		reply(msg, "leave", true, "")
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party leaves on subject '%s'", subject)
}

func kickHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.kick.request"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.TargetPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid TargetPacket message format: %s", msg.Data)
			return
		}

		party, errMsg := ownedParty(instance, packet.SenderID)
		if errMsg != "" {
			reply(msg, "kick", false, errMsg)
			return
		}
		if !party.HasMember(packet.PlayerID) {
			reply(msg, "kick", false, "ERR_NOT_IN_PARTY")
			return
		}

		party.RemoveMember(packet.PlayerID, true)
		reply(msg, "kick", true, "")
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party kicks on subject '%s'", subject)
}

func kickOfflineHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.kickoffline.request"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.PlayerPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid PlayerPacket message format: %s", msg.Data)
			return
		}

		party, errMsg := ownedParty(instance, packet.PlayerID)
		if errMsg != "" {
			reply(msg, "kickoffline", false, errMsg)
			return
		}

		kicked := party.KickOffline()
		log.Printf("Kicked %d offline members from party %s", len(kicked), party.ID())
		reply(msg, "kickoffline", true, "")
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party offline kicks on subject '%s'", subject)
}

func disbandHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.disband.request"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.PlayerPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid PlayerPacket message format: %s", msg.Data)
			return
		}

		party, errMsg := ownedParty(instance, packet.PlayerID)
		if errMsg != "" {
			reply(msg, "disband", false, errMsg)
			return
		}

		party.Disband()
		reply(msg, "disband", true, "")
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party disbands on subject '%s'", subject)
}

func transferHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.transfer.request"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.TargetPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid TargetPacket message format: %s", msg.Data)
			return
		}

		party, errMsg := ownedParty(instance, packet.SenderID)
		if errMsg != "" {
			reply(msg, "transfer", false, errMsg)
			return
		}
		if !party.HasMember(packet.PlayerID) {
			reply(msg, "transfer", false, "ERR_NOT_IN_PARTY")
			return
		}

		if err := party.TransferPartyToPlayer(packet.PlayerID); err != nil {
			log.Printf("Error transferring party %s: %v", party.ID(), err)
			reply(msg, "transfer", false, "ERR_NOT_IN_PARTY")
			return
		}
		reply(msg, "transfer", true, "")
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party transfers on subject '%s'", subject)
}

func muteHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.mute.request"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.PlayerPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid PlayerPacket message format: %s", msg.Data)
			return
		}

		party, errMsg := ownedParty(instance, packet.PlayerID)
		if errMsg != "" {
			reply(msg, "mute", false, errMsg)
			return
		}

		party.Mute()
		reply(msg, "mute", true, "")
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party mutes on subject '%s'", subject)
}

func mutePlayerHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.mute.player.request"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.TargetPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid TargetPacket message format: %s", msg.Data)
			return
		}

		party, errMsg := ownedParty(instance, packet.SenderID)
		if errMsg != "" {
			reply(msg, "mute_player", false, errMsg)
			return
		}

		party.MutePlayer(packet.PlayerID)
		reply(msg, "mute_player", true, "")
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party member mutes on subject '%s'", subject)
}

func settingsHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.settings.*.request"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.StatePacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid StatePacket message format: %s", msg.Data)
			return
		}

		parts := strings.Split(msg.Subject, ".")

		// party.settings.<action>.request
		if len(parts) < 4 {
			return
		}
		action := parts[len(parts)-2]

		party, errMsg := ownedParty(instance, packet.PlayerID)
		if errMsg != "" {
			reply(msg, "settings", false, errMsg)
			return
		}

		switch action {
		case "open":
			party.UpdateSettings(func(s *parties.PartySettings) {
				s.AllowAnyoneToJoin = packet.State
			})
		case "invite_expiry":
			if packet.Ticks <= 0 {
				reply(msg, "settings", false, "ERR_INVALID_EXPIRY")
				return
			}
			party.UpdateSettings(func(s *parties.PartySettings) {
				s.InviteExpirationTicks = packet.Ticks
			})
		default:
			log.Printf("Invalid party settings action: %s", action)
			reply(msg, "settings", false, "ERR_INVALID_ACTION")
			return
		}
		reply(msg, "settings", true, "")
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party settings changes on subject '%s'", subject)
}

func spyHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.spy.request"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.SpyPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid SpyPacket message format: %s", msg.Data)
			return
		}

		party := instance.Tracker.GetPartyForPlayer(packet.TargetID)
		if party == nil {
			reply(msg, "spy", false, "ERR_INVALID_PARTY")
			return
		}
		if party.HasMember(packet.PlayerID) {
			reply(msg, "spy", false, "ERR_ALREADY_IN_PARTY")
			return
		}

		audience := parties.NewPlayerAudience(packet.PlayerID, instance.Notifier)
		if packet.State {
			party.AddSpy(audience)
		} else {
			party.RemoveSpy(audience)
		}
		reply(msg, "spy", true, "")
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party spy requests on subject '%s'", subject)
}

func listHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.list.request"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.PlayerPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid PlayerPacket message format: %s", msg.Data)
			return
		}

		party := instance.Tracker.GetPartyForPlayer(packet.PlayerID)
		if party == nil {
			reply(msg, "list", false, "ERR_NOT_IN_PARTY")
			return
		}

		listing := party.Listing()
		ack, err := json.Marshal(&listing)
		if err != nil {
			log.Printf("Error marshalling party listing response: %v", err)
			return
		}
		metrics.CommandCount.WithLabelValues("list", "success").Inc()
		if err := msg.Respond(ack); err != nil {
			log.Printf("Error sending acknowledgment: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party listing requests on subject '%s'", subject)
}

func fetchHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.fetch.request"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		tracked := instance.Tracker.Parties()
		data := make([]parties.Info, 0, len(tracked))
		for _, party := range tracked {
			data = append(data, party.Info())
		}

		ack, err := json.Marshal(&data)
		if err != nil {
			log.Printf("Error marshalling fetch party response: %v", err)
			return
		}
		if err := msg.Respond(ack); err != nil {
			log.Printf("Error sending acknowledgment: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party fetch requests on subject '%s'", subject)
}

// ownedParty resolves the party the player owns, with the ERR_ reason
// for the reply when they are not in a party or do not own it.
func ownedParty(instance *app.Cyrene, playerID uuid.UUID) (*parties.Party, string) {
	party := instance.Tracker.GetPartyForPlayer(playerID)
	if party == nil {
		return nil, "ERR_NOT_IN_PARTY"
	}
	if !party.IsOwner(playerID) {
		return nil, "ERR_NO_PERMISSION"
	}
	return party, ""
}

func reply(msg *nats.Msg, command string, success bool, reason string) {
	status := "success"
	if !success {
		status = "error"
	}
	metrics.CommandCount.WithLabelValues(command, status).Inc()

	ack, err := json.Marshal(&parties.GenericResponsePacket{
		Success: success,
		Message: reason,
	})
	if err != nil {
		log.Printf("Error marshalling party command response: %v", err)
		return
	}
	if err := msg.Respond(ack); err != nil {
		log.Printf("Error sending acknowledgment: %v", err)
	}
}
