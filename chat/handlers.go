package chat

import (
	"encoding/json"
	"log"

	"github.com/CytonicMC/Cyrene/app"
	"github.com/CytonicMC/Cyrene/env"
	"github.com/CytonicMC/Cyrene/parties"
	"github.com/nats-io/nats.go"
)

// RegisterChat sets up the NATS subscriptions for party chat.
func RegisterChat(nc *nats.Conn, instance *app.Cyrene) {
	chatHandler(nc, instance)
	toggleHandler(nc, instance)
}

func chatHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.chat"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.ChatPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid ChatPacket message format: %s", msg.Data)
			return
		}

		party, verdict := Evaluate(instance.Tracker, packet.PlayerID)
		switch verdict {
		case RejectNotInParty:
			reply(msg, false, "ERR_NOT_IN_PARTY")
		case RejectMemberMuted:
			instance.Notifier.SendPrivate(packet.PlayerID, parties.NewMessage("party.chat.member.muted"))
			reply(msg, false, "ERR_MUTED")
		case RejectPartyMuted:
			instance.Notifier.SendPrivate(packet.PlayerID, parties.NewMessage("party.chat.muted"))
			reply(msg, false, "ERR_PARTY_MUTED")
		case Deliver:
			sender, ok := instance.Presence.Username(packet.PlayerID)
			if !ok {
				sender = packet.PlayerID.String()
			}
			party.Broadcast(parties.NewMessage("party.chat.message", sender, packet.Message))
			reply(msg, true, "")
		}
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party chat on subject '%s'", subject)
}

func toggleHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "party.chat.toggle"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet parties.PlayerPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid PlayerPacket message format: %s", msg.Data)
			return
		}

		party := instance.Tracker.GetPartyForPlayer(packet.PlayerID)
		if party == nil {
			reply(msg, false, "ERR_NOT_IN_PARTY")
			return
		}

		inPartyChat, ok := party.TogglePartyChat(packet.PlayerID)
		if !ok {
			reply(msg, false, "ERR_NOT_IN_PARTY")
			return
		}

		if inPartyChat {
			instance.Notifier.SendPrivate(packet.PlayerID, parties.NewMessage("party.chat.enabled"))
		} else {
			instance.Notifier.SendPrivate(packet.PlayerID, parties.NewMessage("party.chat.disabled"))
		}
		reply(msg, true, "")
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for party chat toggles on subject '%s'", subject)
}

func reply(msg *nats.Msg, success bool, reason string) {
	ack, err := json.Marshal(&parties.GenericResponsePacket{
		Success: success,
		Message: reason,
	})
	if err != nil {
		log.Printf("Error marshalling chat response: %v", err)
		return
	}
	if err := msg.Respond(ack); err != nil {
		log.Printf("Error sending acknowledgment: %v", err)
	}
}
