package handlers

import (
	"encoding/json"
	"log"

	"github.com/CytonicMC/Cyrene/app"
	"github.com/CytonicMC/Cyrene/env"
	"github.com/CytonicMC/Cyrene/metrics"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// PlayerStatusPacket announces a player connecting to or disconnecting
// from the network.
type PlayerStatusPacket struct {
	UUID     uuid.UUID `json:"uuid"`
	Username string    `json:"username"`
}

// RegisterPlayers feeds the presence registry from the proxies'
// connect/disconnect notifications. Disconnecting does not remove a
// player from their party; offline members stay until kicked.
func RegisterPlayers(nc *nats.Conn, instance *app.Cyrene) {
	playerConnectHandler(nc, instance)
	playerDisconnectHandler(nc, instance)
}

func playerConnectHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "players.connect"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet PlayerStatusPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid PlayerStatusPacket message format: %s", msg.Data)
			return
		}

		instance.Presence.Connect(packet.UUID, packet.Username)
		metrics.OnlinePlayers.Set(float64(instance.Presence.Count()))
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for player connects on subject '%s'", subject)
}

func playerDisconnectHandler(nc *nats.Conn, instance *app.Cyrene) {
	const subject = "players.disconnect"

	_, err := nc.Subscribe(env.EnsurePrefixed(subject), func(msg *nats.Msg) {
		var packet PlayerStatusPacket
		if err := json.Unmarshal(msg.Data, &packet); err != nil {
			log.Printf("Invalid PlayerStatusPacket message format: %s", msg.Data)
			return
		}

		instance.Presence.Disconnect(packet.UUID)
		metrics.OnlinePlayers.Set(float64(instance.Presence.Count()))
	})
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", subject, err)
	}
	log.Printf("Listening for player disconnects on subject '%s'", subject)
}
