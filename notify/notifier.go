package notify

import (
	"encoding/json"
	"log"

	"github.com/CytonicMC/Cyrene/env"
	"github.com/CytonicMC/Cyrene/parties"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Notifier publishes player-facing message packets over NATS. Whatever
// proxy the player is connected through subscribes to the player's
// message subject, renders the translation key and delivers it.
type Notifier struct {
	nc *nats.Conn
}

// NewNotifier creates a NATS-backed notifier.
func NewNotifier(nc *nats.Conn) *Notifier {
	return &Notifier{nc: nc}
}

// SendPrivate publishes a message for a single player.
func (n *Notifier) SendPrivate(playerID uuid.UUID, msg parties.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshalling message for player %s: %v", playerID, err)
		return
	}

	subject := env.EnsurePrefixed("players.message." + playerID.String())
	if err := n.nc.Publish(subject, data); err != nil {
		log.Printf("Error publishing message for player %s: %v", playerID, err)
	}
}
