package app

import (
	"github.com/CytonicMC/Cyrene/notify"
	"github.com/CytonicMC/Cyrene/parties"
	"github.com/CytonicMC/Cyrene/presence"
)

// Cyrene aggregates the service's shared registries for the handlers.
type Cyrene struct {
	Tracker  *parties.PartyTracker
	Creator  *parties.Creator
	Presence *presence.Registry
	Notifier *notify.Notifier
}
