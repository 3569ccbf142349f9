package main

import (
	"log"
	"time"

	"github.com/CytonicMC/Cyrene/app"
	"github.com/CytonicMC/Cyrene/chat"
	"github.com/CytonicMC/Cyrene/env"
	"github.com/CytonicMC/Cyrene/handlers"
	"github.com/CytonicMC/Cyrene/metrics"
	"github.com/CytonicMC/Cyrene/notify"
	"github.com/CytonicMC/Cyrene/parties"
	"github.com/CytonicMC/Cyrene/presence"
	"github.com/CytonicMC/Cyrene/scheduler"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	// Initialize Prometheus metrics
	metrics.InitMetrics()
	metrics.ServeMetrics()

	// Connect to NATS server
	nc, err := nats.Connect(env.NatsUrl())
	if err != nil {
		log.Fatalf("Error connecting to NATS: %v", err)
	}
	defer nc.Close()
	log.Println("Connected to NATS!")

	// Invite expiry timers fire off a timing wheel with one game tick
	// of granularity.
	wheel := scheduler.NewWheel(parties.TickDuration, 512)
	wheel.Start()
	defer wheel.Stop()

	// Initialize the registries
	presenceReg := presence.NewRegistry()
	notifier := notify.NewNotifier(nc)
	tracker := parties.NewPartyTracker()
	creator := parties.NewCreator(time.Now().UnixNano(), wheel, presenceReg, notifier)

	metrics.RegisterPartyGauges(
		func() float64 { return float64(len(tracker.Parties())) },
		func() float64 { return float64(tracker.PendingInvitations()) },
	)

	instance := &app.Cyrene{
		Tracker:  tracker,
		Creator:  creator,
		Presence: presenceReg,
		Notifier: notifier,
	}

	// Set up handlers
	handlers.RegisterParties(nc, instance)
	handlers.RegisterInvites(nc, instance)
	handlers.RegisterPlayers(nc, instance)
	chat.RegisterChat(nc, instance)

	// Keep the service running
	select {}
}
