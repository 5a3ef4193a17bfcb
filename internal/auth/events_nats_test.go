// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/nats-io/nats-server/v2/server"
)

func runNATSServer(t *testing.T) string {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		ServerName: "adsgate-test",
		Host:       "127.0.0.1",
		Port:       server.RANDOM_PORT,
		NoLog:      true,
		NoSigs:     true,
	})
	if err != nil {
		t.Fatalf("create NATS server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns.ClientURL()
}

func newNATSBus(t *testing.T, url string) *NATSBus {
	t.Helper()
	bus, err := NewNATSEventBus(url)
	if err != nil {
		t.Fatalf("NewNATSEventBus: %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

// waitForSubscription publishes probes until sub sees one, since core NATS
// drops messages published before the subscription reaches the server.
func waitForSubscription(t *testing.T, pub message.Publisher, msgs <-chan *message.Message) {
	t.Helper()
	probe, _ := json.Marshal(TokenEvent{Type: "probe", UserID: "probe"})
	for range 50 {
		if err := pub.Publish(TokenTopic, message.NewMessage(watermill.NewUUID(), probe)); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		select {
		case msg := <-msgs:
			msg.Ack()
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
	t.Fatal("subscription never received a probe")
}

func TestNATSBusCrossInstance(t *testing.T) {
	url := runNATSServer(t)
	instanceA := newNATSBus(t, url)
	instanceB := newNATSBus(t, url)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs, err := instanceB.Subscribe(ctx, TokenTopic)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	waitForSubscription(t, instanceA, msgs)

	tm, err := NewTokenManager(TokenManagerConfig{OAuth: &fakeOAuth{}, Events: instanceA})
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	if err := tm.RevokeToken(ctx, "u1"); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-msgs:
			ev, err := DecodeTokenEvent(msg)
			msg.Ack()
			if err != nil {
				t.Fatalf("DecodeTokenEvent: %v", err)
			}
			if ev.Type == "probe" {
				continue
			}
			if ev.Type != EventTokenRevoked || ev.UserID != "u1" {
				t.Fatalf("event = %+v", ev)
			}
			return
		case <-deadline:
			t.Fatal("revocation never reached the other instance")
		}
	}
}

func TestNATSBusStartsWithoutServer(t *testing.T) {
	// Nothing listens here; the connection keeps retrying in the background.
	bus, err := NewNATSEventBus("nats://127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewNATSEventBus should not fail on an unreachable server: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Logf("Close: %v", err)
	}
}
