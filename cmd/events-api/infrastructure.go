// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/gatherhall/events-service/internal/infrastructure/store"
	"github.com/gatherhall/events-service/internal/logging"
)

// natsConnectTimeout bounds the initial connection attempt.
const natsConnectTimeout = 10 * time.Second

// repositories bundles the KV-backed repositories for wiring.
type repositories struct {
	Definitions *store.NatsDefinitionRepository
	Overrides   *store.NatsOverrideRepository
}

// setupNATS connects to the NATS server and registers shutdown hooks.
func setupNATS(env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.Timeout(natsConnectTimeout),
		nats.DrainTimeout(natsConnectTimeout),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.With("nats_url", env.NatsURL).Info("connected to NATS server")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			slog.With(logging.ErrKey, err).Error("NATS error")
		}),
		nats.ClosedHandler(func(conn *nats.Conn) {
			if err := conn.LastError(); err != nil {
				slog.With(logging.ErrKey, err).Error("NATS connection closed with error")
				// Self-terminate so the orchestrator restarts us.
				done <- os.Interrupt
				return
			}
			slog.Info("NATS connection closed")
			gracefulCloseWG.Done()
		}),
	)
	if err != nil {
		return nil, err
	}

	// The closed handler decrements this once draining finishes.
	gracefulCloseWG.Add(1)

	return natsConn, nil
}

// getKeyValueStores binds the repositories to their JetStream buckets,
// creating the buckets if they do not exist yet.
func getKeyValueStores(ctx context.Context, natsConn *nats.Conn) (*repositories, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, err
	}

	definitionsKV, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  store.KVStoreNameEventDefinitions,
		History: 20,
	})
	if err != nil {
		return nil, err
	}

	overridesKV, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  store.KVStoreNameOccurrenceOverrides,
		History: 20,
	})
	if err != nil {
		return nil, err
	}

	return &repositories{
		Definitions: store.NewNatsDefinitionRepository(definitionsKV),
		Overrides:   store.NewNatsOverrideRepository(overridesKV),
	}, nil
}
