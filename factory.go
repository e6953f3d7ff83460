// Package flowengine is the public facade over the engine's internal
// packages: construct a Store, Recorder, Registry and Runner, wire them
// into a Scheduler, and drive flows through it. Grounded on the
// teacher's own root-package facade (factory.go + mbflow.go), which
// re-exports internal constructors and types rather than asking callers
// to import internal/... directly.
package flowengine

import (
	"context"
	"time"

	"github.com/flowlayer/flowengine/internal/domain"
	"github.com/flowlayer/flowengine/internal/engine"
	"github.com/flowlayer/flowengine/internal/observability"
	"github.com/flowlayer/flowengine/internal/recorder"
	"github.com/flowlayer/flowengine/internal/runner"
	"github.com/flowlayer/flowengine/internal/scheduler"
	"github.com/flowlayer/flowengine/internal/store"
	"github.com/flowlayer/flowengine/internal/trigger"

	"github.com/rs/zerolog/log"
)

// NewMemoryStore returns an in-process Store, suitable for tests and
// single-node deployments without Postgres.
func NewMemoryStore() *store.MemoryStore {
	return store.NewMemoryStore()
}

// NewPostgresStore opens a Postgres-backed Store at dsn and ensures its
// schema exists before returning.
func NewPostgresStore(dsn string) (*store.PostgresStore, error) {
	s := store.NewPostgresStore(dsn)
	if err := s.InitSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMemoryRecorder returns an in-process Recorder.
func NewMemoryRecorder() *recorder.MemoryRecorder {
	return recorder.NewMemoryRecorder()
}

// NewPostgresRecorder opens a Postgres-backed Recorder at dsn and
// ensures its schema exists before returning.
func NewPostgresRecorder(dsn string) (*recorder.PostgresRecorder, error) {
	r := recorder.NewPostgresRecorder(dsn)
	if err := r.InitSchema(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

// NewObservedRecorder fans primary out to the given observers, so a
// websocket hub, a metrics sink, or a second logger can watch every run
// alongside whichever Recorder actually persists it.
func NewObservedRecorder(primary recorder.Recorder, observers ...recorder.ExecutionObserver) *recorder.FanOut {
	return recorder.NewFanOut(primary, observers...)
}

// NewRegistry returns an empty node-runner Registry.
func NewRegistry() *runner.Registry {
	return runner.NewRegistry()
}

// NewRegistryWithDefaults returns a Registry pre-populated with every
// builtin runner kind this module ships.
func NewRegistryWithDefaults() (*runner.Registry, error) {
	reg := runner.NewRegistry()
	if err := runner.RegisterDefaults(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// NewRunner builds a flow Runner (C4) over reg and rec, tracing with an
// OpenTelemetry tracer under the "flowengine" instrumentation name.
func NewRunner(reg *runner.Registry, rec recorder.Recorder) *engine.Runner {
	r := engine.NewRunner(reg, rec)
	r.Tracer = observability.NewOtelTracer()
	return r
}

// NewScheduler wires a Store, a Runner and a trigger-loop factory into a
// Scheduler (C6) ready for StartAll.
func NewScheduler(st scheduler.Store, run *engine.Runner, loopFactory scheduler.LoopFactory) *scheduler.Scheduler {
	return scheduler.New(st, run, loopFactory)
}

// NewLoopFactory returns a LoopFactory that builds the trigger.Loop for a
// flow's trigger node based on its Kind: timer-trigger gets a cron-driven
// TimerLoop, polling-trigger gets a seed-then-poll PollingLoop fetching
// over HTTP, manual-trigger and webhook-trigger get no managed loop —
// manual runs go through Scheduler.SubmitRun, webhook runs arrive via an
// HTTP handler mounted directly on the server's mux (see
// MountWebhookTriggers), not a long-running loop. defaultPollInterval is
// used when a polling-trigger node's config omits "poll_interval".
func NewLoopFactory(defaultPollInterval time.Duration) scheduler.LoopFactory {
	return func(flow domain.Flow, dispatch trigger.DispatchFunc) (trigger.Loop, error) {
		for _, n := range flow.Nodes {
			if n.Type != domain.NodeTypeTrigger {
				continue
			}
			switch n.Kind {
			case runner.KindTimerTrigger:
				expr, _ := n.Config["expression"].(string)
				return &trigger.TimerLoop{Expression: expr, Dispatch: dispatch}, nil
			case runner.KindPollingTrigger:
				return pollingLoop(n, dispatch, defaultPollInterval), nil
			case runner.KindWebhookTrigger:
				return nil, nil
			default:
				log.Debug().Str("flow_id", flow.ID).Str("kind", n.Kind).Msg("trigger kind has no managed loop")
				return nil, nil
			}
		}
		return nil, nil
	}
}

// DefaultLoopFactory is NewLoopFactory with a 30-second default poll
// interval, for callers that don't need to override it.
var DefaultLoopFactory = NewLoopFactory(30 * time.Second)

func pollingLoop(n domain.Node, dispatch trigger.DispatchFunc, defaultInterval time.Duration) *trigger.PollingLoop {
	url, _ := n.Config["url"].(string)
	interval := defaultInterval
	if s, ok := n.Config["poll_interval"].(string); ok {
		if d, err := time.ParseDuration(s); err == nil {
			interval = d
		}
	}

	var scopes []string
	switch raw := n.Config["scopes"].(type) {
	case []string:
		scopes = raw
	case []any:
		for _, v := range raw {
			if s, ok := v.(string); ok {
				scopes = append(scopes, s)
			}
		}
	}
	if len(scopes) == 0 {
		scopes = []string{"default"}
	}

	return &trigger.PollingLoop{
		Scopes:       scopes,
		Fetcher:      trigger.HTTPItemFetcher{URL: url},
		PollInterval: interval,
		Dispatch:     dispatch,
		Seen:         trigger.NewSeenSet(),
	}
}
