package flowengine

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/flowlayer/flowengine/internal/domain"
	"github.com/flowlayer/flowengine/internal/engine"
	"github.com/flowlayer/flowengine/internal/recorder"
	"github.com/flowlayer/flowengine/internal/runner"
	"github.com/flowlayer/flowengine/internal/scheduler"
	"github.com/flowlayer/flowengine/internal/trigger"
)

// Flow, Node, Edge and Run are re-exported so callers outside this
// module never need to import internal/domain directly.
type (
	Node       = domain.Node
	NodeType   = domain.NodeType
	Edge       = domain.Edge
	Flow       = domain.Flow
	Run        = domain.Run
	RunStatus  = domain.RunStatus
	NodeStatus = domain.NodeStatus
	NodeOutput = domain.NodeOutput
	Position   = domain.Position
)

// Node type constants.
const (
	NodeTypeTrigger  = domain.NodeTypeTrigger
	NodeTypeSource   = domain.NodeTypeSource
	NodeTypeFilter   = domain.NodeTypeFilter
	NodeTypeExecutor = domain.NodeTypeExecutor
	NodeTypeSink     = domain.NodeTypeSink
)

// Run status constants.
const (
	RunStatusRunning  = domain.RunStatusRunning
	RunStatusSuccess  = domain.RunStatusSuccess
	RunStatusPartial  = domain.RunStatusPartial
	RunStatusFailed   = domain.RunStatusFailed
	RunStatusCanceled = domain.RunStatusCanceled
)

// Builtin runner kind names, re-exported for callers building Flow
// literals against this module's reference runners.
const (
	KindManualTrigger  = runner.KindManualTrigger
	KindTimerTrigger   = runner.KindTimerTrigger
	KindPollingTrigger = runner.KindPollingTrigger
	KindWebhookTrigger = runner.KindWebhookTrigger
	KindHTTPPoll       = runner.KindHTTPPoll
	KindExprFilter     = runner.KindExprFilter
	KindAssistantCLI   = runner.KindAssistantCLI
	KindOpenAIChat     = runner.KindOpenAIChat
	KindStdoutSink     = runner.KindStdoutSink
	KindWebhookSink    = runner.KindWebhookSink
)

// Registry, NodeRunner, Recorder, TriggerInfo, Observer and Scheduler are re-exported
// so an embedder can type its own fields against this module's public
// surface without reaching into internal/...
type (
	Registry    = runner.Registry
	NodeRunner  = runner.Runner
	Recorder    = recorder.Recorder
	TriggerInfo = recorder.TriggerInfo
	Observer    = recorder.ExecutionObserver
	Scheduler   = scheduler.Scheduler
)

// Engine bundles the pieces most embedders need together: a Registry of
// node runners, a Runner that executes flows against it, and a
// Scheduler that owns every enabled flow's trigger loop. Grounded on the
// teacher's own root-package facade pattern, which groups its execution
// manager, executor registry and trigger manager behind one importable
// surface instead of exposing internal/... directly.
type Engine struct {
	Registry  *Registry
	Runner    *engine.Runner
	Scheduler *Scheduler
}

// NewEngine wires a Registry (pre-populated with the builtin runner
// kinds), a Runner over rec, and a Scheduler over st using a LoopFactory
// built around defaultPollInterval, into one Engine ready for
// StartAll/SubmitRun. Webhook-trigger nodes are not started by StartAll —
// mount them on the server's mux with MountWebhookTriggers.
func NewEngine(st scheduler.Store, rec recorder.Recorder, defaultPollInterval time.Duration) (*Engine, error) {
	reg, err := NewRegistryWithDefaults()
	if err != nil {
		return nil, err
	}
	run := NewRunner(reg, rec)
	sched := NewScheduler(st, run, NewLoopFactory(defaultPollInterval))
	return &Engine{Registry: reg, Runner: run, Scheduler: sched}, nil
}

// StartAll starts every enabled flow's trigger loop.
func (e *Engine) StartAll(ctx context.Context) error {
	return e.Scheduler.StartAll(ctx)
}

// SubmitRun executes flow once, bypassing its trigger loop.
func (e *Engine) SubmitRun(ctx context.Context, flow Flow, initialContext map[string]string) (Run, error) {
	return e.Scheduler.SubmitRun(ctx, flow, initialContext)
}

// CancelRun requests cancellation of an in-flight run.
func (e *Engine) CancelRun(runID string) bool {
	return e.Scheduler.CancelRun(runID)
}

// MountWebhookTriggers registers one HTTP handler per webhook-trigger
// node found across flows, keyed by the node's configured path. A
// webhook-trigger has no managed loop (see NewLoopFactory) because it is
// reactive, not polling or scheduled — it only ever fires in response to
// an inbound request, so it is wired directly onto the mux instead of
// started by Engine.StartAll.
func MountWebhookTriggers(mux *http.ServeMux, flows []Flow, eng *Engine) {
	for _, flow := range flows {
		for _, n := range flow.Nodes {
			if n.Type != NodeTypeTrigger || n.Kind != KindWebhookTrigger {
				continue
			}
			path, _ := n.Config["path"].(string)
			if path == "" {
				log.Warn().Str("flow_id", flow.ID).Str("node_id", n.ID).Msg("webhook-trigger node has no config[\"path\"], skipping")
				continue
			}
			method, _ := n.Config["method"].(string)
			wh := trigger.WebhookTrigger{
				Path:   path,
				Method: method,
				Dispatch: func(ctx context.Context, initialContext map[string]string) {
					if _, err := eng.Runner.Execute(ctx, flow, recorder.TriggerInfo{Kind: KindWebhookTrigger}, initialContext); err != nil {
						log.Error().Err(err).Str("flow_id", flow.ID).Msg("webhook-triggered run rejected")
					}
				},
			}
			mux.HandleFunc(path, wh.Handler())
		}
	}
}
