package observability

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/flowlayer/flowengine/internal/domain"
	"github.com/flowlayer/flowengine/internal/recorder"
)

// runEvent is the JSON payload broadcast to subscribed websocket clients.
type runEvent struct {
	Type    string `json:"type"` // "run_started" | "run_finished" | "node_started" | "node_finished"
	FlowID  string `json:"flow_id,omitempty"`
	RunID   string `json:"run_id"`
	NodeID  string `json:"node_id,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// Hub broadcasts run lifecycle events to websocket subscribers, indexed
// by run id so a client watching one run doesn't see another's traffic.
// Grounded on a connection-registry + broadcast-channel hub that indexes
// clients by user/workflow/execution id, narrowed here to a single
// run-id index since the engine core has no user/workflow tenancy.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	byRunID map[string]map[*websocket.Conn]bool
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		byRunID:  make(map[string]map[*websocket.Conn]bool),
	}
}

// ServeWS upgrades the request to a websocket connection and subscribes
// it to events for the run id given by the "run_id" query parameter.
func (h *Hub) ServeWS(w http.ResponseWriter, req *http.Request) {
	runID := req.URL.Query().Get("run_id")
	if runID == "" {
		http.Error(w, "missing run_id", http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	if h.byRunID[runID] == nil {
		h.byRunID[runID] = make(map[*websocket.Conn]bool)
	}
	h.byRunID[runID][conn] = true
	h.mu.Unlock()

	go h.drainUntilClosed(runID, conn)
}

// drainUntilClosed reads (and discards) client frames until the
// connection closes, then unsubscribes it. Clients aren't expected to
// send anything; this only exists to detect disconnects.
func (h *Hub) drainUntilClosed(runID string, conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.byRunID[runID], conn)
		h.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) broadcast(runID string, ev runEvent) {
	h.mu.RLock()
	conns := h.byRunID[runID]
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Debug().Err(err).Str("run_id", runID).Msg("websocket write failed, dropping subscriber")
		}
	}
}

// WebsocketObserver adapts a Hub to recorder.ExecutionObserver so the
// recorder's fan-out can broadcast lifecycle events over the live feed
// alongside whatever else observes the run.
type WebsocketObserver struct {
	Hub *Hub
}

func (o WebsocketObserver) OnRunStarted(flowID, runID string, trigger recorder.TriggerInfo) {
	o.Hub.broadcast(runID, runEvent{Type: "run_started", FlowID: flowID, RunID: runID})
}

func (o WebsocketObserver) OnRunFinished(flowID, runID string, status domain.RunStatus) {
	o.Hub.broadcast(runID, runEvent{Type: "run_finished", FlowID: flowID, RunID: runID, Status: string(status)})
}

func (o WebsocketObserver) OnNodeStarted(runID, nodeID string) {
	o.Hub.broadcast(runID, runEvent{Type: "node_started", RunID: runID, NodeID: nodeID})
}

func (o WebsocketObserver) OnNodeFinished(runID, nodeID string, status domain.NodeStatus, errMessage string) {
	o.Hub.broadcast(runID, runEvent{Type: "node_finished", RunID: runID, NodeID: nodeID, Status: string(status), Message: errMessage})
}
