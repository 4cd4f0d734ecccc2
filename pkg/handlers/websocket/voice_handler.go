package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/common"
	"github.com/studiumlabs/voicebridge/pkg/config"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
	"github.com/studiumlabs/voicebridge/pkg/domain/quota"
	"github.com/studiumlabs/voicebridge/pkg/domain/telemetry"
	"github.com/studiumlabs/voicebridge/pkg/infra/metrics"
	"github.com/studiumlabs/voicebridge/pkg/infra/upstream"
	infraWebsocket "github.com/studiumlabs/voicebridge/pkg/infra/websocket"
)

type connState int

const (
	stateIdle connState = iota
	stateBridging
	stateStopping
	stateClosed
)

type voiceHandler struct {
	cfg        *config.Config
	logger     *logrus.Logger
	registry   conversation.Registry
	guard      quota.Guard
	dialer     upstream.Dialer
	dispatcher *CompletionDispatcher
}

func NewVoiceHandler(
	cfg *config.Config,
	logger *logrus.Logger,
	registry conversation.Registry,
	guard quota.Guard,
	dialer upstream.Dialer,
	dispatcher *CompletionDispatcher,
) Handler {
	return &voiceHandler{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		guard:      guard,
		dialer:     dialer,
		dispatcher: dispatcher,
	}
}

func (h *voiceHandler) Handle(c *websocket.Conn) {
	semaphoreInterface := c.Locals("ws_semaphore")
	if semaphoreInterface != nil {
		if semaphore, ok := semaphoreInterface.(*infraWebsocket.Semaphore); ok {
			defer semaphore.Release()
		}
	}

	userID, ok := c.Locals(string(common.UserIdContextKey)).(string)
	if !ok || userID == "" {
		h.logger.Error("missing authenticated user in websocket connection")
		return
	}

	client, _ := c.Locals(string(common.UserAgentContextKey)).(telemetry.ClientInfo)

	conn := &connection{
		handler: h,
		ctx:     context.Background(),
		c:       c,
		sink:    newConnSink(c),
		userID:  userID,
		client:  client,
		state:   stateIdle,
	}
	conn.loop()
}

// connection holds the per-connection protocol state. All fields are owned by
// the connection's read goroutine.
type connection struct {
	handler *voiceHandler
	ctx     context.Context
	c       *websocket.Conn
	sink    *connSink
	userID  string
	client  telemetry.ClientInfo
	state   connState

	bridge       *Bridge
	cancelBridge context.CancelFunc
	session      *conversation.Session
}

func (cs *connection) loop() {
	defer cs.close()

	for {
		messageType, data, err := cs.c.ReadMessage()
		if err != nil {
			return
		}
		switch messageType {
		case websocket.BinaryMessage:
			cs.handleAudio(data)
		case websocket.TextMessage:
			cs.handleControl(data)
		}
	}
}

func (cs *connection) handleControl(data []byte) {
	cs.reapBridge()

	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		cs.sendError("", CodeInvalidMessage, "malformed control message")
		return
	}

	switch msg.Type {
	case TypeStartSession:
		cs.handleStart(msg.SessionID)
	case TypeStop:
		cs.handleStop(msg.SessionID)
	case TypePing:
		_ = cs.sink.SendMessage(ServerMessage{Type: TypePong, SessionID: msg.SessionID})
	default:
		cs.sendError(msg.SessionID, CodeInvalidMessage, "unknown message type: "+msg.Type)
	}
}

func (cs *connection) handleStart(sessionID string) {
	if cs.state != stateIdle {
		cs.sendError(sessionID, CodeAlreadyActive, "a bridge is already running on this connection")
		return
	}

	id, err := uuid.Parse(sessionID)
	if err != nil {
		cs.sendError(sessionID, CodeSessionNotFound, "unknown session")
		return
	}
	sess, ok := cs.handler.registry.Get(cs.ctx, id)
	if !ok {
		cs.sendError(sessionID, CodeSessionNotFound, "unknown session")
		return
	}
	if !sess.OwnedBy(cs.userID) {
		cs.sendError(sessionID, CodeForbidden, "session belongs to another user")
		return
	}

	allowed, err := cs.handler.guard.Precheck(cs.ctx, cs.userID, cs.handler.cfg.Quota.EstimatedCost)
	if err != nil {
		cs.handler.logger.WithError(err).Error("quota precheck failed")
		cs.sendError(sessionID, CodeInternalError, "quota check failed")
		return
	}
	if !allowed {
		metrics.QuotaDenialsTotal.Inc()
		cs.sendError(sessionID, CodeQuotaExceeded, "insufficient quota for a voice session")
		return
	}

	cs.handler.registry.Touch(cs.ctx, id)

	snapshot := *sess
	cs.session = &snapshot

	dispatcher := cs.handler.dispatcher
	clientInfo := cs.client
	onComplete := func(result BridgeResult) {
		dispatcher.Dispatch(&snapshot, clientInfo, result)
	}

	bridge := NewBridge(
		cs.handler.dialer,
		cs.handler.cfg.Upstream,
		cs.handler.cfg.Websocket,
		&snapshot,
		cs.sink,
		onComplete,
		cs.handler.logger,
	)
	bridgeCtx, cancel := context.WithCancel(context.Background())
	cs.bridge = bridge
	cs.cancelBridge = cancel
	cs.state = stateBridging

	go bridge.Run(bridgeCtx)

	select {
	case <-bridge.Ready():
		_ = cs.sink.SendMessage(ServerMessage{Type: TypeSessionStarted, SessionID: sessionID})
		go dispatcher.ExportStarted(&snapshot, clientInfo, time.Now())
	case <-bridge.Done():
		// Handshake failed; the bridge already delivered the error frame.
		cs.clearBridge()
	}
}

func (cs *connection) handleStop(sessionID string) {
	if cs.state == stateBridging && cs.bridge != nil {
		if cs.session != nil {
			cs.handler.registry.Touch(cs.ctx, cs.session.ID)
		}
		cs.bridge.EndInput()
		cs.state = stateStopping
	}

	_ = cs.sink.SendMessage(ServerMessage{Type: TypeStopped, SessionID: sessionID})

	if cs.state == stateStopping && cs.bridge != nil {
		// Await teardown so a following start_session cannot race it.
		<-cs.bridge.Done()
		cs.clearBridge()
	}
}

func (cs *connection) handleAudio(data []byte) {
	cs.reapBridge()
	if cs.state != stateBridging || cs.bridge == nil {
		return
	}
	cs.bridge.EnqueueAudio(data)
}

// reapBridge folds a bridge that died on its own (upstream close, relay
// failure) back into the idle state.
func (cs *connection) reapBridge() {
	if cs.bridge == nil {
		return
	}
	select {
	case <-cs.bridge.Done():
		cs.clearBridge()
	default:
	}
}

func (cs *connection) clearBridge() {
	if cs.cancelBridge != nil {
		cs.cancelBridge()
		cs.cancelBridge = nil
	}
	cs.bridge = nil
	cs.session = nil
	cs.state = stateIdle
}

func (cs *connection) close() {
	if cs.bridge != nil {
		if cs.cancelBridge != nil {
			cs.cancelBridge()
		}
		// Await teardown so the completion callback observes the final turn
		// state exactly once.
		<-cs.bridge.Done()
		cs.bridge = nil
	}
	cs.state = stateClosed
}

func (cs *connection) sendError(sessionID, code, message string) {
	if err := cs.sink.SendMessage(errorMessage(sessionID, code, message)); err != nil {
		cs.handler.logger.WithError(err).Debug("failed to deliver error frame")
	}
}
