package websocket

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/config"
	"github.com/studiumlabs/voicebridge/pkg/domain"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
	"github.com/studiumlabs/voicebridge/pkg/infra/metrics"
	"github.com/studiumlabs/voicebridge/pkg/infra/upstream"
	"golang.org/x/sync/errgroup"
)

var (
	errEndOfInput     = errors.New("end of audio input")
	errUpstreamClosed = errors.New("upstream closed the connection")
)

// BridgeResult is handed to the completion callback exactly once per bridge.
// StartedAt is zero when the handshake never completed.
type BridgeResult struct {
	SessionID string
	StartedAt time.Time
	EndedAt   time.Time
	Turns     []conversation.Turn
	Err       error
}

type CompletionFunc func(result BridgeResult)

// Bridge relays audio between one client connection and one upstream realtime
// connection. It owns the upstream socket for its whole lifetime; the client
// socket is reached only through the shared sink.
type Bridge struct {
	dialer            upstream.Dialer
	cfg               config.UpstreamConfig
	wsCfg             config.WebsocketConfig
	logger            *logrus.Logger
	sink              Sink
	sessionID         string
	systemInstruction string

	audioQueue      chan []byte
	transcript      *conversation.Transcript
	greetingPending bool

	ready      chan struct{}
	done       chan struct{}
	once       sync.Once
	endOnce    sync.Once
	onComplete CompletionFunc

	liveAt time.Time
	err    error
}

func NewBridge(
	dialer upstream.Dialer,
	cfg config.UpstreamConfig,
	wsCfg config.WebsocketConfig,
	sess *conversation.Session,
	sink Sink,
	onComplete CompletionFunc,
	logger *logrus.Logger,
) *Bridge {
	queueSize := cfg.AudioQueueSize
	if queueSize <= 0 {
		queueSize = 32
	}
	return &Bridge{
		dialer:            dialer,
		cfg:               cfg,
		wsCfg:             wsCfg,
		logger:            logger,
		sink:              sink,
		sessionID:         sess.ID.String(),
		systemInstruction: sess.SystemInstruction,
		audioQueue:        make(chan []byte, queueSize),
		transcript:        conversation.NewTranscript(),
		ready:             make(chan struct{}),
		done:              make(chan struct{}),
		onComplete:        onComplete,
	}
}

// Ready is closed once the upstream handshake completed and the session is
// live.
func (b *Bridge) Ready() <-chan struct{} {
	return b.ready
}

// Done is closed after teardown; Err is valid once Done is closed.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

func (b *Bridge) Err() error {
	return b.err
}

// EnqueueAudio queues a PCM chunk for the outbound loop. A full queue drops
// its oldest chunk first; live audio prefers freshness over completeness. The
// end-of-input sentinel is never displaced.
func (b *Bridge) EnqueueAudio(chunk []byte) {
	if chunk == nil {
		return
	}
	for {
		select {
		case b.audioQueue <- chunk:
			return
		default:
		}
		select {
		case dropped := <-b.audioQueue:
			if dropped == nil {
				b.pushSentinel()
				return
			}
			metrics.DroppedAudioFramesTotal.Inc()
		default:
		}
	}
}

// EndInput pushes the end-of-input sentinel, letting the outbound loop finish
// gracefully. Safe to call more than once.
func (b *Bridge) EndInput() {
	b.endOnce.Do(b.pushSentinel)
}

func (b *Bridge) pushSentinel() {
	for {
		select {
		case b.audioQueue <- nil:
			return
		default:
		}
		select {
		case dropped := <-b.audioQueue:
			if dropped == nil {
				return
			}
			metrics.DroppedAudioFramesTotal.Inc()
		default:
		}
	}
}

func (b *Bridge) Run(ctx context.Context) {
	runErr := b.run(ctx)
	b.finish(runErr)
	close(b.done)
}

func (b *Bridge) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, err := b.dialer.Dial(ctx)
	if err != nil {
		metrics.HandshakeFailuresTotal.Inc()
		return err
	}
	defer conn.Close()

	setup, err := upstream.SetupFrame(b.cfg.Model, b.systemInstruction)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(gorilla.TextMessage, setup); err != nil {
		metrics.HandshakeFailuresTotal.Inc()
		return domain.NewUpstreamUnavailableError("setup write failed", err)
	}

	parser := upstream.NewFrameParser()
	if err := b.awaitSetupComplete(conn, parser); err != nil {
		metrics.HandshakeFailuresTotal.Inc()
		return err
	}

	pongWait := b.wsCfg.PongWait
	if pongWait <= 0 {
		pongWait = 45 * time.Second
	}
	if err := upstream.RefreshDeadline(conn, pongWait); err != nil {
		return domain.NewUpstreamUnavailableError("failed to arm read deadline", err)
	}

	b.liveAt = time.Now()
	close(b.ready)

	metrics.ActiveBridges.Inc()
	defer metrics.ActiveBridges.Dec()

	if b.cfg.GreetingPrompt != "" {
		greeting, err := upstream.TextTurnFrame(b.cfg.GreetingPrompt)
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(gorilla.TextMessage, greeting); err != nil {
			return domain.NewUpstreamUnavailableError("greeting write failed", err)
		}
		b.greetingPending = true
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.outboundLoop(gctx, conn)
	})
	g.Go(func() error {
		return b.inboundLoop(gctx, conn, parser)
	})
	g.Go(func() error {
		// Unblocks the inbound read once the group winds down, so teardown
		// cannot hang on a silent upstream.
		<-gctx.Done()
		_ = conn.SetReadDeadline(time.Now())
		return nil
	})

	err = g.Wait()
	switch {
	case err == nil,
		errors.Is(err, errEndOfInput),
		errors.Is(err, errUpstreamClosed),
		errors.Is(err, context.Canceled):
		return nil
	default:
		return err
	}
}

// awaitSetupComplete reads frames until the setup-complete marker. Content
// frames arriving before the marker are processed, not discarded.
func (b *Bridge) awaitSetupComplete(conn *gorilla.Conn, parser *upstream.FrameParser) error {
	timeout := b.cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return domain.NewUpstreamUnavailableError("failed to set handshake deadline", err)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return domain.NewUpstreamUnavailableError("handshake did not complete", err)
		}
		frame, err := parser.Parse(data)
		if err != nil {
			b.logger.WithError(err).Warn("dropping unparseable upstream frame during handshake")
			continue
		}
		if frame.SetupComplete {
			return nil
		}
		if err := b.handleServerFrame(frame); err != nil {
			return err
		}
	}
}

func (b *Bridge) outboundLoop(ctx context.Context, conn *gorilla.Conn) error {
	pingPeriod := b.wsCfg.PingPeriod
	if pingPeriod <= 0 {
		pingPeriod = 30 * time.Second
	}
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := conn.WriteMessage(gorilla.PingMessage, []byte{}); err != nil {
				return domain.NewUpstreamUnavailableError("ping write failed", err)
			}
		case chunk := <-b.audioQueue:
			if chunk == nil {
				return errEndOfInput
			}
			frame, err := upstream.AudioFrame(chunk)
			if err != nil {
				return err
			}
			if err := conn.WriteMessage(gorilla.TextMessage, frame); err != nil {
				return domain.NewUpstreamUnavailableError("audio write failed", err)
			}
			metrics.RelayedFramesTotal.WithLabelValues(metrics.DirectionOutbound).Inc()
		}
	}
}

func (b *Bridge) inboundLoop(ctx context.Context, conn *gorilla.Conn, parser *upstream.FrameParser) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if gorilla.IsCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) {
				return errUpstreamClosed
			}
			return domain.NewUpstreamUnavailableError("upstream read failed", err)
		}
		frame, err := parser.Parse(data)
		if err != nil {
			b.logger.WithError(err).Warn("dropping unparseable upstream frame")
			continue
		}
		metrics.RelayedFramesTotal.WithLabelValues(metrics.DirectionInbound).Inc()
		if err := b.handleServerFrame(frame); err != nil {
			return err
		}
	}
}

func (b *Bridge) handleServerFrame(frame *upstream.ServerFrame) error {
	if frame.Interrupted {
		if err := b.sink.SendMessage(ServerMessage{Type: TypeInterrupted, SessionID: b.sessionID}); err != nil {
			return err
		}
	}
	if frame.InputTranscription != "" {
		if b.isGreetingEcho(frame.InputTranscription) {
			b.greetingPending = false
		} else {
			b.transcript.Append(conversation.RoleUser, frame.InputTranscription)
			msg := ServerMessage{Type: TypeTranscription, SessionID: b.sessionID, Text: frame.InputTranscription}
			if err := b.sink.SendMessage(msg); err != nil {
				return err
			}
		}
	}
	if frame.OutputTranscription != "" {
		b.transcript.Append(conversation.RoleAssistant, frame.OutputTranscription)
		msg := ServerMessage{Type: TypeAssistantMessage, SessionID: b.sessionID, Text: frame.OutputTranscription}
		if err := b.sink.SendMessage(msg); err != nil {
			return err
		}
	}
	for _, text := range frame.ModelTexts {
		b.transcript.Append(conversation.RoleAssistant, text)
		msg := ServerMessage{Type: TypeAssistantMessage, SessionID: b.sessionID, Text: text}
		if err := b.sink.SendMessage(msg); err != nil {
			return err
		}
	}
	for _, chunk := range frame.AudioChunks {
		if err := b.sink.SendAudio(chunk); err != nil {
			return err
		}
	}
	return nil
}

// isGreetingEcho reports whether an input transcription is the upstream
// echoing the synthetic greeting turn back as user speech.
func (b *Bridge) isGreetingEcho(text string) bool {
	return b.greetingPending &&
		strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(b.cfg.GreetingPrompt))
}

func (b *Bridge) finish(runErr error) {
	b.once.Do(func() {
		endedAt := time.Now()
		if !b.liveAt.IsZero() {
			metrics.BridgeDuration.Observe(endedAt.Sub(b.liveAt).Seconds())
		}
		if runErr != nil {
			b.err = runErr
			code := CodeInternalError
			if domain.IsUpstreamUnavailableError(runErr) {
				code = CodeUpstreamUnavailable
			}
			if sendErr := b.sink.SendMessage(errorMessage(b.sessionID, code, runErr.Error())); sendErr != nil {
				b.logger.WithError(sendErr).Debug("failed to deliver bridge error to client")
			}
		}
		result := BridgeResult{
			SessionID: b.sessionID,
			StartedAt: b.liveAt,
			EndedAt:   endedAt,
			Turns:     b.transcript.Turns(),
			Err:       b.err,
		}
		if b.onComplete != nil {
			go b.onComplete(result)
		}
	})
}
