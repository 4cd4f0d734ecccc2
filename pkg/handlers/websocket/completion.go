package websocket

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/common"
	"github.com/studiumlabs/voicebridge/pkg/config"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
	"github.com/studiumlabs/voicebridge/pkg/domain/quota"
	"github.com/studiumlabs/voicebridge/pkg/domain/studynote"
	"github.com/studiumlabs/voicebridge/pkg/domain/telemetry"
	"github.com/studiumlabs/voicebridge/pkg/infra/metrics"
)

const dispatchTimeout = 30 * time.Second

// CompletionDispatcher runs the post-teardown work of a bridge: quota
// settlement, session-event export and note composition. It executes off the
// realtime path; every failure is logged and swallowed.
type CompletionDispatcher struct {
	guard    quota.Guard
	exporter telemetry.Exporter
	composer studynote.Composer
	cfg      config.QuotaConfig
	logger   *logrus.Logger
}

// NewCompletionDispatcher accepts a nil exporter when event export is
// disabled and a nil composer when note composition is disabled.
func NewCompletionDispatcher(
	guard quota.Guard,
	exporter telemetry.Exporter,
	composer studynote.Composer,
	cfg config.QuotaConfig,
	logger *logrus.Logger,
) *CompletionDispatcher {
	return &CompletionDispatcher{
		guard:    guard,
		exporter: exporter,
		composer: composer,
		cfg:      cfg,
		logger:   logger,
	}
}

func (d *CompletionDispatcher) Dispatch(sess *conversation.Session, client telemetry.ClientInfo, result BridgeResult) {
	if result.StartedAt.IsZero() {
		// The handshake never completed; nothing was consumed.
		return
	}

	reason := "completed"
	if result.Err != nil {
		reason = "error"
	}
	metrics.SessionsStoppedTotal.WithLabelValues(reason).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	d.settle(ctx, sess.UserID, result)
	d.export(ctx, sess, client, result)
	d.compose(ctx, sess, result)
}

// ExportStarted publishes the session-started event once a bridge goes live.
func (d *CompletionDispatcher) ExportStarted(sess *conversation.Session, client telemetry.ClientInfo, at time.Time) {
	if d.exporter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	evt := telemetry.SessionEvent{
		Kind:      telemetry.EventSessionStarted,
		SessionID: sess.ID.String(),
		UserID:    sess.UserID,
		StartedAt: at,
		Client:    client,
	}
	if err := d.exporter.Handle(ctx, evt); err != nil {
		d.logger.WithError(err).Error("failed to export session started event")
	}
}

func (d *CompletionDispatcher) settle(ctx context.Context, userID string, result BridgeResult) {
	cost := billedCost(result.EndedAt.Sub(result.StartedAt), d.cfg.CostPerMinute)
	if err := d.guard.Settle(ctx, userID, cost, common.VoiceSessionQuotaTag); err != nil {
		d.logger.WithError(err).WithField("user_id", userID).Error("failed to settle quota after session")
	}
}

func (d *CompletionDispatcher) export(ctx context.Context, sess *conversation.Session, client telemetry.ClientInfo, result BridgeResult) {
	if d.exporter == nil {
		return
	}
	endedAt := result.EndedAt
	evt := telemetry.SessionEvent{
		Kind:       telemetry.EventSessionStopped,
		SessionID:  sess.ID.String(),
		UserID:     sess.UserID,
		StartedAt:  result.StartedAt,
		EndedAt:    &endedAt,
		DurationMs: result.EndedAt.Sub(result.StartedAt).Milliseconds(),
		TurnCount:  len(result.Turns),
		Client:     client,
	}
	if err := d.exporter.Handle(ctx, evt); err != nil {
		d.logger.WithError(err).Error("failed to export session stopped event")
	}
}

func (d *CompletionDispatcher) compose(ctx context.Context, sess *conversation.Session, result BridgeResult) {
	if d.composer == nil {
		return
	}
	if len(result.Turns) < 2 || sess.TopicID == "" {
		return
	}
	req := studynote.ComposeRequest{
		UserID:         sess.UserID,
		TopicID:        sess.TopicID,
		CourseID:       sess.CourseID,
		ChatSessionID:  sess.ChatSessionID,
		StudySessionID: sess.StudySessionID,
		Turns:          result.Turns,
	}
	if err := d.composer.Compose(ctx, req); err != nil {
		d.logger.WithError(err).WithField("topic_id", sess.TopicID).Error("failed to compose study note")
	}
}

// billedCost charges whole elapsed minutes, one minute minimum.
func billedCost(elapsed time.Duration, costPerMinute int64) int64 {
	minutes := int64(elapsed / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes * costPerMinute
}
