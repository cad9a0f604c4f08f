package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/temple-tools/dvarapala/internal/model"
	"github.com/temple-tools/dvarapala/internal/scoring"
	"github.com/temple-tools/dvarapala/internal/store"
	"github.com/temple-tools/dvarapala/internal/transport"
)

// Notifier delivers session milestone notifications to the configured
// channels. Channel resolution happens per call so configuration changes
// take effect immediately. Delivery failures are logged, never propagated;
// a lost notification must not stall a session.
type Notifier struct {
	log       *zap.Logger
	messenger transport.Messenger
	config    func() store.Config
}

// New creates a Notifier reading channel ids through config.
func New(log *zap.Logger, messenger transport.Messenger, config func() store.Config) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{log: log, messenger: messenger, config: config}
}

// VerificationStarted announces the new verification in the verification
// channel and sends the suspicion analysis to the admin channel only.
func (n *Notifier) VerificationStarted(ctx context.Context, p model.Profile, a model.Assessment) {
	cfg := n.config()
	n.send(ctx, cfg.VerificationChannelID, formatStarted(p))
	n.send(ctx, cfg.AdminChannelID, formatSuspicionAnalysis(p, a))
}

// DeliveryFailed tells the verification channel that DMs could not be
// delivered and how the user can retry.
func (n *Notifier) DeliveryFailed(ctx context.Context, p model.Profile, reason model.FailureReason) {
	n.send(ctx, n.config().VerificationChannelID, formatDeliveryFailure(p, reason))
}

// ManualReview sends the full transcript to the admin channel.
func (n *Notifier) ManualReview(ctx context.Context, s model.Session, result scoring.Result) {
	n.send(ctx, n.config().AdminChannelID, formatManualReview(s, result))
}

// Decision reports the outcome to the verification channel and, for
// admitted members, welcomes them in the general channel.
func (n *Notifier) Decision(ctx context.Context, s model.Session) {
	cfg := n.config()
	n.send(ctx, cfg.VerificationChannelID, formatDecision(s))
	if s.AssignedRole == model.RoleDevotee || s.AssignedRole == model.RoleSeeker {
		n.send(ctx, cfg.GeneralChannelID, formatWelcome(s.Profile, s.AssignedRole))
	}
}

func (n *Notifier) send(ctx context.Context, channelID, content string) {
	if channelID == "" {
		return
	}
	if err := n.messenger.SendChannel(ctx, channelID, content); err != nil {
		n.log.Warn("notification undeliverable",
			zap.String("channel_id", channelID),
			zap.Error(err))
	}
}
