// Package router classifies raw relay pushes and dispatches them to the
// secure-channel, chain and settings handlers. All handler failures are
// absorbed at this boundary: a bad message is logged and dropped, the
// connection stays usable for everything that follows.
package router

import (
	"context"
	"log/slog"

	"github.com/chain-pair/chain_pair/internal/alerts"
	"github.com/chain-pair/chain_pair/internal/chain"
	"github.com/chain-pair/chain_pair/internal/securechannel"
	"github.com/chain-pair/chain_pair/internal/settings"
)

// SecureChannel consumes inbound secure-channel envelopes.
type SecureChannel interface {
	HandleEnvelope(ctx context.Context, env securechannel.Inbound) error
}

// ChainReactor consumes chain notifications.
type ChainReactor interface {
	HandleHeader(ctx context.Context, coin string, header chain.BlockHeader) error
	HandleTransaction(ctx context.Context, coin, txHash string) error
	HandleAccountEvent(ctx context.Context, coin string, ev chain.AccountEvent) error
}

// Router is the single-threaded dispatcher for one relay connection.
type Router struct {
	secure   SecureChannel
	chains   ChainReactor
	settings settings.Store
	notifier alerts.Notifier
	logger   *slog.Logger
}

// New wires a router.
func New(secure SecureChannel, chains ChainReactor, store settings.Store, notifier alerts.Notifier, logger *slog.Logger) *Router {
	return &Router{
		secure:   secure,
		chains:   chains,
		settings: store,
		notifier: notifier,
		logger:   logger,
	}
}

// Run consumes frames until in closes or ctx is cancelled. Messages are
// processed to completion one at a time: ordering of header and
// transaction notifications on the same coin matters for consistent
// state.
func (r *Router) Run(ctx context.Context, in <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-in:
			if !ok {
				return
			}
			r.Handle(ctx, frame)
		}
	}
}

// Handle dispatches one relay push.
func (r *Router) Handle(ctx context.Context, raw []byte) {
	switch m := Classify(raw).(type) {
	case HeaderUpdate:
		if err := r.chains.HandleHeader(ctx, m.Coin, m.Header); err != nil {
			r.logError("Handle", err)
		}
	case TransactionNotice:
		if err := r.chains.HandleTransaction(ctx, m.Coin, m.Hash); err != nil {
			r.logError("Handle", err)
		}
	case AccountNotice:
		if err := r.chains.HandleAccountEvent(ctx, m.Coin, m.Event); err != nil {
			r.logError("Handle", err)
		}
	case GenericPush:
		r.handleGeneric(ctx, m)
	case Unrecognized:
		// Not an error: the relay broadcasts topics we do not subscribe to.
	}
}

// handleGeneric processes a coin-less push. A malformed msg field must not
// stop the email-verification check that follows it.
func (r *Router) handleGeneric(ctx context.Context, m GenericPush) {
	if m.Msg != "" {
		env, err := securechannel.DecodeInbound([]byte(m.Msg))
		switch {
		case err != nil:
			r.logError("handleGeneric", err)
		case env.ChannelID != "":
			if err := r.secure.HandleEnvelope(ctx, env); err != nil {
				r.logError("handleGeneric", err)
			}
		}
	}

	if m.Email != "" && m.IsVerified {
		if err := r.settings.SetEmailVerified(ctx); err != nil {
			r.logError("handleGeneric", err)
		} else {
			r.notifier.Display(ctx, alerts.SeveritySuccess, alerts.EmailVerifySuccess)
		}
	}
}

func (r *Router) logError(function string, err error) {
	r.logger.Error("message handling failed",
		"component", "router",
		"function", function,
		"error", err,
	)
}
