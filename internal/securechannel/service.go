package securechannel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chain-pair/chain_pair/internal/alerts"
	"github.com/chain-pair/chain_pair/internal/analytics"
	"github.com/chain-pair/chain_pair/internal/auth"
	"github.com/chain-pair/chain_pair/internal/channel"
	"github.com/chain-pair/chain_pair/internal/relay"
)

// Product identifies the requesting surface. Proactive pings are sent only
// for the primary wallet product.
type Product string

const (
	ProductWallet   Product = "WALLET"
	ProductExchange Product = "EXCHANGE"
)

// DefaultLogoutGap is the minimum time since last logout before a proactive
// ping fires. Prevents pinging the phone again right after the user logs
// out.
const DefaultLogoutGap = 5 * time.Minute

// ErrNotPaired is returned by ResendPing when no remembered phone exists.
var ErrNotPaired = errors.New("no paired phone to ping")

// Delivery pushes an outbound envelope to the phone. The wallet API owns
// actual delivery; the protocol only hands the envelope over.
type Delivery interface {
	SendSecureChannelMessage(ctx context.Context, env Outbound) error
}

// Config tunes the handshake service.
type Config struct {
	Product   Product
	LogoutGap time.Duration
	// Visible reports whether the surface is foreground. Nil means always
	// visible (headless agent).
	Visible func() bool
	// Now is the clock, injectable for tests.
	Now func() time.Time
}

// Service drives the pairing handshake: subscribe, optional proactive ping,
// handshake ping-back, credential hand-off.
type Service struct {
	channels  *channel.Service
	relay     relay.Sender
	delivery  Delivery
	login     auth.Sink
	notifier  alerts.Notifier
	analytics analytics.Sink
	logger    *slog.Logger
	machine   *Machine
	cfg       Config
}

// NewService wires the handshake service.
func NewService(channels *channel.Service, sender relay.Sender, delivery Delivery, login auth.Sink, notifier alerts.Notifier, sink analytics.Sink, logger *slog.Logger, cfg Config) *Service {
	if cfg.LogoutGap <= 0 {
		cfg.LogoutGap = DefaultLogoutGap
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		channels:  channels,
		relay:     sender,
		delivery:  delivery,
		login:     login,
		notifier:  notifier,
		analytics: sink,
		logger:    logger,
		machine:   NewMachine(),
		cfg:       cfg,
	}
}

// State exposes the handshake state for the control API.
func (s *Service) State() State {
	return s.machine.State()
}

// OnOpen runs when the relay connection opens: obtain (or create) the
// channel identity, subscribe the secure channel, and, when a remembered
// phone is eligible, nudge it for fresh credentials.
func (s *Service) OnOpen(ctx context.Context) error {
	identity, err := s.channels.GetOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("channel identity: %w", err)
	}

	s.machine.Reset()
	if err := s.machine.To(StateSubscribed); err != nil {
		return err
	}
	if err := s.relay.Send(ctx, relay.SubscribeSecureChannel(identity.ChannelID)); err != nil {
		return fmt.Errorf("subscribe secure channel: %w", err)
	}

	if !s.shouldPingOnOpen(identity) {
		return nil
	}
	if err := s.pingPhone(ctx, identity.ChannelID, identity.PrivKeyHex, identity.PhonePubKey, identity.LastGUID); err != nil {
		return err
	}
	return s.machine.To(StatePingSent)
}

// shouldPingOnOpen gates the proactive ping: remembered phone key, last
// known guid and a logout strictly more than the configured gap ago must
// all be present, the product must be the primary wallet, and the surface
// must be foreground.
func (s *Service) shouldPingOnOpen(identity channel.Identity) bool {
	if !identity.HasPairedPhone() || identity.LastGUID == "" {
		return false
	}
	if identity.LastLogout.IsZero() {
		return false
	}
	if s.cfg.Now().Sub(identity.LastLogout) <= s.cfg.LogoutGap {
		return false
	}
	if s.cfg.Product != ProductWallet {
		return false
	}
	if s.cfg.Visible != nil && !s.cfg.Visible() {
		return false
	}
	return true
}

// ResendPing re-sends the login_wallet nudge on user request. This is the
// recovery path for a phone that never answered; the handshake itself has
// no timeout.
func (s *Service) ResendPing(ctx context.Context) error {
	identity, err := s.channels.Snapshot(ctx)
	if err != nil {
		return err
	}
	if identity.ChannelID == "" || !identity.HasPairedPhone() || identity.LastGUID == "" {
		return ErrNotPaired
	}
	return s.pingPhone(ctx, identity.ChannelID, identity.PrivKeyHex, identity.PhonePubKey, identity.LastGUID)
}

// HandleEnvelope processes one inbound secure-channel envelope. Decrypt and
// parse failures surface as errors for the router to log; they never tear
// down the connection.
func (s *Service) HandleEnvelope(ctx context.Context, env Inbound) error {
	identity, err := s.channels.Snapshot(ctx)
	if err != nil {
		return err
	}
	if identity.ChannelID == "" || env.ChannelID != identity.ChannelID {
		// Foreign channel identifier: not ours to act on.
		s.logger.Debug("ignoring envelope for foreign channel",
			"component", "securechannel",
			"function", "HandleEnvelope",
			"channel_id", env.ChannelID,
		)
		return nil
	}

	if !env.Success {
		return s.handleDecline(ctx)
	}

	plaintext, err := Open(identity.PrivKeyHex, env)
	if err != nil {
		return fmt.Errorf("open envelope: %w", err)
	}
	payload, err := DecodePayload(plaintext)
	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case Handshake:
		return s.handleHandshake(ctx, identity, env.PubKey, p)
	case LoginWallet:
		return s.handleLoginWallet(ctx, env.PubKey, p)
	case Unrecognized:
		s.logger.Info("unrecognized secure channel payload",
			"component", "securechannel",
			"function", "HandleEnvelope",
			"type", p.Type,
		)
		return nil
	default:
		return nil
	}
}

// handleDecline surfaces an explicit negative handshake. Stored pairing
// state is left untouched so a later attempt can still use the fast path.
func (s *Service) handleDecline(ctx context.Context) error {
	if err := s.machine.To(StateDeclined); err != nil {
		s.logger.Warn("decline in unexpected state",
			"component", "securechannel",
			"function", "handleDecline",
			"error", err,
		)
	}
	s.notifier.Display(ctx, alerts.SeverityError, alerts.MobileLoginDeclined)
	return s.analytics.Track(ctx, analytics.Event{
		Key: analytics.LoginRequestDenied,
		Properties: map[string]any{
			"error":            "Phone declined",
			"method":           "SECURE_CHANNEL",
			"request_platform": string(ProductWallet),
		},
	})
}

// handleHandshake answers a phone-initiated handshake with a fresh ping
// addressed to the guid it carried, keyed by the sender's public key so a
// never-before-seen phone can pair.
func (s *Service) handleHandshake(ctx context.Context, identity channel.Identity, senderPubHex string, p Handshake) error {
	if err := s.machine.To(StateAwaitingHandshake); err != nil {
		return err
	}
	if err := s.pingPhone(ctx, identity.ChannelID, identity.PrivKeyHex, senderPubHex, p.GUID); err != nil {
		return err
	}
	return s.machine.To(StateAwaitingCredential)
}

// handleLoginWallet finalizes the pairing with the credential the phone
// supplied.
func (s *Service) handleLoginWallet(ctx context.Context, senderPubHex string, p LoginWallet) error {
	if err := s.machine.To(StateCompleted); err != nil {
		s.logger.Warn("credential in unexpected state",
			"component", "securechannel",
			"function", "handleLoginWallet",
			"error", err,
		)
	}

	if p.Remember {
		if err := s.channels.RecordPairedPhone(ctx, senderPubHex); err != nil {
			return fmt.Errorf("remember phone: %w", err)
		}
	}
	if err := s.channels.RecordLastGUID(ctx, p.GUID); err != nil {
		return fmt.Errorf("record guid: %w", err)
	}

	s.notifier.Display(ctx, alerts.SeveritySuccess, alerts.MobileLoginSuccess)
	if err := s.login.Login(ctx, auth.Attempt{GUID: p.GUID, Password: p.Password, SharedKey: p.SharedKey}); err != nil {
		return fmt.Errorf("hand off login: %w", err)
	}

	if err := s.analytics.Track(ctx, analytics.Event{
		Key: analytics.LoginSignedIn,
		Properties: map[string]any{
			"authentication_type": "SECURE_CHANNEL",
			"device_origin":       "WEB",
			"site_redirect":       string(s.cfg.Product),
		},
	}); err != nil {
		return err
	}
	return s.analytics.Track(ctx, analytics.Event{
		Key: analytics.LoginRequestApproved,
		Properties: map[string]any{
			"method":           "SECURE_CHANNEL",
			"request_platform": string(ProductWallet),
		},
	})
}

// pingPhone encrypts a login_wallet nudge for the phone and hands it to the
// delivery collaborator. Not a handshake request by itself: it only wakes
// the phone.
func (s *Service) pingPhone(ctx context.Context, channelID, privHex, peerPubHex, guid string) error {
	plaintext, err := encodePing(channelID, s.cfg.Now())
	if err != nil {
		return err
	}
	env, err := Seal(privHex, peerPubHex, guid, plaintext)
	if err != nil {
		return fmt.Errorf("seal ping: %w", err)
	}

	s.notifier.Display(ctx, alerts.SeverityInfo, alerts.MobileLoginConfirm)
	if err := s.delivery.SendSecureChannelMessage(ctx, env); err != nil {
		return fmt.Errorf("deliver ping: %w", err)
	}
	return nil
}

// OnClose runs when the relay connection drops. Handshake progress is not
// erased: the persisted identity makes the pairing resumable and the next
// OnOpen resets the machine anyway.
func (s *Service) OnClose(closedAt time.Time) {
	s.logger.Info("secure channel connection closed",
		"component", "securechannel",
		"function", "OnClose",
		"state", s.machine.State().String(),
		"closed_at", closedAt.UnixMilli(),
	)
}

// RecordLogout stores the logout instant used by the on-open gate.
func (s *Service) RecordLogout(ctx context.Context) error {
	return s.channels.RecordLogout(ctx, s.cfg.Now())
}
