package alerts

import (
	"context"
	"log/slog"
)

// Severity mirrors the display style the UI applies to an alert.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Alert codes surfaced to the user. The UI owns the localized copy; the
// protocol layer only names the condition.
const (
	MobileLoginConfirm  = "mobile_login_confirm"
	MobileLoginSuccess  = "mobile_login_success"
	MobileLoginDeclined = "mobile_login_declined"
	PaymentReceivedBTC  = "payment_received_btc"
	PaymentReceivedBCH  = "payment_received_bch"
	PaymentReceivedETH  = "payment_received_eth"
	PaymentPendingETH   = "payment_received_eth_pending"
	SendConfirmedETH    = "send_eth_confirmed"
	EmailVerifySuccess  = "email_verify_success"
)

// Notifier delivers user-visible alerts to the presentation layer.
type Notifier interface {
	Display(ctx context.Context, severity Severity, code string)
}

// LoggerNotifier is a stub implementation that writes alerts to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Display writes the alert to the structured logger.
func (n *LoggerNotifier) Display(_ context.Context, severity Severity, code string) {
	if n == nil || n.logger == nil {
		return
	}
	n.logger.Info("alert", "severity", string(severity), "code", code)
}
