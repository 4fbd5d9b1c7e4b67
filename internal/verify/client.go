package verify

import (
	"context"
	"fmt"
	"time"
)

const (
	// ChannelSMS delivers the one-time code as a text message.
	ChannelSMS = "sms"
	// ChannelCall delivers the one-time code via voice call.
	ChannelCall = "call"
)

// PushChallenge describes an out-of-band approval request sent to the user's
// registered device. The expiry is advisory; the provider decides whether a
// late approval still calls back.
type PushChallenge struct {
	ProviderID string
	Message    string
	Expiry     time.Duration
	Details    map[string]string
}

// Client is the connector to the external phone-verification and
// push-authorization provider. Implementations never retry; a failed call is
// terminal for the triggering user action.
type Client interface {
	// StartVerification asks the provider to deliver a one-time code over the
	// given channel (sms or call).
	StartVerification(ctx context.Context, countryCode int, nationalNumber, channel string) error

	// CheckVerification validates a previously requested one-time code. A
	// wrong code is (false, nil), not an error.
	CheckVerification(ctx context.Context, countryCode int, nationalNumber, code string) (bool, error)

	// RegisterUser creates a provider-side identity and returns its handle.
	// The provider does not deduplicate; call at most once per user, directly
	// after a successful verification check.
	RegisterUser(ctx context.Context, email string, countryCode int, nationalNumber string) (string, error)

	// SendPushChallenge issues an asynchronous approval request and returns
	// the provider-issued request id.
	SendPushChallenge(ctx context.Context, challenge PushChallenge) (string, error)

	// SendSMSChallenge delivers a fallback one-time password to the device
	// registered under the provider identity.
	SendSMSChallenge(ctx context.Context, providerID string) error

	// CheckSMSCode validates a fallback one-time password.
	CheckSMSCode(ctx context.Context, providerID, code string) (bool, error)
}

// ProviderError carries the message the provider returned for a failed call.
type ProviderError struct {
	Op      string
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("verification provider %s: %s", e.Op, e.Message)
}
