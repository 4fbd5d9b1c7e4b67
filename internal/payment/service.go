package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/payfriend/payfriend/internal/notification"
	"github.com/payfriend/payfriend/internal/user"
	"github.com/payfriend/payfriend/internal/verify"
)

var (
	// ErrNotVerified indicates the caller has not completed phone verification.
	ErrNotVerified = errors.New("phone verification required")
	// ErrNotOwner indicates the caller did not submit the payment request.
	ErrNotOwner = errors.New("payment request belongs to another user")
	// ErrInvalidStatus indicates a callback carried an unsupported status value.
	ErrInvalidStatus = errors.New("unsupported callback status")
	// ErrNotPending indicates the payment request has already been decided.
	ErrNotPending = errors.New("payment request already decided")
	// ErrCodeRejected indicates the provider rejected the fallback code.
	ErrCodeRejected = errors.New("authorization code rejected")
)

// Service orchestrates the payment authorization workflow: push challenge,
// pending record, out-of-band decision, status exposure.
type Service struct {
	store      Store
	verifier   verify.Client
	notifier   notification.Notifier
	pushExpiry time.Duration
}

// NewService constructs the payment service.
func NewService(store Store, verifier verify.Client, notifier notification.Notifier, pushExpiry time.Duration) *Service {
	return &Service{store: store, verifier: verifier, notifier: notifier, pushExpiry: pushExpiry}
}

// CreateInput captures a payment submission.
type CreateInput struct {
	SendTo string
	Amount int64
}

// Create sends a push challenge for the payment and persists a pending record
// keyed by the provider-issued request id. When the provider declines the
// challenge nothing is persisted; the caller re-submits explicitly.
func (s *Service) Create(ctx context.Context, u user.User, input CreateInput) (PaymentRequest, error) {
	sendTo := strings.TrimSpace(input.SendTo)
	if sendTo == "" {
		return PaymentRequest{}, fmt.Errorf("recipient is required")
	}
	if input.Amount <= 0 {
		return PaymentRequest{}, fmt.Errorf("amount must be positive")
	}
	if !u.Verified || u.ProviderID == "" {
		return PaymentRequest{}, ErrNotVerified
	}

	requestID, err := s.verifier.SendPushChallenge(ctx, verify.PushChallenge{
		ProviderID: u.ProviderID,
		Message:    fmt.Sprintf("Please authorize payment to %s", sendTo),
		Expiry:     s.pushExpiry,
		Details: map[string]string{
			"Sending to":         sendTo,
			"Transaction amount": strconv.FormatInt(input.Amount, 10),
		},
	})
	if err != nil {
		return PaymentRequest{}, err
	}

	now := time.Now().UTC()
	p := PaymentRequest{
		ID:         requestID,
		UserID:     u.ID,
		ProviderID: u.ProviderID,
		SendTo:     sendTo,
		Amount:     input.Amount,
		Status:     StatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.pushExpiry),
	}
	if err := s.store.Create(ctx, p); err != nil {
		return PaymentRequest{}, err
	}
	return p, nil
}

// Callback is the provider's decision for a push challenge. Authenticity has
// already been established by the webhook handler.
type Callback struct {
	RequestID string
	Status    string
}

// HandleCallback applies a provider decision. Redeliveries and decisions for
// already-terminal records are absorbed as no-ops; the first terminal
// transition wins.
func (s *Service) HandleCallback(ctx context.Context, cb Callback) error {
	if cb.Status != StatusApproved && cb.Status != StatusDenied {
		return ErrInvalidStatus
	}

	updated, err := s.store.TransitionFromPending(ctx, cb.RequestID, cb.Status, time.Now().UTC())
	if err != nil {
		return err
	}
	if !updated {
		return nil
	}

	if s.notifier != nil {
		p, err := s.store.Get(ctx, cb.RequestID)
		if err == nil {
			kind := notification.KindPaymentApproved
			if cb.Status == StatusDenied {
				kind = notification.KindPaymentDenied
			}
			_ = s.notifier.Send(ctx, notification.Message{
				Kind:        kind,
				Destination: p.UserID,
				Body:        fmt.Sprintf("Payment of %d to %s was %s", p.Amount, p.SendTo, cb.Status),
			})
		}
	}
	return nil
}

// Status returns the current status of the caller's payment request. A
// pending record past its deadline is reported as expired without being
// mutated, so a late provider decision still lands through the normal path.
func (s *Service) Status(ctx context.Context, u user.User, requestID string) (string, error) {
	p, err := s.store.Get(ctx, requestID)
	if err != nil {
		return "", err
	}
	if p.UserID != u.ID {
		return "", ErrNotOwner
	}
	if p.Status == StatusPending && time.Now().UTC().After(p.ExpiresAt) {
		return StatusExpired, nil
	}
	return p.Status, nil
}

// List returns the caller's payment requests.
func (s *Service) List(ctx context.Context, u user.User) ([]PaymentRequest, error) {
	return s.store.ListByUser(ctx, u.ID)
}

// StartSMSAuth triggers the SMS fallback challenge for a pending payment.
func (s *Service) StartSMSAuth(ctx context.Context, u user.User, requestID string) error {
	p, err := s.store.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if p.UserID != u.ID {
		return ErrNotOwner
	}
	if p.Status != StatusPending {
		return ErrNotPending
	}
	return s.verifier.SendSMSChallenge(ctx, u.ProviderID)
}

// CheckSMSAuth validates a fallback code and approves the pending payment. A
// rejected code changes nothing. If the record was decided concurrently the
// earlier decision stands.
func (s *Service) CheckSMSAuth(ctx context.Context, u user.User, requestID, code string) error {
	p, err := s.store.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if p.UserID != u.ID {
		return ErrNotOwner
	}
	if p.Status != StatusPending {
		return ErrNotPending
	}

	ok, err := s.verifier.CheckSMSCode(ctx, u.ProviderID, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeRejected
	}

	if _, err := s.store.TransitionFromPending(ctx, requestID, StatusApproved, time.Now().UTC()); err != nil {
		return err
	}
	return nil
}
