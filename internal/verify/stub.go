package verify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Stub simulates the verification provider for tests and keyless development.
// The zero value accepts every code and approves every call; failures are
// injected through Err or by setting Code to an expected value.
type Stub struct {
	mu sync.Mutex

	// Err, when set, is returned by every operation.
	Err error
	// Code, when non-empty, is the only code CheckVerification and
	// CheckSMSCode accept.
	Code string

	Verifications []string
	Registered    []string
	Challenges    []PushChallenge
	SMSChallenges []string
}

// StartVerification records the delivery request.
func (s *Stub) StartVerification(_ context.Context, _ int, nationalNumber, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Verifications = append(s.Verifications, nationalNumber+":"+channel)
	return nil
}

// CheckVerification accepts the configured code, or any code when unset.
func (s *Stub) CheckVerification(_ context.Context, _ int, _, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	return s.Code == "" || code == s.Code, nil
}

// RegisterUser hands out a synthetic provider identity.
func (s *Stub) RegisterUser(_ context.Context, email string, _ int, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	s.Registered = append(s.Registered, email)
	return uuid.NewString(), nil
}

// SendPushChallenge records the challenge and returns a synthetic request id.
func (s *Stub) SendPushChallenge(_ context.Context, challenge PushChallenge) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	s.Challenges = append(s.Challenges, challenge)
	return uuid.NewString(), nil
}

// SendSMSChallenge records the fallback delivery request.
func (s *Stub) SendSMSChallenge(_ context.Context, providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.SMSChallenges = append(s.SMSChallenges, providerID)
	return nil
}

// CheckSMSCode accepts the configured code, or any code when unset.
func (s *Stub) CheckSMSCode(_ context.Context, _, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	return s.Code == "" || code == s.Code, nil
}
