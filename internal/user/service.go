package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/payfriend/payfriend/internal/phone"
	"github.com/payfriend/payfriend/internal/verify"
)

var (
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrAlreadyVerified indicates the phone has already been verified.
	ErrAlreadyVerified = errors.New("phone number already verified")
	// ErrCodeRejected indicates the provider rejected the one-time code.
	ErrCodeRejected = errors.New("verification code rejected")
)

// Service manages account lifecycle and phone verification.
type Service struct {
	repo     Repository
	verifier verify.Client
}

// NewService creates a new user service.
func NewService(repo Repository, verifier verify.Client) *Service {
	return &Service{repo: repo, verifier: verifier}
}

// RegisterInput captures the data needed to open an account.
type RegisterInput struct {
	Email    string
	Password string
	Phone    string
	Channel  string
}

// Register validates input, asks the provider to deliver a one-time code and
// persists the unverified account. Nothing is persisted when code delivery
// fails; the caller simply re-submits.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("a valid email is required")
	}
	if len(input.Password) < 8 {
		return User{}, fmt.Errorf("password must be at least 8 characters")
	}

	number, err := phone.Parse(input.Phone)
	if err != nil {
		return User{}, err
	}

	channel := input.Channel
	if channel == "" {
		channel = verify.ChannelSMS
	}
	if channel != verify.ChannelSMS && channel != verify.ChannelCall {
		return User{}, fmt.Errorf("channel must be %q or %q", verify.ChannelSMS, verify.ChannelCall)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	if err := s.verifier.StartVerification(ctx, number.CountryCode, number.NationalNumber, channel); err != nil {
		return User{}, err
	}

	user := User{
		ID:             uuid.New().String(),
		Email:          email,
		PasswordHash:   hash,
		Phone:          number.E164,
		CountryCode:    number.CountryCode,
		NationalNumber: number.NationalNumber,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// ResendCode asks the provider to deliver a fresh one-time code.
func (s *Service) ResendCode(ctx context.Context, u User, channel string) error {
	if u.Verified {
		return ErrAlreadyVerified
	}
	if channel == "" {
		channel = verify.ChannelSMS
	}
	if channel != verify.ChannelSMS && channel != verify.ChannelCall {
		return fmt.Errorf("channel must be %q or %q", verify.ChannelSMS, verify.ChannelCall)
	}
	return s.verifier.StartVerification(ctx, u.CountryCode, u.NationalNumber, channel)
}

// VerifyPhone checks the one-time code and, on success, creates the
// provider-side identity and marks the account verified. The provider user is
// created exactly once, here, because the provider does not deduplicate.
func (s *Service) VerifyPhone(ctx context.Context, u User, code string) (User, error) {
	if u.Verified {
		return u, ErrAlreadyVerified
	}

	ok, err := s.verifier.CheckVerification(ctx, u.CountryCode, u.NationalNumber, code)
	if err != nil {
		return u, err
	}
	if !ok {
		return u, ErrCodeRejected
	}

	providerID, err := s.verifier.RegisterUser(ctx, u.Email, u.CountryCode, u.NationalNumber)
	if err != nil {
		return u, err
	}

	if err := s.repo.MarkVerified(ctx, u.ID, providerID); err != nil {
		return u, err
	}

	u.Verified = true
	u.ProviderID = providerID
	return u, nil
}

// Authenticate verifies email and password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}
