package user

import (
	"context"
	"errors"
	"testing"

	"github.com/payfriend/payfriend/internal/verify"
)

func TestRegisterAndVerifyPhone(t *testing.T) {
	repo := NewMemoryRepository()
	stub := &verify.Stub{Code: "123456"}
	svc := NewService(repo, stub)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		Email:    "Bob@Example.com",
		Password: "correct-horse",
		Phone:    "+14155552671",
		Channel:  verify.ChannelSMS,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "bob@example.com" {
		t.Fatalf("expected normalized email, got %s", u.Email)
	}
	if u.Verified || u.ProviderID != "" {
		t.Fatalf("new user must be unverified with no provider handle: %+v", u)
	}
	if u.CountryCode != 1 || u.NationalNumber != "4155552671" {
		t.Fatalf("unexpected phone split: %d %s", u.CountryCode, u.NationalNumber)
	}
	if len(stub.Verifications) != 1 {
		t.Fatalf("expected one code delivery, got %d", len(stub.Verifications))
	}

	verified, err := svc.VerifyPhone(ctx, u, "123456")
	if err != nil {
		t.Fatalf("verify phone: %v", err)
	}
	if !verified.Verified || verified.ProviderID == "" {
		t.Fatalf("expected verified user with provider handle: %+v", verified)
	}

	stored, err := repo.FindByEmail(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !stored.Verified || stored.ProviderID != verified.ProviderID {
		t.Fatalf("verification not persisted: %+v", stored)
	}
}

func TestRegisterProviderFailureLeavesNoUser(t *testing.T) {
	repo := NewMemoryRepository()
	stub := &verify.Stub{Err: &verify.ProviderError{Op: "start verification", Message: "rate limited"}}
	svc := NewService(repo, stub)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Email:    "bob@example.com",
		Password: "correct-horse",
		Phone:    "+14155552671",
	})
	if err == nil {
		t.Fatalf("expected provider error")
	}

	if _, err := repo.FindByEmail(ctx, "bob@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no user should be persisted, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &verify.Stub{})
	ctx := context.Background()

	cases := []RegisterInput{
		{Email: "", Password: "correct-horse", Phone: "+14155552671"},
		{Email: "not-an-email", Password: "correct-horse", Phone: "+14155552671"},
		{Email: "bob@example.com", Password: "short", Phone: "+14155552671"},
		{Email: "bob@example.com", Password: "correct-horse", Phone: "12345"},
		{Email: "bob@example.com", Password: "correct-horse", Phone: "+14155552671", Channel: "email"},
	}
	for i, input := range cases {
		if _, err := svc.Register(ctx, input); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &verify.Stub{})
	ctx := context.Background()

	input := RegisterInput{Email: "bob@example.com", Password: "correct-horse", Phone: "+14155552671"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, input); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestVerifyPhoneWrongCode(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &verify.Stub{Code: "123456"})
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "correct-horse", Phone: "+14155552671"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.VerifyPhone(ctx, u, "000000"); !errors.Is(err, ErrCodeRejected) {
		t.Fatalf("expected ErrCodeRejected, got %v", err)
	}

	stored, _ := repo.FindByEmail(ctx, "bob@example.com")
	if stored.Verified || stored.ProviderID != "" {
		t.Fatalf("wrong code must not verify the user: %+v", stored)
	}
}

func TestVerifyPhoneAlreadyVerified(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &verify.Stub{})
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "correct-horse", Phone: "+14155552671"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	verified, err := svc.VerifyPhone(ctx, u, "any")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if _, err := svc.VerifyPhone(ctx, verified, "any"); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &verify.Stub{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "correct-horse", Phone: "+14155552671"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "bob@example.com", "correct-horse"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "bob@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}
