package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/payfriend/payfriend/internal/notification"
	"github.com/payfriend/payfriend/internal/user"
	"github.com/payfriend/payfriend/internal/verify"
)

type testNotifier struct {
	messages []notification.Message
}

func (n *testNotifier) Send(_ context.Context, msg notification.Message) error {
	n.messages = append(n.messages, msg)
	return nil
}

func verifiedUser() user.User {
	return user.User{
		ID:         uuid.NewString(),
		Email:      "sender@example.com",
		Verified:   true,
		ProviderID: "provider-123",
	}
}

func newTestService(stub *verify.Stub, notifier *testNotifier, expiry time.Duration) *Service {
	var n notification.Notifier
	if notifier != nil {
		n = notifier
	}
	return NewService(NewMemoryStore(), stub, n, expiry)
}

func TestCreatePersistsPendingRecord(t *testing.T) {
	stub := &verify.Stub{}
	svc := newTestService(stub, nil, 20*time.Minute)
	ctx := context.Background()
	u := verifiedUser()

	p, err := svc.Create(ctx, u, CreateInput{SendTo: "alice@example.com", Amount: 50})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected provider-issued request id")
	}
	if p.Status != StatusPending {
		t.Fatalf("expected pending, got %s", p.Status)
	}
	if len(stub.Challenges) != 1 {
		t.Fatalf("expected one push challenge, got %d", len(stub.Challenges))
	}
	if stub.Challenges[0].Message != "Please authorize payment to alice@example.com" {
		t.Fatalf("unexpected challenge message: %q", stub.Challenges[0].Message)
	}

	payments, err := svc.List(ctx, u)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(payments))
	}
}

func TestCreateProviderFailureLeavesNoRecord(t *testing.T) {
	stub := &verify.Stub{Err: &verify.ProviderError{Op: "send push challenge", Message: "user has no registered device"}}
	svc := newTestService(stub, nil, 20*time.Minute)
	ctx := context.Background()
	u := verifiedUser()

	if _, err := svc.Create(ctx, u, CreateInput{SendTo: "alice@example.com", Amount: 50}); err == nil {
		t.Fatalf("expected provider error")
	}

	payments, err := svc.List(ctx, u)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(payments) != 0 {
		t.Fatalf("expected no records after provider failure, got %d", len(payments))
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := newTestService(&verify.Stub{}, nil, 20*time.Minute)
	ctx := context.Background()
	u := verifiedUser()

	if _, err := svc.Create(ctx, u, CreateInput{SendTo: "", Amount: 50}); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
	if _, err := svc.Create(ctx, u, CreateInput{SendTo: "alice@example.com", Amount: 0}); err == nil {
		t.Fatalf("expected error for non-positive amount")
	}

	unverified := user.User{ID: uuid.NewString(), Email: "new@example.com"}
	if _, err := svc.Create(ctx, unverified, CreateInput{SendTo: "alice@example.com", Amount: 50}); err != ErrNotVerified {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}
}

func TestCallbackApprovesPendingRecord(t *testing.T) {
	notifier := &testNotifier{}
	svc := newTestService(&verify.Stub{}, notifier, 20*time.Minute)
	ctx := context.Background()
	u := verifiedUser()

	p, err := svc.Create(ctx, u, CreateInput{SendTo: "alice@example.com", Amount: 50})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.HandleCallback(ctx, Callback{RequestID: p.ID, Status: StatusApproved}); err != nil {
		t.Fatalf("callback: %v", err)
	}

	status, err := svc.Status(ctx, u, p.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != StatusApproved {
		t.Fatalf("expected approved, got %s", status)
	}
	if len(notifier.messages) != 1 || notifier.messages[0].Kind != notification.KindPaymentApproved {
		t.Fatalf("expected one approval notification, got %+v", notifier.messages)
	}
}

func TestCallbackDuplicateDeliveryIsNoOp(t *testing.T) {
	notifier := &testNotifier{}
	svc := newTestService(&verify.Stub{}, notifier, 20*time.Minute)
	ctx := context.Background()
	u := verifiedUser()

	p, _ := svc.Create(ctx, u, CreateInput{SendTo: "alice@example.com", Amount: 50})

	if err := svc.HandleCallback(ctx, Callback{RequestID: p.ID, Status: StatusDenied}); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.HandleCallback(ctx, Callback{RequestID: p.ID, Status: StatusDenied}); err != nil {
		t.Fatalf("duplicate delivery should be a no-op, got %v", err)
	}

	status, _ := svc.Status(ctx, u, p.ID)
	if status != StatusDenied {
		t.Fatalf("expected denied, got %s", status)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected a single notification, got %d", len(notifier.messages))
	}
}

func TestCallbackConflictKeepsFirstDecision(t *testing.T) {
	svc := newTestService(&verify.Stub{}, nil, 20*time.Minute)
	ctx := context.Background()
	u := verifiedUser()

	p, _ := svc.Create(ctx, u, CreateInput{SendTo: "alice@example.com", Amount: 50})

	if err := svc.HandleCallback(ctx, Callback{RequestID: p.ID, Status: StatusApproved}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := svc.HandleCallback(ctx, Callback{RequestID: p.ID, Status: StatusDenied}); err != nil {
		t.Fatalf("stale deny should be absorbed, got %v", err)
	}

	status, _ := svc.Status(ctx, u, p.ID)
	if status != StatusApproved {
		t.Fatalf("first terminal transition must win, got %s", status)
	}
}

func TestCallbackUnknownRequestID(t *testing.T) {
	svc := newTestService(&verify.Stub{}, nil, 20*time.Minute)

	err := svc.HandleCallback(context.Background(), Callback{RequestID: uuid.NewString(), Status: StatusApproved})
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCallbackRejectsUnknownStatusValue(t *testing.T) {
	svc := newTestService(&verify.Stub{}, nil, 20*time.Minute)
	ctx := context.Background()
	u := verifiedUser()

	p, _ := svc.Create(ctx, u, CreateInput{SendTo: "alice@example.com", Amount: 50})

	if err := svc.HandleCallback(ctx, Callback{RequestID: p.ID, Status: "cancelled"}); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	status, _ := svc.Status(ctx, u, p.ID)
	if status != StatusPending {
		t.Fatalf("record must stay pending, got %s", status)
	}
}

func TestStatusChecksOwnership(t *testing.T) {
	svc := newTestService(&verify.Stub{}, nil, 20*time.Minute)
	ctx := context.Background()
	u := verifiedUser()

	p, _ := svc.Create(ctx, u, CreateInput{SendTo: "alice@example.com", Amount: 50})

	other := verifiedUser()
	if _, err := svc.Status(ctx, other, p.ID); err != ErrNotOwner {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestStatusUnknownRequestID(t *testing.T) {
	svc := newTestService(&verify.Stub{}, nil, 20*time.Minute)

	if _, err := svc.Status(context.Background(), verifiedUser(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatusReportsExpiredWithoutMutation(t *testing.T) {
	// Negative expiry makes the deadline land in the past on creation.
	svc := newTestService(&verify.Stub{}, nil, -time.Minute)
	ctx := context.Background()
	u := verifiedUser()

	p, _ := svc.Create(ctx, u, CreateInput{SendTo: "alice@example.com", Amount: 50})

	status, err := svc.Status(ctx, u, p.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != StatusExpired {
		t.Fatalf("expected expired, got %s", status)
	}

	// A late provider decision still lands: expiry is reported, never stored.
	if err := svc.HandleCallback(ctx, Callback{RequestID: p.ID, Status: StatusApproved}); err != nil {
		t.Fatalf("late callback: %v", err)
	}
	status, _ = svc.Status(ctx, u, p.ID)
	if status != StatusApproved {
		t.Fatalf("expected approved after late callback, got %s", status)
	}
}

func TestSMSFallbackApprovesPayment(t *testing.T) {
	stub := &verify.Stub{Code: "123456"}
	svc := newTestService(stub, nil, 20*time.Minute)
	ctx := context.Background()
	u := verifiedUser()

	p, _ := svc.Create(ctx, u, CreateInput{SendTo: "alice@example.com", Amount: 50})

	if err := svc.StartSMSAuth(ctx, u, p.ID); err != nil {
		t.Fatalf("start sms auth: %v", err)
	}
	if len(stub.SMSChallenges) != 1 {
		t.Fatalf("expected one sms challenge, got %d", len(stub.SMSChallenges))
	}

	if err := svc.CheckSMSAuth(ctx, u, p.ID, "123456"); err != nil {
		t.Fatalf("check sms auth: %v", err)
	}

	status, _ := svc.Status(ctx, u, p.ID)
	if status != StatusApproved {
		t.Fatalf("expected approved, got %s", status)
	}
}

func TestSMSFallbackRejectedCodeLeavesPending(t *testing.T) {
	svc := newTestService(&verify.Stub{Code: "123456"}, nil, 20*time.Minute)
	ctx := context.Background()
	u := verifiedUser()

	p, _ := svc.Create(ctx, u, CreateInput{SendTo: "alice@example.com", Amount: 50})

	if err := svc.CheckSMSAuth(ctx, u, p.ID, "999999"); err != ErrCodeRejected {
		t.Fatalf("expected ErrCodeRejected, got %v", err)
	}

	status, _ := svc.Status(ctx, u, p.ID)
	if status != StatusPending {
		t.Fatalf("expected pending, got %s", status)
	}
}

func TestSMSFallbackOnDecidedRequest(t *testing.T) {
	svc := newTestService(&verify.Stub{}, nil, 20*time.Minute)
	ctx := context.Background()
	u := verifiedUser()

	p, _ := svc.Create(ctx, u, CreateInput{SendTo: "alice@example.com", Amount: 50})
	if err := svc.HandleCallback(ctx, Callback{RequestID: p.ID, Status: StatusDenied}); err != nil {
		t.Fatalf("callback: %v", err)
	}

	if err := svc.StartSMSAuth(ctx, u, p.ID); err != ErrNotPending {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if err := svc.CheckSMSAuth(ctx, u, p.ID, "123456"); err != ErrNotPending {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}
