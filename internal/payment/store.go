package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no payment request matches the provider request id.
var ErrNotFound = errors.New("payment request not found")

// Store persists payment requests.
type Store interface {
	Create(ctx context.Context, p PaymentRequest) error
	Get(ctx context.Context, id string) (PaymentRequest, error)
	ListByUser(ctx context.Context, userID string) ([]PaymentRequest, error)
	// TransitionFromPending atomically moves a pending record to the given
	// terminal status. It returns false with a nil error when the record
	// exists but is already terminal, so duplicate deliveries collapse into
	// no-ops and a terminal status can never be overwritten.
	TransitionFromPending(ctx context.Context, id, status string, decidedAt time.Time) (bool, error)
}

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed payment store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a pending payment request.
func (s *PostgresStore) Create(ctx context.Context, p PaymentRequest) error {
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO payments (request_id, user_id, provider_id, send_to, amount, status, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, userID, p.ProviderID, p.SendTo, p.Amount, p.Status, p.CreatedAt.UTC(), p.ExpiresAt.UTC())
	return err
}

// Get fetches a payment request by provider request id.
func (s *PostgresStore) Get(ctx context.Context, id string) (PaymentRequest, error) {
	row := s.db.QueryRow(ctx, `SELECT request_id, user_id, provider_id, send_to, amount, status, created_at, expires_at, decided_at
        FROM payments WHERE request_id = $1`, id)
	return scanPayment(row)
}

// ListByUser returns the user's payment requests, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]PaymentRequest, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `SELECT request_id, user_id, provider_id, send_to, amount, status, created_at, expires_at, decided_at
        FROM payments WHERE user_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []PaymentRequest
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// TransitionFromPending performs the single conditional write of the
// workflow. The status predicate makes the check-then-write atomic under
// concurrent callback deliveries.
func (s *PostgresStore) TransitionFromPending(ctx context.Context, id, status string, decidedAt time.Time) (bool, error) {
	cmd, err := s.db.Exec(ctx, `UPDATE payments SET status = $2, decided_at = $3
        WHERE request_id = $1 AND status = $4`, id, status, decidedAt.UTC(), StatusPending)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() > 0 {
		return true, nil
	}
	// No row changed: either the id is unknown or the record is terminal.
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func scanPayment(row pgx.Row) (PaymentRequest, error) {
	var (
		p         PaymentRequest
		userID    uuid.UUID
		createdAt time.Time
		expiresAt time.Time
		decidedAt *time.Time
	)
	if err := row.Scan(&p.ID, &userID, &p.ProviderID, &p.SendTo, &p.Amount, &p.Status, &createdAt, &expiresAt, &decidedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PaymentRequest{}, ErrNotFound
		}
		return PaymentRequest{}, err
	}
	p.UserID = userID.String()
	p.CreatedAt = createdAt.UTC()
	p.ExpiresAt = expiresAt.UTC()
	if decidedAt != nil {
		utc := decidedAt.UTC()
		p.DecidedAt = &utc
	}
	return p, nil
}
