package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/keynai/keynai/internal/domain/model"
	"github.com/keynai/keynai/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccountStore = (*AccountRepo)(nil)

// sqliteTimeLayout is a fixed-width layout so that lexical ordering of
// created_at strings matches chronological ordering.
const sqliteTimeLayout = "2006-01-02 15:04:05.000"

// AccountRepo is the SQLite implementation of the AccountStore port
// interface. Password statuses are stored normalized in statuses and resolved
// by name on write and by join on read.
type AccountRepo struct {
	db *DB
}

// NewAccountRepo creates a new AccountRepo backed by the given DB.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx, so shared query helpers
// can run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create inserts a new account binding a profile to a service. No composite
// uniqueness of (profile, service, user identifier) is enforced beyond the
// primary key; the same identifier may be registered more than once.
func (r *AccountRepo) Create(ctx context.Context, account model.Account) (*model.Account, error) {
	const query = `INSERT INTO accounts (user_identifier, profile_id, service_id) VALUES (?, ?, ?)`

	result, err := r.db.Writer.ExecContext(ctx, query, account.UserIdentifier, account.ProfileID, account.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("create account %q: %w", account.UserIdentifier, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create account %q: last insert id: %w", account.UserIdentifier, err)
	}

	created := account
	created.ID = id
	return &created, nil
}

// GetByID retrieves an account by id. Returns nil, nil if it does not exist.
func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	const query = `SELECT account_id, user_identifier, profile_id, service_id FROM accounts WHERE account_id = ?`

	account, err := scanAccount(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %d: %w", id, err)
	}

	return account, nil
}

// ListByProfile returns all accounts belonging to the given profile, ordered
// by user identifier then id.
func (r *AccountRepo) ListByProfile(ctx context.Context, profileID int64) ([]model.Account, error) {
	const query = `
		SELECT account_id, user_identifier, profile_id, service_id
		FROM accounts
		WHERE profile_id = ?
		ORDER BY user_identifier, account_id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("list accounts for profile %d: %w", profileID, err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// Delete removes an account and its password history in one transaction.
// Returns ErrAccountNotFound if the account does not exist.
func (r *AccountRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete account %d: begin: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM passwords WHERE account_id = ?`, id); err != nil {
		return fmt.Errorf("delete account %d: cascade passwords: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE account_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account %d: check rows affected: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("delete account %d: %w", id, driven.ErrAccountNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete account %d: commit: %w", id, err)
	}

	return nil
}

// Rotate supersedes the account's current password in one transaction. When
// the bound service rejects duplicates, the guard is evaluated inside the
// transaction against the effective status of stored-active passwords, so a
// silently expired password no longer blocks reuse. On success the previous
// most-recent password (if any) is marked changed and the new password is
// inserted as active; on ErrDuplicateCredential nothing is mutated.
func (r *AccountRepo) Rotate(ctx context.Context, accountID int64, secret string, now time.Time) (*model.Password, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("rotate password for account %d: begin: %w", accountID, err)
	}
	defer tx.Rollback()

	policy, err := servicePolicyForAccount(ctx, tx, accountID)
	if err != nil {
		return nil, fmt.Errorf("rotate password for account %d: %w", accountID, err)
	}

	if !policy.AcceptsDuplicates {
		dup, err := hasActiveDuplicate(ctx, tx, accountID, secret, policy, now)
		if err != nil {
			return nil, fmt.Errorf("rotate password for account %d: %w", accountID, err)
		}
		if dup {
			return nil, fmt.Errorf("rotate password for account %d: %w", accountID, driven.ErrDuplicateCredential)
		}
	}

	const flip = `
		UPDATE passwords
		SET status_id = (SELECT status_id FROM statuses WHERE name = 'changed')
		WHERE password_id = (
			SELECT password_id FROM passwords
			WHERE account_id = ?
			ORDER BY created_at DESC, password_id DESC
			LIMIT 1
		)
	`
	if _, err := tx.ExecContext(ctx, flip, accountID); err != nil {
		return nil, fmt.Errorf("rotate password for account %d: mark changed: %w", accountID, err)
	}

	const insert = `
		INSERT INTO passwords (secret, created_at, status_id, account_id)
		VALUES (?, ?, (SELECT status_id FROM statuses WHERE name = 'active'), ?)
	`
	createdAt := now.UTC()
	result, err := tx.ExecContext(ctx, insert, secret, createdAt.Format(sqliteTimeLayout), accountID)
	if err != nil {
		return nil, fmt.Errorf("rotate password for account %d: insert: %w", accountID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("rotate password for account %d: last insert id: %w", accountID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("rotate password for account %d: commit: %w", accountID, err)
	}

	return &model.Password{
		ID:        id,
		Secret:    secret,
		CreatedAt: createdAt,
		Status:    model.StatusActive,
		AccountID: accountID,
	}, nil
}

// History returns the account's passwords oldest first, totally ordered by
// (created_at, id). Statuses are returned as stored.
func (r *AccountRepo) History(ctx context.Context, accountID int64) ([]model.Password, error) {
	const query = `
		SELECT p.password_id, p.secret, p.created_at, st.name, p.account_id
		FROM passwords p
		JOIN statuses st ON st.status_id = p.status_id
		WHERE p.account_id = ?
		ORDER BY p.created_at, p.password_id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("password history for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var passwords []model.Password
	for rows.Next() {
		password, err := scanPassword(rows)
		if err != nil {
			return nil, fmt.Errorf("scan password: %w", err)
		}
		passwords = append(passwords, *password)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passwords: %w", err)
	}

	return passwords, nil
}

// Current returns the account's most recent password as stored, or nil, nil
// when the account has no passwords yet.
func (r *AccountRepo) Current(ctx context.Context, accountID int64) (*model.Password, error) {
	const query = `
		SELECT p.password_id, p.secret, p.created_at, st.name, p.account_id
		FROM passwords p
		JOIN statuses st ON st.status_id = p.status_id
		WHERE p.account_id = ?
		ORDER BY p.created_at DESC, p.password_id DESC
		LIMIT 1
	`

	password, err := scanPassword(r.db.Reader.QueryRowContext(ctx, query, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current password for account %d: %w", accountID, err)
	}

	return password, nil
}

// HasActiveDuplicate reports whether the account already holds an effectively
// active password with the given secret under its service's lifespan policy.
func (r *AccountRepo) HasActiveDuplicate(ctx context.Context, accountID int64, secret string, now time.Time) (bool, error) {
	policy, err := servicePolicyForAccount(ctx, r.db.Reader, accountID)
	if err != nil {
		return false, fmt.Errorf("duplicate check for account %d: %w", accountID, err)
	}

	dup, err := hasActiveDuplicate(ctx, r.db.Reader, accountID, secret, policy, now)
	if err != nil {
		return false, fmt.Errorf("duplicate check for account %d: %w", accountID, err)
	}
	return dup, nil
}

// UpdateStatus persists a recomputed status for a single password.
func (r *AccountRepo) UpdateStatus(ctx context.Context, passwordID int64, status model.Status) error {
	const query = `
		UPDATE passwords
		SET status_id = (SELECT status_id FROM statuses WHERE name = ?)
		WHERE password_id = ?
	`

	result, err := r.db.Writer.ExecContext(ctx, query, string(status), passwordID)
	if err != nil {
		return fmt.Errorf("update status of password %d: %w", passwordID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status of password %d: check rows affected: %w", passwordID, err)
	}
	if rows == 0 {
		return fmt.Errorf("update status of password %d: no such password", passwordID)
	}

	return nil
}

// servicePolicyForAccount loads the credential policy of the account's bound
// service. Returns ErrAccountNotFound when the account does not exist.
func servicePolicyForAccount(ctx context.Context, q querier, accountID int64) (*model.Service, error) {
	const query = `
		SELECT s.service_id, s.name, s.accepts_duplicates, s.min_length, s.max_length,
		       s.lifespan_amount, lt.unit, s.format_id
		FROM accounts a
		JOIN services s ON s.service_id = a.service_id
		JOIN lifespan_types lt ON lt.lifespan_type_id = s.lifespan_type_id
		WHERE a.account_id = ?
	`

	service, err := scanService(q.QueryRowContext(ctx, query, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load service policy: %w", err)
	}

	return service, nil
}

// hasActiveDuplicate scans the account's stored-active passwords and reports
// whether any of them still counts as active under the policy and carries the
// given secret.
func hasActiveDuplicate(ctx context.Context, q querier, accountID int64, secret string, policy *model.Service, now time.Time) (bool, error) {
	const query = `
		SELECT p.created_at
		FROM passwords p
		JOIN statuses st ON st.status_id = p.status_id
		WHERE p.account_id = ? AND st.name = 'active' AND p.secret = ?
	`

	rows, err := q.QueryContext(ctx, query, accountID, secret)
	if err != nil {
		return false, fmt.Errorf("query active passwords: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var createdAtRaw string
		if err := rows.Scan(&createdAtRaw); err != nil {
			return false, fmt.Errorf("scan active password: %w", err)
		}

		createdAt, err := parseTime(createdAtRaw)
		if err != nil {
			return false, fmt.Errorf("parse created_at: %w", err)
		}

		effective := model.EffectiveStatus(model.StatusActive, createdAt, policy.LifespanAmount, policy.LifespanUnit, now)
		if effective == model.StatusActive {
			return true, nil
		}
	}

	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterate active passwords: %w", err)
	}

	return false, nil
}

func scanAccount(s scanner) (*model.Account, error) {
	var account model.Account
	if err := s.Scan(&account.ID, &account.UserIdentifier, &account.ProfileID, &account.ServiceID); err != nil {
		return nil, err
	}
	return &account, nil
}

func scanPassword(s scanner) (*model.Password, error) {
	var password model.Password
	var status string
	var createdAt string

	if err := s.Scan(&password.ID, &password.Secret, &createdAt, &status, &password.AccountID); err != nil {
		return nil, err
	}

	password.Status = model.Status(status)

	var err error
	password.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &password, nil
}
