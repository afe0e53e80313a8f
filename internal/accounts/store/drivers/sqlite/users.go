package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aperohq/accounts/internal/accounts/domain"
	"github.com/aperohq/accounts/internal/accounts/store"
)

type usersRepo struct {
	db *sql.DB
}

const userColumns = `id, email, password_hash, first_name, last_name, roles,
	is_active, is_email_verified, is_two_factor_enabled,
	failed_login_attempts, last_failed_login_at, last_login_at,
	phone_number, avatar_url, google_id, google_email, google_profile,
	email_verified_at, password_changed_at, created_at, updated_at, deleted_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND deleted_at IS NULL`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND deleted_at IS NULL`, email)
	return scanUser(row)
}

func (r *usersRepo) GetUserByGoogleID(ctx context.Context, googleID string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_id = ? AND deleted_at IS NULL`, googleID)
	return scanUser(row)
}

func (r *usersRepo) ListUsers(ctx context.Context, opts store.ListOptions) ([]domain.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	profile, err := encodeGoogleProfile(u.GoogleProfile)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (
			id, email, password_hash, first_name, last_name, roles,
			is_active, is_email_verified, is_two_factor_enabled,
			failed_login_attempts, last_failed_login_at, last_login_at,
			phone_number, avatar_url, google_id, google_email, google_profile,
			email_verified_at, password_changed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, mapStringNull(u.PasswordHash), u.FirstName, u.LastName,
		joinRoles(u.Roles), u.IsActive, u.IsEmailVerified, u.IsTwoFactorEnabled,
		u.FailedLoginAttempts, mapOptionalTime(u.LastFailedLoginAt),
		mapOptionalTime(u.LastLoginAt), mapStringNull(u.PhoneNumber),
		mapStringNull(u.AvatarURL), mapStringNull(u.GoogleID),
		mapStringNull(u.GoogleEmail), profile,
		mapOptionalTime(u.EmailVerifiedAt), mapOptionalTime(u.PasswordChangedAt),
		u.CreatedAt, u.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) error {
	profile, err := encodeGoogleProfile(u.GoogleProfile)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET
			email = ?, password_hash = ?, first_name = ?, last_name = ?, roles = ?,
			is_active = ?, is_email_verified = ?, is_two_factor_enabled = ?,
			failed_login_attempts = ?, last_failed_login_at = ?, last_login_at = ?,
			phone_number = ?, avatar_url = ?, google_id = ?, google_email = ?,
			google_profile = ?, email_verified_at = ?, password_changed_at = ?,
			updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		u.Email, mapStringNull(u.PasswordHash), u.FirstName, u.LastName,
		joinRoles(u.Roles), u.IsActive, u.IsEmailVerified, u.IsTwoFactorEnabled,
		u.FailedLoginAttempts, mapOptionalTime(u.LastFailedLoginAt),
		mapOptionalTime(u.LastLoginAt), mapStringNull(u.PhoneNumber),
		mapStringNull(u.AvatarURL), mapStringNull(u.GoogleID),
		mapStringNull(u.GoogleEmail), profile,
		mapOptionalTime(u.EmailVerifiedAt), mapOptionalTime(u.PasswordChangedAt),
		u.UpdatedAt, u.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`, at, at, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) RecordFailedLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET failed_login_attempts = failed_login_attempts + 1,
			last_failed_login_at = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`, at, at, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) ResetFailedLogins(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET failed_login_attempts = 0
		 WHERE id = ? AND deleted_at IS NULL`, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SoftDeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                 domain.User
		passwordHash      sql.NullString
		roles             string
		lastFailedLoginAt sql.NullTime
		lastLoginAt       sql.NullTime
		phoneNumber       sql.NullString
		avatarURL         sql.NullString
		googleID          sql.NullString
		googleEmail       sql.NullString
		googleProfile     sql.NullString
		emailVerifiedAt   sql.NullTime
		passwordChangedAt sql.NullTime
		deletedAt         sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Email, &passwordHash, &u.FirstName, &u.LastName, &roles,
		&u.IsActive, &u.IsEmailVerified, &u.IsTwoFactorEnabled,
		&u.FailedLoginAttempts, &lastFailedLoginAt, &lastLoginAt,
		&phoneNumber, &avatarURL, &googleID, &googleEmail, &googleProfile,
		&emailVerifiedAt, &passwordChangedAt, &u.CreatedAt, &u.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.PasswordHash = mapNullString(passwordHash)
	u.Roles = mapRoles(roles)
	u.LastFailedLoginAt = mapNullTimePtr(lastFailedLoginAt)
	u.LastLoginAt = mapNullTimePtr(lastLoginAt)
	u.PhoneNumber = mapNullString(phoneNumber)
	u.AvatarURL = mapNullString(avatarURL)
	u.GoogleID = mapNullString(googleID)
	u.GoogleEmail = mapNullString(googleEmail)
	u.GoogleProfile = mapGoogleProfile(googleProfile)
	u.EmailVerifiedAt = mapNullTimePtr(emailVerifiedAt)
	u.PasswordChangedAt = mapNullTimePtr(passwordChangedAt)
	u.DeletedAt = mapNullTimePtr(deletedAt)

	return u, nil
}
