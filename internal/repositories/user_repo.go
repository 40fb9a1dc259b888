package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hirelyBack/internal/models"
)

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	now := time.Now()
	res, err := r.DB.ExecContext(ctx, `
        INSERT INTO users (name, phone, email, password, role, city, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Name, user.Phone, user.Email, user.Password, user.Role, user.City, now)
	if err != nil {
		return models.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	user.ID = int(id)
	user.CreatedAt = now
	user.Password = ""
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (models.User, error) {
	var (
		user      models.User
		city      sql.NullString
		picture   sql.NullString
		updatedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, `
        SELECT id, name, phone, email, role, city, profile_picture, created_at, updated_at
        FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.Name, &user.Phone, &user.Email, &user.Role, &city, &picture, &user.CreatedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	user.City = city.String
	if picture.Valid {
		user.ProfilePicture = &picture.String
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		user.UpdatedAt = &t
	}
	return user, nil
}

func (r *UserRepository) GetUserByPhone(ctx context.Context, phone string) (models.User, error) {
	var user models.User
	err := r.DB.QueryRowContext(ctx, `
        SELECT id, name, phone, email, password, role, created_at
        FROM users WHERE phone = ?`, phone).
		Scan(&user.ID, &user.Name, &user.Phone, &user.Email, &user.Password, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrUserNotFound
	}
	return user, err
}

func (r *UserRepository) SaveSession(ctx context.Context, session models.Session) error {
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO sessions (user_id, role, refresh_token, expires_at)
        VALUES (?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE refresh_token = VALUES(refresh_token), expires_at = VALUES(expires_at)`,
		session.UserID, session.Role, session.RefreshToken, session.ExpiresAt)
	return err
}

func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (models.Session, error) {
	var session models.Session
	err := r.DB.QueryRowContext(ctx, `
        SELECT user_id, role, refresh_token, expires_at
        FROM sessions WHERE refresh_token = ?`, refreshToken).
		Scan(&session.UserID, &session.Role, &session.RefreshToken, &session.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, nil
	}
	return session, err
}

func (r *UserRepository) BlockUser(ctx context.Context, userID, blockedID int) error {
	_, err := r.DB.ExecContext(ctx, `
        INSERT IGNORE INTO blocked_users (user_id, blocked_user_id, created_at)
        VALUES (?, ?, ?)`,
		userID, blockedID, time.Now())
	return err
}

func (r *UserRepository) UnblockUser(ctx context.Context, userID, blockedID int) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM blocked_users WHERE user_id = ? AND blocked_user_id = ?`,
		userID, blockedID)
	return err
}

// GetBlockStatus reports the block relation between caller and peer in both
// directions with a single round-trip.
func (r *UserRepository) GetBlockStatus(ctx context.Context, callerID, peerID int) (models.BlockStatus, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT user_id
        FROM blocked_users
        WHERE (user_id = ? AND blocked_user_id = ?) OR (user_id = ? AND blocked_user_id = ?)`,
		callerID, peerID, peerID, callerID)
	if err != nil {
		return models.BlockStatus{}, err
	}
	defer rows.Close()

	var status models.BlockStatus
	for rows.Next() {
		var blocker int
		if err := rows.Scan(&blocker); err != nil {
			return models.BlockStatus{}, err
		}
		if blocker == callerID {
			status.CallerBlockedPeer = true
		} else {
			status.PeerBlockedCaller = true
		}
	}
	return status, rows.Err()
}
