package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/clovisbarbosajr/navarro-connect/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")
var ErrEmailTaken = errors.New("email already registered")

const profileColumns = `id, email, password_hash, display_name, department, avatar_url, is_online, sound_enabled, is_admin, last_seen_at, created_at`

// ProfileRepository abstracts the user directory.
type ProfileRepository interface {
	Create(ctx context.Context, profile models.Profile) (models.Profile, error)
	GetByID(ctx context.Context, userID string) (models.Profile, error)
	GetByEmail(ctx context.Context, email string) (models.Profile, error)
	List(ctx context.Context, excludeID string, department string) ([]models.Profile, error)
	ListByIDs(ctx context.Context, userIDs []string) ([]models.Profile, error)
	Update(ctx context.Context, userID string, fields models.ProfileUpdate) (models.Profile, error)
	SetOnline(ctx context.Context, userID string, online bool) error
}

// ProfileRepo is a sqlx implementation of ProfileRepository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Create inserts a new directory entry.
func (r *ProfileRepo) Create(ctx context.Context, profile models.Profile) (models.Profile, error) {
	var out models.Profile
	err := r.db.QueryRowxContext(ctx, `INSERT INTO profiles (id, email, password_hash, display_name, department)
        VALUES ($1, $2, $3, $4, $5) RETURNING `+profileColumns,
		profile.ID, profile.Email, profile.PasswordHash, profile.DisplayName, profile.Department).
		StructScan(&out)
	if err != nil && isUniqueViolation(err) {
		return models.Profile{}, ErrEmailTaken
	}
	return out, err
}

// GetByID fetches a profile by id.
func (r *ProfileRepo) GetByID(ctx context.Context, userID string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// GetByEmail fetches a profile by email.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// List returns the directory ordered by display name, excluding the caller.
// An empty department matches everyone.
func (r *ProfileRepo) List(ctx context.Context, excludeID string, department string) ([]models.Profile, error) {
	var profiles []models.Profile
	if department != "" {
		err := r.db.SelectContext(ctx, &profiles, `SELECT `+profileColumns+` FROM profiles
            WHERE id<>$1 AND department=$2 ORDER BY display_name ASC`, excludeID, department)
		return profiles, err
	}
	err := r.db.SelectContext(ctx, &profiles, `SELECT `+profileColumns+` FROM profiles
        WHERE id<>$1 ORDER BY display_name ASC`, excludeID)
	return profiles, err
}

// ListByIDs fetches multiple profiles in one query.
func (r *ProfileRepo) ListByIDs(ctx context.Context, userIDs []string) ([]models.Profile, error) {
	if len(userIDs) == 0 {
		return []models.Profile{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+profileColumns+` FROM profiles WHERE id IN (?)`, userIDs)
	if err != nil {
		return nil, err
	}
	var profiles []models.Profile
	err = r.db.SelectContext(ctx, &profiles, r.db.Rebind(query), args...)
	return profiles, err
}

// Update applies user-mutable fields and returns the fresh row.
func (r *ProfileRepo) Update(ctx context.Context, userID string, fields models.ProfileUpdate) (models.Profile, error) {
	var profile models.Profile
	err := r.db.QueryRowxContext(ctx, `UPDATE profiles SET
            display_name = COALESCE($2, display_name),
            department = COALESCE($3, department),
            avatar_url = COALESCE($4, avatar_url),
            sound_enabled = COALESCE($5, sound_enabled)
        WHERE id=$1 RETURNING `+profileColumns,
		userID, fields.DisplayName, fields.Department, fields.AvatarURL, fields.SoundEnabled).
		StructScan(&profile)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// SetOnline flips the presence flag. Going offline stamps last_seen_at.
// There is no heartbeat: a client that dies without signing out leaves the
// flag stale until its next session.
func (r *ProfileRepo) SetOnline(ctx context.Context, userID string, online bool) error {
	if online {
		_, err := r.db.ExecContext(ctx, `UPDATE profiles SET is_online=TRUE WHERE id=$1`, userID)
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE profiles SET is_online=FALSE, last_seen_at=NOW() WHERE id=$1`, userID)
	return err
}

func isUniqueViolation(err error) bool {
	type coder interface{ SQLState() string }
	var pqErr coder
	if errors.As(err, &pqErr) {
		return pqErr.SQLState() == "23505"
	}
	return false
}
