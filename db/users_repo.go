package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/oamouyal-jpg/rentall/domain"
)

var _ domain.UserRepository = (*Repository)(nil)

var (
	// ErrUserNotFound is returned when no user exists for the given ID or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when registering an email address that is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
)

// dbUser represents a user as stored in the database.
type dbUser struct {
	ID           uuid.UUID      `db:"id"`
	Email        string         `db:"email"`
	Name         string         `db:"name"`
	PasswordHash string         `db:"password_hash"`
	AvatarURL    sql.NullString `db:"avatar_url"`
	Location     sql.NullString `db:"location"`
	Bio          sql.NullString `db:"bio"`
	CreatedAt    time.Time      `db:"created_at"`
}

// fromDomainUser converts a domain.User into a dbUser for database insertion.
func fromDomainUser(user *domain.User) *dbUser {
	return &dbUser{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		AvatarURL:    nullString(user.AvatarURL),
		Location:     nullString(user.Location),
		Bio:          nullString(user.Bio),
		CreatedAt:    user.CreatedAt,
	}
}

// toDomainUser converts a dbUser into a domain.User.
func toDomainUser(dbUser *dbUser) *domain.User {
	return &domain.User{
		ID:           dbUser.ID,
		Email:        dbUser.Email,
		Name:         dbUser.Name,
		PasswordHash: dbUser.PasswordHash,
		AvatarURL:    stringPtr(dbUser.AvatarURL),
		Location:     stringPtr(dbUser.Location),
		Bio:          stringPtr(dbUser.Bio),
		CreatedAt:    dbUser.CreatedAt,
	}
}

// CreateUser inserts a new domain.User into the database.
func (repo *Repository) CreateUser(user *domain.User) error {
	dbUser := fromDomainUser(user)
	query := `INSERT INTO users(id, email, name, password_hash, avatar_url, location, bio, created_at)
			  VALUES(:id, :email, :name, :password_hash, :avatar_url, :location, :bio, :created_at)`
	_, err := repo.dbConn.NamedExec(query, dbUser)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting user %s : %w", user.Email, err)
	}
	return nil
}

// GetUser retrieves the user with the given ID.
func (repo *Repository) GetUser(id uuid.UUID) (*domain.User, error) {
	var dbUser dbUser
	query := `SELECT id, email, name, password_hash, avatar_url, location, bio, created_at
		      FROM users
			  WHERE id = ?`

	err := repo.dbConn.Get(&dbUser, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user with id %s : %w", id, err)
	}

	return toDomainUser(&dbUser), nil
}

// GetUserByEmail retrieves the user registered with the given email address.
func (repo *Repository) GetUserByEmail(email string) (*domain.User, error) {
	var dbUser dbUser
	query := `SELECT id, email, name, password_hash, avatar_url, location, bio, created_at
		      FROM users
			  WHERE email = ?`

	err := repo.dbConn.Get(&dbUser, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user with email %s : %w", email, err)
	}

	return toDomainUser(&dbUser), nil
}

// GetUsersByID retrieves several users in a single query, keyed by ID.
// IDs without a matching user are absent from the result.
func (repo *Repository) GetUsersByID(ids ...uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	users := make(map[uuid.UUID]*domain.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query, args, err := sqlx.In(`SELECT id, email, name, password_hash, avatar_url, location, bio, created_at
								 FROM users
								 WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("building user lookup query : %w", err)
	}

	var dbUsers []*dbUser
	err = repo.dbConn.Select(&dbUsers, query, args...)
	if err != nil {
		return nil, fmt.Errorf("getting users by id : %w", err)
	}

	for _, dbUser := range dbUsers {
		user := toDomainUser(dbUser)
		users[user.ID] = user
	}
	return users, nil
}

// UpdateProfile applies the non-nil fields of the update to the user row and
// returns the updated user. Nil pointers fall through the COALESCE and leave
// the stored value untouched.
func (repo *Repository) UpdateProfile(id uuid.UUID, update domain.ProfileUpdate) (*domain.User, error) {
	query := `UPDATE users SET
				name = COALESCE(?, name),
				avatar_url = COALESCE(?, avatar_url),
				location = COALESCE(?, location),
				bio = COALESCE(?, bio)
			  WHERE id = ?`

	result, err := repo.dbConn.Exec(query, update.Name, update.AvatarURL, update.Location, update.Bio, id)
	if err != nil {
		return nil, fmt.Errorf("updating profile for %s : %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking profile update rows affected for %s : %w", id, err)
	}

	if rowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	return repo.GetUser(id)
}
