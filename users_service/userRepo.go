package main

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user does not exist")
)

type userStore interface {
	CreateUser(ctx context.Context, user User, roles []models.Role) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUsers(ctx context.Context, ids []string) ([]User, error)
	UpdateProfile(ctx context.Context, user User) (User, error)
	GetRoles(ctx context.Context, id string) ([]models.Role, error)
	AddRole(ctx context.Context, id string, role models.Role) error
}

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(DB *sql.DB) *UserRepo {
	return &UserRepo{
		db: DB,
	}
}

const userColumns = `user_id, email, password, full_name, profession, avatar_url, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.Id, &u.Email, &u.PasswordHash, &u.FullName, &u.Profession, &u.AvatarUrl, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (repo *UserRepo) CreateUser(ctx context.Context, user User, roles []models.Role) (User, error) {
	user.Id = ulid.Make().String()
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (user_id, email, password, full_name, profession) VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		user.Id, user.Email, user.PasswordHash, user.FullName, user.Profession,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return User{}, ErrUserExists
		}
		return User{}, err
	}
	for _, r := range roles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`, user.Id, r); err != nil {
			return User{}, err
		}
	}
	return user, tx.Commit()
}

func (repo *UserRepo) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(repo.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (repo *UserRepo) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(repo.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`, id))
}

func (repo *UserRepo) GetUsers(ctx context.Context, ids []string) ([]User, error) {
	rows, err := repo.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]User, 0, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (repo *UserRepo) UpdateProfile(ctx context.Context, user User) (User, error) {
	return scanUser(repo.db.QueryRowContext(ctx,
		`UPDATE users SET full_name = $2, profession = $3, avatar_url = $4, updated_at = now()
		WHERE user_id = $1 RETURNING `+userColumns,
		user.Id, user.FullName, user.Profession, user.AvatarUrl))
}

func (repo *UserRepo) GetRoles(ctx context.Context, id string) ([]models.Role, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	roles := []models.Role{}
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

func (repo *UserRepo) AddRole(ctx context.Context, id string, role models.Role) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, role)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
		return ErrUserNotFound
	}
	return err
}
