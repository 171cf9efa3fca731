package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const userColumns = `id, first_name, last_name, email, password_hash, verified, role, phone, address, created_at, updated_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func insertUser(ctx context.Context, ext sqlx.ExtContext, user *model.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :first_name, :last_name, :email, :password_hash, :verified, :role, :phone, :address, :created_at, :updated_at)
	`
	_, err := sqlx.NamedExecContext(ctx, ext, query, user)
	return wrap(err, "create user")
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = model.NormalizeEmail(user.Email)
	user.Touch(r.now())
	return insertUser(ctx, r.db, user)
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, wrap(err, "get user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = $1`, model.NormalizeEmail(email))
	if err != nil {
		return nil, wrap(err, "get user by email")
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET
			first_name = $1,
			last_name = $2,
			email = $3,
			password_hash = $4,
			verified = $5,
			role = $6,
			phone = $7,
			address = $8,
			updated_at = $9
		WHERE id = $10
	`
	user.Email = model.NormalizeEmail(user.Email)
	user.UpdatedAt = r.now()

	res, err := r.db.ExecContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Verified,
		user.Role,
		user.Phone,
		user.Address,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return wrap(err, "update user")
	}
	return mustAffect(res, "update user")
}

func (r *userRepository) List(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Role != "" {
		args = append(args, filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.SearchTerm != "" {
		args = append(args, "%"+filter.SearchTerm+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	p := filter.Pagination.Normalize()
	args = append(args, p.PageSize, p.Offset())
	query += fmt.Sprintf(" ORDER BY created_at LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	users := []*model.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, wrap(err, "list users")
	}
	return users, nil
}
