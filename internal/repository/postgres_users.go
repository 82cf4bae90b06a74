package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

type pgUserRepository struct {
	db *pgxpool.Pool
}

func (r *pgUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO users (username, email, first_name, last_name, password_hash, is_staff)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at;`,
		user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.IsStaff,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return mapError(err, "create user")
	}
	return nil
}

func (r *pgUserRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *pgUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *pgUserRepository) getBy(ctx context.Context, column string, value any) (domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx,
		`SELECT `+userColumns("u")+`, u.password_hash FROM users u WHERE u.`+column+` = $1;`,
		value,
	).Scan(append(userScanTargets(&user), &user.PasswordHash)...)
	if err != nil {
		return domain.User{}, mapError(err, "get user")
	}
	return user, nil
}
