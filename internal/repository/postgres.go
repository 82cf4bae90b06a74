package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// NewPostgresRepositories builds every repository over one pool.
func NewPostgresRepositories(db *pgxpool.Pool) Repositories {
	return Repositories{
		Users:      &pgUserRepository{db: db},
		Projects:   &pgProjectRepository{db: db},
		Bugs:       &pgBugRepository{db: db},
		Comments:   &pgCommentRepository{db: db},
		Activities: &pgActivityRepository{db: db},
	}
}

// mapError translates driver errors into domain errors and wraps the rest.
func mapError(err error, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.ErrConflict
		case pgForeignKeyViolation:
			return domain.ErrNotFound.WithMessage("referenced resource not found")
		}
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// queryArgs numbers positional parameters while a statement is assembled.
type queryArgs []any

func (a *queryArgs) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

// accessibleProjects is the set of project ids visible to the user bound at
// placeholder ph.
func accessibleProjects(ph string) string {
	return `SELECT p.id FROM projects p WHERE p.owner_id = ` + ph + `
		UNION SELECT m.project_id FROM project_members m WHERE m.user_id = ` + ph + `
		UNION SELECT b.project_id FROM bugs b WHERE b.created_by_id = ` + ph + ` OR b.assigned_to_id = ` + ph
}

func orderClause(o domain.Ordering, columns map[string]string, fallback string) string {
	col, ok := columns[o.Field]
	if !ok {
		return " ORDER BY " + fallback
	}
	dir := " ASC"
	if o.Desc {
		dir = " DESC"
	}
	return " ORDER BY " + col + dir + ", " + fallback
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func userColumns(alias string) string {
	return alias + ".id, " + alias + ".username, " + alias + ".email, " + alias + ".first_name, " +
		alias + ".last_name, " + alias + ".is_staff, " + alias + ".created_at"
}

func userScanTargets(u *domain.User) []any {
	return []any{&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsStaff, &u.CreatedAt}
}

// nullableUser receives a LEFT JOINed user row.
type nullableUser struct {
	id        *int64
	username  *string
	email     *string
	firstName *string
	lastName  *string
	isStaff   *bool
	createdAt *time.Time
}

func (n *nullableUser) targets() []any {
	return []any{&n.id, &n.username, &n.email, &n.firstName, &n.lastName, &n.isStaff, &n.createdAt}
}

func (n *nullableUser) user() *domain.User {
	if n.id == nil {
		return nil
	}
	u := &domain.User{ID: *n.id}
	if n.username != nil {
		u.Username = *n.username
	}
	if n.email != nil {
		u.Email = *n.email
	}
	if n.firstName != nil {
		u.FirstName = *n.firstName
	}
	if n.lastName != nil {
		u.LastName = *n.lastName
	}
	if n.isStaff != nil {
		u.IsStaff = *n.isStaff
	}
	if n.createdAt != nil {
		u.CreatedAt = *n.createdAt
	}
	return u
}
