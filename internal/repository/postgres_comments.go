package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

type pgCommentRepository struct {
	db *pgxpool.Pool
}

var commentSelect = `
    SELECT cm.id, cm.bug_id, b.title, b.project_id, cm.message, cm.created_at, cm.updated_at,
           ` + userColumns("u") + `
    FROM comments cm
    JOIN bugs b ON b.id = cm.bug_id
    JOIN users u ON u.id = cm.user_id`

var commentOrderColumns = map[string]string{
	"created_at": "cm.created_at",
}

func scanComment(row pgx.Row) (domain.Comment, error) {
	var c domain.Comment
	targets := []any{&c.ID, &c.BugID, &c.BugTitle, &c.ProjectID, &c.Message, &c.CreatedAt, &c.UpdatedAt}
	targets = append(targets, userScanTargets(&c.Commenter)...)
	err := row.Scan(targets...)
	return c, err
}

func (r *pgCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO comments (bug_id, user_id, message)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at;`,
		comment.BugID, comment.Commenter.ID, comment.Message,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return mapError(err, "create comment")
	}
	return nil
}

func (r *pgCommentRepository) Get(ctx context.Context, id int64) (domain.Comment, error) {
	c, err := scanComment(r.db.QueryRow(ctx, commentSelect+` WHERE cm.id = $1;`, id))
	if err != nil {
		return domain.Comment{}, mapError(err, "get comment")
	}
	return c, nil
}

func (r *pgCommentRepository) List(ctx context.Context, filter domain.CommentFilter) ([]domain.Comment, error) {
	var args queryArgs
	var conds []string

	if filter.AccessibleTo != 0 {
		conds = append(conds, "b.project_id IN ("+accessibleProjects(args.add(filter.AccessibleTo))+")")
	}
	if filter.BugID != nil {
		conds = append(conds, "cm.bug_id = "+args.add(*filter.BugID))
	}

	query := commentSelect + whereClause(conds) + orderClause(filter.Ordering, commentOrderColumns, "cm.id")

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list comments")
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return comments, nil
}

func (r *pgCommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	err := r.db.QueryRow(ctx, `
        UPDATE comments SET message = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at;`,
		comment.ID, comment.Message,
	).Scan(&comment.UpdatedAt)
	if err != nil {
		return mapError(err, "update comment")
	}
	return nil
}

func (r *pgCommentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1;`, id)
	if err != nil {
		return mapError(err, "delete comment")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
