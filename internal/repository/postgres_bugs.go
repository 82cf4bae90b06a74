package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

type pgBugRepository struct {
	db *pgxpool.Pool
}

var bugSelect = `
    SELECT b.id, b.title, b.description, b.status, b.priority, b.created_at, b.updated_at,
           p.id, p.name, p.owner_id,
           ` + userColumns("c") + `,
           ` + userColumns("a") + `,
           (SELECT COUNT(*) FROM comments cm WHERE cm.bug_id = b.id)
    FROM bugs b
    JOIN projects p ON p.id = b.project_id
    JOIN users c ON c.id = b.created_by_id
    LEFT JOIN users a ON a.id = b.assigned_to_id`

const priorityRank = `CASE b.priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 WHEN 'high' THEN 2 ELSE 3 END`

var bugOrderColumns = map[string]string{
	"created_at":   "b.created_at",
	"updated_at":   "b.updated_at",
	"bug_priority": priorityRank,
}

func scanBug(row pgx.Row) (domain.Bug, error) {
	var (
		b        domain.Bug
		assignee nullableUser
	)
	targets := []any{&b.ID, &b.Title, &b.Description, &b.Status, &b.Priority, &b.CreatedAt, &b.UpdatedAt,
		&b.Project.ID, &b.Project.Name, &b.Project.OwnerID}
	targets = append(targets, userScanTargets(&b.CreatedBy)...)
	targets = append(targets, assignee.targets()...)
	targets = append(targets, &b.CommentsCount)
	if err := row.Scan(targets...); err != nil {
		return domain.Bug{}, err
	}
	b.AssignedTo = assignee.user()
	return b, nil
}

func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func (r *pgBugRepository) Create(ctx context.Context, bug *domain.Bug) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO bugs (title, description, status, priority, assigned_to_id, project_id, created_by_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at;`,
		bug.Title, bug.Description, bug.Status, bug.Priority,
		nullableID(bug.AssigneeID()), bug.Project.ID, bug.CreatedBy.ID,
	).Scan(&bug.ID, &bug.CreatedAt, &bug.UpdatedAt)
	if err != nil {
		return mapError(err, "create bug")
	}
	return nil
}

func (r *pgBugRepository) Get(ctx context.Context, id int64) (domain.Bug, error) {
	b, err := scanBug(r.db.QueryRow(ctx, bugSelect+` WHERE b.id = $1;`, id))
	if err != nil {
		return domain.Bug{}, mapError(err, "get bug")
	}
	return b, nil
}

func (r *pgBugRepository) List(ctx context.Context, filter domain.BugFilter) ([]domain.Bug, error) {
	var args queryArgs
	var conds []string

	if filter.AccessibleTo != 0 {
		conds = append(conds, "b.project_id IN ("+accessibleProjects(args.add(filter.AccessibleTo))+")")
	}
	if filter.Status != "" {
		conds = append(conds, "b.status = "+args.add(filter.Status))
	}
	if filter.Priority != "" {
		conds = append(conds, "b.priority = "+args.add(filter.Priority))
	}
	if filter.ProjectID != nil {
		conds = append(conds, "b.project_id = "+args.add(*filter.ProjectID))
	}
	if filter.AssignedTo != nil {
		conds = append(conds, "b.assigned_to_id = "+args.add(*filter.AssignedTo))
	}
	if filter.CreatedBy != nil {
		conds = append(conds, "b.created_by_id = "+args.add(*filter.CreatedBy))
	}
	if filter.Search != "" {
		ph := args.add(filter.Search)
		conds = append(conds, fmt.Sprintf("(strpos(lower(b.title), lower(%s::text)) > 0 OR strpos(lower(b.description), lower(%s::text)) > 0)", ph, ph))
	}

	query := bugSelect + whereClause(conds) + orderClause(filter.Ordering, bugOrderColumns, "b.id DESC")

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list bugs")
	}
	defer rows.Close()

	bugs := []domain.Bug{}
	for rows.Next() {
		b, err := scanBug(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bug: %w", err)
		}
		bugs = append(bugs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return bugs, nil
}

func (r *pgBugRepository) Update(ctx context.Context, bug *domain.Bug) error {
	err := r.db.QueryRow(ctx, `
        UPDATE bugs
        SET title = $2, description = $3, status = $4, priority = $5, assigned_to_id = $6, project_id = $7, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at;`,
		bug.ID, bug.Title, bug.Description, bug.Status, bug.Priority, nullableID(bug.AssigneeID()), bug.Project.ID,
	).Scan(&bug.UpdatedAt)
	if err != nil {
		return mapError(err, "update bug")
	}
	return nil
}

func (r *pgBugRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bugs WHERE id = $1;`, id)
	if err != nil {
		return mapError(err, "delete bug")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
