package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

type pgActivityRepository struct {
	db *pgxpool.Pool
}

var activitySelect = `
    SELECT ac.id, ac.activity_type, ac.description, ac.bug_id, ac.created_at,
           p.id, p.name, p.owner_id,
           ` + userColumns("u") + `
    FROM activities ac
    JOIN projects p ON p.id = ac.project_id
    JOIN users u ON u.id = ac.user_id`

var activityOrderColumns = map[string]string{
	"created_at": "ac.created_at",
}

func scanActivity(row pgx.Row) (domain.Activity, error) {
	var a domain.Activity
	targets := []any{&a.ID, &a.Type, &a.Description, &a.BugID, &a.CreatedAt,
		&a.Project.ID, &a.Project.Name, &a.Project.OwnerID}
	targets = append(targets, userScanTargets(&a.User)...)
	err := row.Scan(targets...)
	return a, err
}

func (r *pgActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO activities (activity_type, description, project_id, user_id, bug_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at;`,
		activity.Type, activity.Description, activity.Project.ID, activity.User.ID, activity.BugID,
	).Scan(&activity.ID, &activity.CreatedAt)
	if err != nil {
		return mapError(err, "create activity")
	}
	return nil
}

func (r *pgActivityRepository) Get(ctx context.Context, id int64) (domain.Activity, error) {
	a, err := scanActivity(r.db.QueryRow(ctx, activitySelect+` WHERE ac.id = $1;`, id))
	if err != nil {
		return domain.Activity{}, mapError(err, "get activity")
	}
	return a, nil
}

func (r *pgActivityRepository) List(ctx context.Context, filter domain.ActivityFilter) ([]domain.Activity, error) {
	var args queryArgs
	var conds []string

	if filter.AccessibleTo != 0 {
		conds = append(conds, "ac.project_id IN ("+accessibleProjects(args.add(filter.AccessibleTo))+")")
	}
	if filter.ProjectID != nil {
		conds = append(conds, "ac.project_id = "+args.add(*filter.ProjectID))
	}
	if filter.BugID != nil {
		conds = append(conds, "ac.bug_id = "+args.add(*filter.BugID))
	}
	if filter.Type != "" {
		conds = append(conds, "ac.activity_type = "+args.add(filter.Type))
	}

	query := activitySelect + whereClause(conds) + orderClause(filter.Ordering, activityOrderColumns, "ac.id DESC")

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list activities")
	}
	defer rows.Close()

	activities := []domain.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return activities, nil
}
