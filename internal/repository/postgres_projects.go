package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

type pgProjectRepository struct {
	db *pgxpool.Pool
}

var projectSelect = `
    SELECT p.id, p.name, p.description, p.created_at, p.updated_at, ` + userColumns("u") + `,
           (SELECT COUNT(*) FROM bugs b WHERE b.project_id = p.id),
           (SELECT COUNT(*) FROM bugs b WHERE b.project_id = p.id AND b.status = 'open')
    FROM projects p
    JOIN users u ON u.id = p.owner_id`

var projectOrderColumns = map[string]string{
	"created_at":   "p.created_at",
	"updated_at":   "p.updated_at",
	"project_name": "p.name",
}

func scanProject(row pgx.Row) (domain.Project, error) {
	var p domain.Project
	targets := []any{&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt}
	targets = append(targets, userScanTargets(&p.Owner)...)
	targets = append(targets, &p.TotalBugsCount, &p.OpenBugsCount)
	err := row.Scan(targets...)
	return p, err
}

func (r *pgProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO projects (name, description, owner_id)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at;`,
		project.Name, project.Description, project.Owner.ID,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return mapError(err, "create project")
	}
	return nil
}

func (r *pgProjectRepository) Get(ctx context.Context, id int64) (domain.Project, error) {
	p, err := scanProject(r.db.QueryRow(ctx, projectSelect+` WHERE p.id = $1;`, id))
	if err != nil {
		return domain.Project{}, mapError(err, "get project")
	}
	return p, nil
}

func (r *pgProjectRepository) List(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	var args queryArgs
	var conds []string

	if filter.AccessibleTo != 0 {
		conds = append(conds, "p.id IN ("+accessibleProjects(args.add(filter.AccessibleTo))+")")
	}
	if filter.Search != "" {
		ph := args.add(filter.Search)
		conds = append(conds, fmt.Sprintf("(strpos(lower(p.name), lower(%s::text)) > 0 OR strpos(lower(p.description), lower(%s::text)) > 0)", ph, ph))
	}

	query := projectSelect + whereClause(conds) + orderClause(filter.Ordering, projectOrderColumns, "p.id DESC")

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list projects")
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return projects, nil
}

func (r *pgProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	err := r.db.QueryRow(ctx, `
        UPDATE projects
        SET name = $2, description = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at;`,
		project.ID, project.Name, project.Description,
	).Scan(&project.UpdatedAt)
	if err != nil {
		return mapError(err, "update project")
	}
	return nil
}

func (r *pgProjectRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1;`, id)
	if err != nil {
		return mapError(err, "delete project")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pgProjectRepository) HasAccess(ctx context.Context, projectID, userID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM (`+accessibleProjects("$2")+`) acc WHERE acc.id = $1);`,
		projectID, userID,
	).Scan(&ok)
	if err != nil {
		return false, mapError(err, "check project access")
	}
	return ok, nil
}

func (r *pgProjectRepository) Statistics(ctx context.Context, projectID int64) (domain.ProjectStatistics, error) {
	stats := domain.ProjectStatistics{ProjectID: projectID}
	err := r.db.QueryRow(ctx, `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'open'),
               COUNT(*) FILTER (WHERE status = 'in_progress'),
               COUNT(*) FILTER (WHERE status = 'resolved'),
               COUNT(*) FILTER (WHERE priority IN ('high', 'critical'))
        FROM bugs
        WHERE project_id = $1;`, projectID,
	).Scan(&stats.TotalBugs, &stats.OpenBugs, &stats.InProgressBugs, &stats.ResolvedBugs, &stats.HighPriorityBugs)
	if err != nil {
		return domain.ProjectStatistics{}, mapError(err, "get project statistics")
	}
	return stats, nil
}

func (r *pgProjectRepository) AddMember(ctx context.Context, projectID, userID int64) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO project_members (project_id, user_id)
        VALUES ($1, $2)
        ON CONFLICT (project_id, user_id) DO NOTHING;`, projectID, userID)
	if err != nil {
		return mapError(err, "add project member")
	}
	return nil
}

func (r *pgProjectRepository) RemoveMember(ctx context.Context, projectID, userID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2;`, projectID, userID)
	if err != nil {
		return mapError(err, "remove project member")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pgProjectRepository) ListMembers(ctx context.Context, projectID int64) ([]domain.ProjectMember, error) {
	rows, err := r.db.Query(ctx, `
        SELECT m.project_id, m.added_at, `+userColumns("u")+`
        FROM project_members m
        JOIN users u ON u.id = m.user_id
        WHERE m.project_id = $1
        ORDER BY m.added_at, u.id;`, projectID)
	if err != nil {
		return nil, mapError(err, "list project members")
	}
	defer rows.Close()

	members := []domain.ProjectMember{}
	for rows.Next() {
		var m domain.ProjectMember
		targets := append([]any{&m.ProjectID, &m.AddedAt}, userScanTargets(&m.User)...)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan project member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return members, nil
}
