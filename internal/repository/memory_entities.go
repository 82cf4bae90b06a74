package repository

import (
	"context"
	"slices"
	"strings"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

var errMissingReference = domain.ErrNotFound.WithMessage("referenced resource not found")

type memProjectRepository struct{ s *memoryStore }

func (r *memProjectRepository) Create(_ context.Context, project *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[project.Owner.ID]; !ok {
		return errMissingReference
	}
	now := r.s.tick()
	p := &memProject{
		id:          r.s.id("projects"),
		name:        project.Name,
		description: project.Description,
		ownerID:     project.Owner.ID,
		createdAt:   now,
		updatedAt:   now,
	}
	r.s.projects[p.id] = p
	project.ID, project.CreatedAt, project.UpdatedAt = p.id, p.createdAt, p.updatedAt
	return nil
}

func (r *memProjectRepository) Get(_ context.Context, id int64) (domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return domain.Project{}, domain.ErrNotFound
	}
	return r.s.projectView(p), nil
}

func (r *memProjectRepository) List(_ context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	projects := []domain.Project{}
	for _, p := range r.s.projects {
		if filter.AccessibleTo != 0 && !r.s.hasAccess(p.id, filter.AccessibleTo) {
			continue
		}
		if filter.Search != "" && !containsFold(p.name, filter.Search) && !containsFold(p.description, filter.Search) {
			continue
		}
		projects = append(projects, r.s.projectView(p))
	}

	sortByOrdering(projects, filter.Ordering, func(a, b domain.Project, field string) int {
		switch field {
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt)
		case "updated_at":
			return a.UpdatedAt.Compare(b.UpdatedAt)
		case "project_name":
			return strings.Compare(a.Name, b.Name)
		}
		return 0
	}, func(p domain.Project) int64 { return p.ID }, true)
	return projects, nil
}

func (r *memProjectRepository) Update(_ context.Context, project *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[project.ID]
	if !ok {
		return domain.ErrNotFound
	}
	p.name = project.Name
	p.description = project.Description
	p.updatedAt = r.s.tick()
	project.UpdatedAt = p.updatedAt
	return nil
}

func (r *memProjectRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[id]; !ok {
		return domain.ErrNotFound
	}
	r.s.deleteProject(id)
	return nil
}

func (r *memProjectRepository) HasAccess(_ context.Context, projectID, userID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.hasAccess(projectID, userID), nil
}

func (r *memProjectRepository) Statistics(_ context.Context, projectID int64) (domain.ProjectStatistics, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := domain.ProjectStatistics{ProjectID: projectID}
	for _, b := range r.s.bugs {
		if b.projectID != projectID {
			continue
		}
		stats.TotalBugs++
		switch b.status {
		case domain.StatusOpen:
			stats.OpenBugs++
		case domain.StatusInProgress:
			stats.InProgressBugs++
		case domain.StatusResolved:
			stats.ResolvedBugs++
		}
		if b.priority.IsHigh() {
			stats.HighPriorityBugs++
		}
	}
	return stats, nil
}

func (r *memProjectRepository) AddMember(_ context.Context, projectID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[projectID]; !ok {
		return errMissingReference
	}
	if _, ok := r.s.users[userID]; !ok {
		return errMissingReference
	}
	for _, m := range r.s.members {
		if m.projectID == projectID && m.userID == userID {
			return nil
		}
	}
	r.s.members = append(r.s.members, memMember{projectID: projectID, userID: userID, addedAt: r.s.tick()})
	return nil
}

func (r *memProjectRepository) RemoveMember(_ context.Context, projectID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	before := len(r.s.members)
	r.s.members = slices.DeleteFunc(r.s.members, func(m memMember) bool {
		return m.projectID == projectID && m.userID == userID
	})
	if len(r.s.members) == before {
		return domain.ErrNotFound
	}
	return nil
}

func (r *memProjectRepository) ListMembers(_ context.Context, projectID int64) ([]domain.ProjectMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	members := []domain.ProjectMember{}
	for _, m := range r.s.members {
		if m.projectID == projectID {
			members = append(members, domain.ProjectMember{
				ProjectID: m.projectID,
				User:      r.s.users[m.userID],
				AddedAt:   m.addedAt,
			})
		}
	}
	return members, nil
}

type memBugRepository struct{ s *memoryStore }

func (r *memBugRepository) checkRefs(bug *domain.Bug) error {
	if _, ok := r.s.projects[bug.Project.ID]; !ok {
		return errMissingReference
	}
	if _, ok := r.s.users[bug.CreatedBy.ID]; !ok {
		return errMissingReference
	}
	if id := bug.AssigneeID(); id != 0 {
		if _, ok := r.s.users[id]; !ok {
			return errMissingReference
		}
	}
	return nil
}

func (r *memBugRepository) Create(_ context.Context, bug *domain.Bug) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkRefs(bug); err != nil {
		return err
	}
	now := r.s.tick()
	b := &memBug{
		id:           r.s.id("bugs"),
		title:        bug.Title,
		description:  bug.Description,
		status:       bug.Status,
		priority:     bug.Priority,
		assignedToID: bug.AssigneeID(),
		projectID:    bug.Project.ID,
		createdByID:  bug.CreatedBy.ID,
		createdAt:    now,
		updatedAt:    now,
	}
	r.s.bugs[b.id] = b
	bug.ID, bug.CreatedAt, bug.UpdatedAt = b.id, b.createdAt, b.updatedAt
	return nil
}

func (r *memBugRepository) Get(_ context.Context, id int64) (domain.Bug, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bugs[id]
	if !ok {
		return domain.Bug{}, domain.ErrNotFound
	}
	return r.s.bugView(b), nil
}

func (r *memBugRepository) List(_ context.Context, filter domain.BugFilter) ([]domain.Bug, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	bugs := []domain.Bug{}
	for _, b := range r.s.bugs {
		switch {
		case filter.AccessibleTo != 0 && !r.s.hasAccess(b.projectID, filter.AccessibleTo),
			filter.Status != "" && b.status != filter.Status,
			filter.Priority != "" && b.priority != filter.Priority,
			filter.ProjectID != nil && b.projectID != *filter.ProjectID,
			filter.AssignedTo != nil && b.assignedToID != *filter.AssignedTo,
			filter.CreatedBy != nil && b.createdByID != *filter.CreatedBy,
			filter.Search != "" && !containsFold(b.title, filter.Search) && !containsFold(b.description, filter.Search):
			continue
		}
		bugs = append(bugs, r.s.bugView(b))
	}

	sortByOrdering(bugs, filter.Ordering, func(a, b domain.Bug, field string) int {
		switch field {
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt)
		case "updated_at":
			return a.UpdatedAt.Compare(b.UpdatedAt)
		case "bug_priority":
			return priorityRankOf(a.Priority) - priorityRankOf(b.Priority)
		}
		return 0
	}, func(b domain.Bug) int64 { return b.ID }, true)
	return bugs, nil
}

func (r *memBugRepository) Update(_ context.Context, bug *domain.Bug) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bugs[bug.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if id := bug.AssigneeID(); id != 0 {
		if _, ok := r.s.users[id]; !ok {
			return errMissingReference
		}
	}
	if _, ok := r.s.projects[bug.Project.ID]; !ok {
		return errMissingReference
	}
	b.title = bug.Title
	b.description = bug.Description
	b.status = bug.Status
	b.priority = bug.Priority
	b.assignedToID = bug.AssigneeID()
	b.projectID = bug.Project.ID
	b.updatedAt = r.s.tick()
	bug.UpdatedAt = b.updatedAt
	return nil
}

func (r *memBugRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.bugs[id]; !ok {
		return domain.ErrNotFound
	}
	r.s.deleteBug(id)
	return nil
}

type memCommentRepository struct{ s *memoryStore }

func (r *memCommentRepository) Create(_ context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.bugs[comment.BugID]; !ok {
		return errMissingReference
	}
	if _, ok := r.s.users[comment.Commenter.ID]; !ok {
		return errMissingReference
	}
	now := r.s.tick()
	c := &memComment{
		id:        r.s.id("comments"),
		bugID:     comment.BugID,
		userID:    comment.Commenter.ID,
		message:   comment.Message,
		createdAt: now,
		updatedAt: now,
	}
	r.s.comments[c.id] = c
	comment.ID, comment.CreatedAt, comment.UpdatedAt = c.id, c.createdAt, c.updatedAt
	return nil
}

func (r *memCommentRepository) Get(_ context.Context, id int64) (domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.comments[id]
	if !ok {
		return domain.Comment{}, domain.ErrNotFound
	}
	return r.s.commentView(c), nil
}

func (r *memCommentRepository) List(_ context.Context, filter domain.CommentFilter) ([]domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	comments := []domain.Comment{}
	for _, c := range r.s.comments {
		if filter.BugID != nil && c.bugID != *filter.BugID {
			continue
		}
		view := r.s.commentView(c)
		if filter.AccessibleTo != 0 && !r.s.hasAccess(view.ProjectID, filter.AccessibleTo) {
			continue
		}
		comments = append(comments, view)
	}

	sortByOrdering(comments, filter.Ordering, func(a, b domain.Comment, field string) int {
		if field == "created_at" {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return 0
	}, func(c domain.Comment) int64 { return c.ID }, false)
	return comments, nil
}

func (r *memCommentRepository) Update(_ context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.comments[comment.ID]
	if !ok {
		return domain.ErrNotFound
	}
	c.message = comment.Message
	c.updatedAt = r.s.tick()
	comment.UpdatedAt = c.updatedAt
	return nil
}

func (r *memCommentRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.comments, id)
	return nil
}

type memActivityRepository struct{ s *memoryStore }

func (r *memActivityRepository) Create(_ context.Context, activity *domain.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[activity.Project.ID]; !ok {
		return errMissingReference
	}
	if _, ok := r.s.users[activity.User.ID]; !ok {
		return errMissingReference
	}
	if activity.BugID != nil {
		if _, ok := r.s.bugs[*activity.BugID]; !ok {
			return errMissingReference
		}
	}
	a := &memActivity{
		id:           r.s.id("activities"),
		activityType: activity.Type,
		description:  activity.Description,
		projectID:    activity.Project.ID,
		userID:       activity.User.ID,
		createdAt:    r.s.tick(),
	}
	if activity.BugID != nil {
		id := *activity.BugID
		a.bugID = &id
	}
	r.s.activities[a.id] = a
	activity.ID, activity.CreatedAt = a.id, a.createdAt
	return nil
}

func (r *memActivityRepository) Get(_ context.Context, id int64) (domain.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.activities[id]
	if !ok {
		return domain.Activity{}, domain.ErrNotFound
	}
	return r.s.activityView(a), nil
}

func (r *memActivityRepository) List(_ context.Context, filter domain.ActivityFilter) ([]domain.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	activities := []domain.Activity{}
	for _, a := range r.s.activities {
		switch {
		case filter.AccessibleTo != 0 && !r.s.hasAccess(a.projectID, filter.AccessibleTo),
			filter.ProjectID != nil && a.projectID != *filter.ProjectID,
			filter.BugID != nil && (a.bugID == nil || *a.bugID != *filter.BugID),
			filter.Type != "" && a.activityType != filter.Type:
			continue
		}
		activities = append(activities, r.s.activityView(a))
	}

	sortByOrdering(activities, filter.Ordering, func(a, b domain.Activity, field string) int {
		if field == "created_at" {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return 0
	}, func(a domain.Activity) int64 { return a.ID }, true)
	return activities, nil
}
