package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

type memProject struct {
	id          int64
	name        string
	description string
	ownerID     int64
	createdAt   time.Time
	updatedAt   time.Time
}

type memBug struct {
	id           int64
	title        string
	description  string
	status       domain.BugStatus
	priority     domain.BugPriority
	assignedToID int64
	projectID    int64
	createdByID  int64
	createdAt    time.Time
	updatedAt    time.Time
}

type memComment struct {
	id        int64
	bugID     int64
	userID    int64
	message   string
	createdAt time.Time
	updatedAt time.Time
}

type memActivity struct {
	id           int64
	activityType domain.ActivityType
	description  string
	projectID    int64
	userID       int64
	bugID        *int64
	createdAt    time.Time
}

type memMember struct {
	projectID int64
	userID    int64
	addedAt   time.Time
}

// memoryStore keeps every table behind one lock and mirrors the relational
// rules of the Postgres schema: unique usernames, cascading deletes and
// SET NULL on removed assignees.
type memoryStore struct {
	mu sync.RWMutex

	users      map[int64]domain.User
	projects   map[int64]*memProject
	bugs       map[int64]*memBug
	comments   map[int64]*memComment
	activities map[int64]*memActivity
	members    []memMember

	nextID   map[string]int64
	lastTick time.Time
	now      func() time.Time
}

// NewMemoryRepositories returns repositories backed by a shared in-process
// store. Data is lost when the process exits.
func NewMemoryRepositories() Repositories {
	s := &memoryStore{
		users:      make(map[int64]domain.User),
		projects:   make(map[int64]*memProject),
		bugs:       make(map[int64]*memBug),
		comments:   make(map[int64]*memComment),
		activities: make(map[int64]*memActivity),
		nextID:     make(map[string]int64),
		now:        time.Now,
	}
	return Repositories{
		Users:      &memUserRepository{s},
		Projects:   &memProjectRepository{s},
		Bugs:       &memBugRepository{s},
		Comments:   &memCommentRepository{s},
		Activities: &memActivityRepository{s},
	}
}

func (s *memoryStore) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

// tick returns a strictly increasing timestamp so that ordering by time is
// stable even when records are created within the same clock reading.
func (s *memoryStore) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.lastTick) {
		t = s.lastTick.Add(time.Microsecond)
	}
	s.lastTick = t
	return t
}

func (s *memoryStore) hasAccess(projectID, userID int64) bool {
	p, ok := s.projects[projectID]
	if !ok {
		return false
	}
	if p.ownerID == userID {
		return true
	}
	for _, m := range s.members {
		if m.projectID == projectID && m.userID == userID {
			return true
		}
	}
	for _, b := range s.bugs {
		if b.projectID == projectID && (b.createdByID == userID || b.assignedToID == userID) {
			return true
		}
	}
	return false
}

func (s *memoryStore) projectView(p *memProject) domain.Project {
	view := domain.Project{
		ID:          p.id,
		Name:        p.name,
		Description: p.description,
		Owner:       s.users[p.ownerID],
		CreatedAt:   p.createdAt,
		UpdatedAt:   p.updatedAt,
	}
	for _, b := range s.bugs {
		if b.projectID != p.id {
			continue
		}
		view.TotalBugsCount++
		if b.status == domain.StatusOpen {
			view.OpenBugsCount++
		}
	}
	return view
}

func (s *memoryStore) projectRef(id int64) domain.ProjectRef {
	p := s.projects[id]
	if p == nil {
		return domain.ProjectRef{ID: id}
	}
	return domain.ProjectRef{ID: p.id, Name: p.name, OwnerID: p.ownerID}
}

func (s *memoryStore) bugView(b *memBug) domain.Bug {
	view := domain.Bug{
		ID:          b.id,
		Title:       b.title,
		Description: b.description,
		Status:      b.status,
		Priority:    b.priority,
		Project:     s.projectRef(b.projectID),
		CreatedBy:   s.users[b.createdByID],
		CreatedAt:   b.createdAt,
		UpdatedAt:   b.updatedAt,
	}
	if u, ok := s.users[b.assignedToID]; ok {
		view.AssignedTo = &u
	}
	for _, c := range s.comments {
		if c.bugID == b.id {
			view.CommentsCount++
		}
	}
	return view
}

func (s *memoryStore) commentView(c *memComment) domain.Comment {
	view := domain.Comment{
		ID:        c.id,
		BugID:     c.bugID,
		Commenter: s.users[c.userID],
		Message:   c.message,
		CreatedAt: c.createdAt,
		UpdatedAt: c.updatedAt,
	}
	if b, ok := s.bugs[c.bugID]; ok {
		view.BugTitle = b.title
		view.ProjectID = b.projectID
	}
	return view
}

func (s *memoryStore) activityView(a *memActivity) domain.Activity {
	view := domain.Activity{
		ID:          a.id,
		Type:        a.activityType,
		Description: a.description,
		User:        s.users[a.userID],
		Project:     s.projectRef(a.projectID),
		CreatedAt:   a.createdAt,
	}
	if a.bugID != nil {
		id := *a.bugID
		view.BugID = &id
	}
	return view
}

func (s *memoryStore) deleteBug(id int64) {
	delete(s.bugs, id)
	for cid, c := range s.comments {
		if c.bugID == id {
			delete(s.comments, cid)
		}
	}
	for aid, a := range s.activities {
		if a.bugID != nil && *a.bugID == id {
			delete(s.activities, aid)
		}
	}
}

func (s *memoryStore) deleteProject(id int64) {
	delete(s.projects, id)
	for bid, b := range s.bugs {
		if b.projectID == id {
			s.deleteBug(bid)
		}
	}
	for aid, a := range s.activities {
		if a.projectID == id {
			delete(s.activities, aid)
		}
	}
	s.members = slices.DeleteFunc(s.members, func(m memMember) bool { return m.projectID == id })
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func priorityRankOf(p domain.BugPriority) int {
	switch p {
	case domain.PriorityLow:
		return 0
	case domain.PriorityMedium:
		return 1
	case domain.PriorityHigh:
		return 2
	default:
		return 3
	}
}

// sortByOrdering sorts items on the ordering field and breaks ties by id.
func sortByOrdering[T any](items []T, o domain.Ordering, compare func(a, b T, field string) int, id func(T) int64, idDesc bool) {
	slices.SortStableFunc(items, func(a, b T) int {
		if c := compare(a, b, o.Field); c != 0 {
			if o.Desc {
				return -c
			}
			return c
		}
		if idDesc {
			return cmp.Compare(id(b), id(a))
		}
		return cmp.Compare(id(a), id(b))
	})
}

type memUserRepository struct{ s *memoryStore }

func (r *memUserRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == user.Username {
			return domain.ErrConflict
		}
	}
	user.ID = r.s.id("users")
	user.CreatedAt = r.s.tick()
	r.s.users[user.ID] = *user
	return nil
}

func (r *memUserRepository) GetByID(_ context.Context, id int64) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (r *memUserRepository) GetByUsername(_ context.Context, username string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}
