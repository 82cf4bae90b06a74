package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

// fixture is a small tracker: alice owns a project, bob is a member, carol
// reports a bug in it and dave is a stranger.
type fixture struct {
	repos                   Repositories
	alice, bob, carol, dave domain.User
	project                 domain.Project
	bug                     domain.Bug
}

func newFixture(t *testing.T, repos Repositories) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{repos: repos}

	for _, u := range []*domain.User{&f.alice, &f.bob, &f.carol, &f.dave} {
		*u = domain.User{PasswordHash: "x"}
	}
	f.alice.Username, f.bob.Username, f.carol.Username, f.dave.Username = "alice", "bob", "carol", "dave"
	for _, u := range []*domain.User{&f.alice, &f.bob, &f.carol, &f.dave} {
		require.NoError(t, repos.Users.Create(ctx, u))
	}

	f.project = domain.Project{Name: "Tracker", Description: "Issue tracking", Owner: f.alice}
	require.NoError(t, repos.Projects.Create(ctx, &f.project))
	require.NoError(t, repos.Projects.AddMember(ctx, f.project.ID, f.bob.ID))

	f.bug = domain.Bug{
		Title:     "Login fails",
		Status:    domain.StatusOpen,
		Priority:  domain.PriorityHigh,
		Project:   f.project.Ref(),
		CreatedBy: f.carol,
	}
	require.NoError(t, repos.Bugs.Create(ctx, &f.bug))
	return f
}

// runRepositoryContract checks behaviour every backend must share.
func runRepositoryContract(t *testing.T, newRepos func(t *testing.T) Repositories) {
	t.Run("users", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, newRepos(t))

		got, err := f.repos.Users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, f.alice.ID, got.ID)
		assert.Equal(t, "x", got.PasswordHash)

		dup := domain.User{Username: "alice", PasswordHash: "y"}
		assert.ErrorIs(t, f.repos.Users.Create(ctx, &dup), domain.ErrConflict)

		_, err = f.repos.Users.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("project access", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, newRepos(t))

		for _, tc := range []struct {
			name string
			user domain.User
			want bool
		}{
			{"owner", f.alice, true},
			{"member", f.bob, true},
			{"reporter", f.carol, true},
			{"stranger", f.dave, false},
		} {
			ok, err := f.repos.Projects.HasAccess(ctx, f.project.ID, tc.user.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok, tc.name)
		}

		f.bug.AssignedTo = &f.dave
		require.NoError(t, f.repos.Bugs.Update(ctx, &f.bug))
		ok, err := f.repos.Projects.HasAccess(ctx, f.project.ID, f.dave.ID)
		require.NoError(t, err)
		assert.True(t, ok, "assignee gains access")

		require.NoError(t, f.repos.Projects.RemoveMember(ctx, f.project.ID, f.bob.ID))
		ok, err = f.repos.Projects.HasAccess(ctx, f.project.ID, f.bob.ID)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.ErrorIs(t, f.repos.Projects.RemoveMember(ctx, f.project.ID, f.bob.ID), domain.ErrNotFound)
	})

	t.Run("project listing", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, newRepos(t))

		other := domain.Project{Name: "Website", Description: "Marketing site", Owner: f.dave}
		require.NoError(t, f.repos.Projects.Create(ctx, &other))

		all, err := f.repos.Projects.List(ctx, domain.ProjectFilter{Ordering: domain.DefaultProjectOrdering})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, other.ID, all[0].ID, "newest first")

		mine, err := f.repos.Projects.List(ctx, domain.ProjectFilter{AccessibleTo: f.bob.ID})
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, f.project.ID, mine[0].ID)
		assert.Equal(t, 1, mine[0].TotalBugsCount)
		assert.Equal(t, 1, mine[0].OpenBugsCount)
		assert.Equal(t, "alice", mine[0].Owner.Username)

		found, err := f.repos.Projects.List(ctx, domain.ProjectFilter{Search: "MARKETING"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, other.ID, found[0].ID)

		sale := domain.Project{Name: "Sale 50%_off", Owner: f.dave}
		require.NoError(t, f.repos.Projects.Create(ctx, &sale))
		literal, err := f.repos.Projects.List(ctx, domain.ProjectFilter{Search: "50%_OFF"})
		require.NoError(t, err)
		require.Len(t, literal, 1)
		assert.Equal(t, sale.ID, literal[0].ID)
		for _, pattern := range []string{"%", "_", "T%r", `\`} {
			hits, err := f.repos.Projects.List(ctx, domain.ProjectFilter{Search: pattern})
			require.NoError(t, err)
			if pattern == "%" || pattern == "_" {
				assert.Len(t, hits, 1, "pattern %q", pattern)
			} else {
				assert.Empty(t, hits, "pattern %q", pattern)
			}
		}
		require.NoError(t, f.repos.Projects.Delete(ctx, sale.ID))

		byName, err := f.repos.Projects.List(ctx, domain.ProjectFilter{Ordering: domain.Ordering{Field: "project_name"}})
		require.NoError(t, err)
		assert.Equal(t, "Tracker", byName[0].Name)
	})

	t.Run("bugs", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, newRepos(t))

		low := domain.Bug{
			Title: "Typo", Description: "footer typo", Status: domain.StatusResolved, Priority: domain.PriorityLow,
			Project: f.project.Ref(), CreatedBy: f.alice, AssignedTo: &f.bob,
		}
		require.NoError(t, f.repos.Bugs.Create(ctx, &low))

		got, err := f.repos.Bugs.Get(ctx, low.ID)
		require.NoError(t, err)
		require.NotNil(t, got.AssignedTo)
		assert.Equal(t, "bob", got.AssignedTo.Username)
		assert.Equal(t, f.alice.ID, got.Project.OwnerID)

		assigned, err := f.repos.Bugs.List(ctx, domain.BugFilter{AssignedTo: &f.bob.ID})
		require.NoError(t, err)
		require.Len(t, assigned, 1)
		assert.Equal(t, low.ID, assigned[0].ID)

		open, err := f.repos.Bugs.List(ctx, domain.BugFilter{Status: domain.StatusOpen})
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.Equal(t, f.bug.ID, open[0].ID)

		search, err := f.repos.Bugs.List(ctx, domain.BugFilter{Search: "FOOTER"})
		require.NoError(t, err)
		require.Len(t, search, 1)

		wildcard, err := f.repos.Bugs.List(ctx, domain.BugFilter{Search: "L_gin%"})
		require.NoError(t, err)
		assert.Empty(t, wildcard, "search matches literally")

		byPriority, err := f.repos.Bugs.List(ctx, domain.BugFilter{Ordering: domain.Ordering{Field: "bug_priority", Desc: true}})
		require.NoError(t, err)
		require.Len(t, byPriority, 2)
		assert.Equal(t, domain.PriorityHigh, byPriority[0].Priority)

		none, err := f.repos.Bugs.List(ctx, domain.BugFilter{AccessibleTo: f.dave.ID})
		require.NoError(t, err)
		assert.Empty(t, none)

		got.AssignedTo = nil
		got.Status = domain.StatusOpen
		require.NoError(t, f.repos.Bugs.Update(ctx, &got))
		got, err = f.repos.Bugs.Get(ctx, low.ID)
		require.NoError(t, err)
		assert.Nil(t, got.AssignedTo)
		assert.Equal(t, domain.StatusOpen, got.Status)

		stats, err := f.repos.Projects.Statistics(ctx, f.project.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalBugs)
		assert.Equal(t, 2, stats.OpenBugs)
		assert.Equal(t, 1, stats.HighPriorityBugs)

		docs := domain.Project{Name: "Docs", Owner: f.alice}
		require.NoError(t, f.repos.Projects.Create(ctx, &docs))
		got.Project = docs.Ref()
		require.NoError(t, f.repos.Bugs.Update(ctx, &got))
		moved, err := f.repos.Bugs.Get(ctx, low.ID)
		require.NoError(t, err)
		assert.Equal(t, docs.ID, moved.Project.ID)
		assert.Equal(t, "Docs", moved.Project.Name)

		require.NoError(t, f.repos.Bugs.Delete(ctx, low.ID))
		assert.ErrorIs(t, f.repos.Bugs.Delete(ctx, low.ID), domain.ErrNotFound)
	})

	t.Run("comments and activities", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, newRepos(t))

		first := domain.Comment{BugID: f.bug.ID, Commenter: f.alice, Message: "first"}
		second := domain.Comment{BugID: f.bug.ID, Commenter: f.carol, Message: "second"}
		require.NoError(t, f.repos.Comments.Create(ctx, &first))
		require.NoError(t, f.repos.Comments.Create(ctx, &second))

		comments, err := f.repos.Comments.List(ctx, domain.CommentFilter{BugID: &f.bug.ID, Ordering: domain.DefaultCommentOrdering})
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, "first", comments[0].Message, "oldest first")
		assert.Equal(t, f.bug.Title, comments[0].BugTitle)
		assert.Equal(t, f.project.ID, comments[0].ProjectID)

		bug, err := f.repos.Bugs.Get(ctx, f.bug.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, bug.CommentsCount)

		first.Message = "edited"
		require.NoError(t, f.repos.Comments.Update(ctx, &first))
		got, err := f.repos.Comments.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Message)

		bugID := f.bug.ID
		act := domain.Activity{
			Type: domain.ActivityBugCreated, Description: "created", User: f.carol,
			Project: f.project.Ref(), BugID: &bugID,
		}
		require.NoError(t, f.repos.Activities.Create(ctx, &act))
		projectAct := domain.Activity{
			Type: domain.ActivityProjectUpdated, Description: "updated", User: f.alice, Project: f.project.Ref(),
		}
		require.NoError(t, f.repos.Activities.Create(ctx, &projectAct))

		acts, err := f.repos.Activities.List(ctx, domain.ActivityFilter{BugID: &bugID})
		require.NoError(t, err)
		require.Len(t, acts, 1)
		assert.Equal(t, domain.ActivityBugCreated, acts[0].Type)
		assert.Equal(t, "Tracker", acts[0].Project.Name)

		acts, err = f.repos.Activities.List(ctx, domain.ActivityFilter{
			AccessibleTo: f.bob.ID, Ordering: domain.DefaultActivityOrdering,
		})
		require.NoError(t, err)
		require.Len(t, acts, 2)
		assert.Equal(t, projectAct.ID, acts[0].ID, "newest first")

		require.NoError(t, f.repos.Projects.Delete(ctx, f.project.ID))
		_, err = f.repos.Comments.Get(ctx, first.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = f.repos.Activities.Get(ctx, act.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
