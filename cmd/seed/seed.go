package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tyrowin/bugtracker/internal/auth"
	"github.com/Tyrowin/bugtracker/internal/domain"
	"github.com/Tyrowin/bugtracker/internal/repository"
	"github.com/Tyrowin/bugtracker/internal/service"
)

const (
	adminPassword = "admin123"
	userPassword  = "password123"
)

// summary counts what one run created. Rows found from an earlier run are
// not counted.
type summary struct {
	Users, Projects, Bugs, Comments, Activities int
}

// Empty reports whether the run found everything already in place.
func (s summary) Empty() bool {
	return s == summary{}
}

type seedUser struct {
	username, email, first, last string
}

var developers = []seedUser{
	{"developer1", "dev1@example.com", "John", "Developer"},
	{"developer2", "dev2@example.com", "Jane", "Coder"},
	{"tester1", "tester1@example.com", "Bob", "Tester"},
}

// seed loads the demo users, projects, bugs and comments, recording an
// activity for each project, bug and comment it creates. Each row is looked
// up by its natural key first, so a run that failed halfway is completed by
// the next one.
func seed(ctx context.Context, repos repository.Repositories) (summary, error) {
	var sum summary

	log := service.NewActivityLog(repos.Activities, nil)
	record := func(kind domain.ActivityType, description string, user domain.User, project domain.ProjectRef, bugID *int64) {
		log.Record(ctx, kind, description, user, project, bugID)
		sum.Activities++
	}

	newUser := func(u seedUser, password string, staff bool) (domain.User, error) {
		existing, err := repos.Users.GetByUsername(ctx, u.username)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, fmt.Errorf("failed to look up user %s: %w", u.username, err)
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return domain.User{}, err
		}
		user := domain.User{
			Username:     u.username,
			Email:        u.email,
			FirstName:    u.first,
			LastName:     u.last,
			IsStaff:      staff,
			PasswordHash: hash,
		}
		if err := repos.Users.Create(ctx, &user); err != nil {
			return domain.User{}, fmt.Errorf("failed to create user %s: %w", u.username, err)
		}
		sum.Users++
		return user, nil
	}

	admin, err := newUser(seedUser{"admin", "admin@example.com", "Admin", "User"}, adminPassword, true)
	if err != nil {
		return sum, err
	}
	users := make([]domain.User, 0, len(developers))
	for _, u := range developers {
		user, err := newUser(u, userPassword, false)
		if err != nil {
			return sum, err
		}
		users = append(users, user)
	}
	dev1, dev2, tester := users[0], users[1], users[2]

	newProject := func(name, description string, owner domain.User) (domain.Project, error) {
		found, err := repos.Projects.List(ctx, domain.ProjectFilter{Search: name, Ordering: domain.DefaultProjectOrdering})
		if err != nil {
			return domain.Project{}, fmt.Errorf("failed to look up project %s: %w", name, err)
		}
		for _, p := range found {
			if p.Name == name && p.Owner.ID == owner.ID {
				return p, nil
			}
		}

		project := domain.Project{Name: name, Description: description, Owner: owner}
		if err := repos.Projects.Create(ctx, &project); err != nil {
			return domain.Project{}, fmt.Errorf("failed to create project %s: %w", name, err)
		}
		sum.Projects++
		record(domain.ActivityProjectCreated,
			fmt.Sprintf("Project '%s' was created", name), owner, project.Ref(), nil)
		return project, nil
	}

	shop, err := newProject("E-commerce Platform", "A modern e-commerce platform with payment integration", admin)
	if err != nil {
		return sum, err
	}
	mobile, err := newProject("Mobile App", "Cross-platform mobile application for iOS and Android", admin)
	if err != nil {
		return sum, err
	}
	gateway, err := newProject("API Gateway", "Microservices API gateway with authentication and rate limiting", dev1)
	if err != nil {
		return sum, err
	}

	newBug := func(title, description string, status domain.BugStatus, priority domain.BugPriority,
		project domain.Project, creator, assignee domain.User) (domain.Bug, error) {
		found, err := repos.Bugs.List(ctx, domain.BugFilter{
			ProjectID: &project.ID,
			Search:    title,
			Ordering:  domain.DefaultBugOrdering,
		})
		if err != nil {
			return domain.Bug{}, fmt.Errorf("failed to look up bug %s: %w", title, err)
		}
		for _, b := range found {
			if b.Title == title {
				return b, nil
			}
		}

		bug := domain.Bug{
			Title:       title,
			Description: description,
			Status:      status,
			Priority:    priority,
			Project:     project.Ref(),
			CreatedBy:   creator,
			AssignedTo:  &assignee,
		}
		if err := repos.Bugs.Create(ctx, &bug); err != nil {
			return domain.Bug{}, fmt.Errorf("failed to create bug %s: %w", title, err)
		}
		sum.Bugs++
		record(domain.ActivityBugCreated,
			fmt.Sprintf("Bug '%s' was created", title), creator, bug.Project, &bug.ID)
		return bug, nil
	}

	login, err := newBug("Login page not responsive",
		"The login page breaks on mobile devices with screen width less than 768px",
		domain.StatusOpen, domain.PriorityHigh, shop, dev1, dev2)
	if err != nil {
		return sum, err
	}
	payment, err := newBug("Payment gateway timeout",
		"Users experiencing timeout errors when processing payments with PayPal",
		domain.StatusInProgress, domain.PriorityCritical, shop, tester, dev1)
	if err != nil {
		return sum, err
	}
	crash, err := newBug("App crashes on startup",
		"Application crashes immediately after launch on Android 12 devices",
		domain.StatusResolved, domain.PriorityHigh, mobile, dev2, dev1)
	if err != nil {
		return sum, err
	}
	rateLimit, err := newBug("API rate limiting not working",
		"Rate limiting middleware is not properly limiting requests per IP",
		domain.StatusOpen, domain.PriorityMedium, gateway, admin, dev2)
	if err != nil {
		return sum, err
	}

	comments := []struct {
		bug       domain.Bug
		commenter domain.User
		message   string
	}{
		{crash, dev2, "I can reproduce this issue on my iPhone 13. The app crashes immediately after the splash screen."},
		{payment, admin, "This is a critical issue affecting our production environment. Please prioritize this fix."},
		{rateLimit, dev2, "I've started investigating the rate limiting issue. It seems to be related to the Redis configuration."},
		{login, dev1, "The login page works fine on my end. Can you provide more details about the specific device and browser?"},
	}
	for _, c := range comments {
		exists, err := hasComment(ctx, repos.Comments, c.bug.ID, c.commenter.ID, c.message)
		if err != nil {
			return sum, err
		}
		if exists {
			continue
		}

		comment := domain.Comment{BugID: c.bug.ID, Commenter: c.commenter, Message: c.message}
		if err := repos.Comments.Create(ctx, &comment); err != nil {
			return sum, fmt.Errorf("failed to create comment on %s: %w", c.bug.Title, err)
		}
		sum.Comments++
		record(domain.ActivityCommentAdded,
			fmt.Sprintf("Comment added to bug '%s'", c.bug.Title), c.commenter, c.bug.Project, &c.bug.ID)
	}
	return sum, nil
}

func hasComment(ctx context.Context, comments repository.CommentRepository, bugID, commenterID int64, message string) (bool, error) {
	found, err := comments.List(ctx, domain.CommentFilter{BugID: &bugID, Ordering: domain.DefaultCommentOrdering})
	if err != nil {
		return false, fmt.Errorf("failed to look up comments on bug %d: %w", bugID, err)
	}
	for _, c := range found {
		if c.Commenter.ID == commenterID && c.Message == message {
			return true, nil
		}
	}
	return false, nil
}
