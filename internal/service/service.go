package service

import (
	"github.com/Tyrowin/bugtracker/internal/auth"
	"github.com/Tyrowin/bugtracker/internal/repository"
)

// Services bundles every service over one set of repositories.
type Services struct {
	Auth       *Auth
	Projects   *Projects
	Bugs       *Bugs
	Comments   *Comments
	Activities *Activities
}

func New(repos repository.Repositories, tokens *auth.Issuer, notifier Notifier) *Services {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	log := NewActivityLog(repos.Activities, notifier)
	return &Services{
		Auth:       NewAuth(repos.Users, tokens),
		Projects:   NewProjects(repos, log),
		Bugs:       NewBugs(repos, log, notifier),
		Comments:   NewComments(repos, log, notifier),
		Activities: NewActivities(repos),
	}
}
