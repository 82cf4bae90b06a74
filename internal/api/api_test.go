package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/bugtracker/internal/auth"
	"github.com/Tyrowin/bugtracker/internal/domain"
	"github.com/Tyrowin/bugtracker/internal/repository"
	"github.com/Tyrowin/bugtracker/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	svcs := service.New(repos, auth.NewIssuer("secret", "test", time.Minute, time.Hour), nil)
	srv := httptest.NewServer(Wrap(NewRouter(Services{
		Auth:       svcs.Auth,
		Projects:   svcs.Projects,
		Bugs:       svcs.Bugs,
		Comments:   svcs.Comments,
		Activities: svcs.Activities,
	})))
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, out
}

func (c *client) decode(method, path string, body any, wantStatus int, dst any) {
	c.t.Helper()
	status, out := c.do(method, path, body)
	require.Equal(c.t, wantStatus, status, string(out))
	if dst != nil {
		require.NoError(c.t, json.Unmarshal(out, dst))
	}
}

func signUp(t *testing.T, srv *httptest.Server, username string) (*client, domain.User) {
	t.Helper()
	c := &client{t: t, base: srv.URL}

	var user domain.User
	c.decode(http.MethodPost, "/auth/register/", domain.RegisterRequest{
		Username: username,
		Password: "password123",
	}, http.StatusCreated, &user)

	var pair domain.TokenPair
	c.decode(http.MethodPost, "/auth/token/", domain.TokenRequest{
		Username: username,
		Password: "password123",
	}, http.StatusOK, &pair)
	c.token = pair.Access
	return c, user
}

func TestAPIRequiresAuthentication(t *testing.T) {
	srv := newTestServer(t)
	anon := &client{t: t, base: srv.URL}

	status, body := anon.do(http.MethodGet, "/api/projects/", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	var errResp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "UNAUTHORIZED", errResp.Error.Code)

	anon.token = "garbage"
	status, _ = anon.do(http.MethodGet, "/api/users/me/", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTokenEndpoints(t *testing.T) {
	srv := newTestServer(t)
	c, user := signUp(t, srv, "alice")

	var me domain.User
	c.decode(http.MethodGet, "/api/users/me", nil, http.StatusOK, &me)
	assert.Equal(t, user.ID, me.ID)

	var pair domain.TokenPair
	c.decode(http.MethodPost, "/auth/token/", domain.TokenRequest{Username: "alice", Password: "password123"}, http.StatusOK, &pair)

	var access domain.AccessToken
	c.decode(http.MethodPost, "/auth/token/refresh/", domain.RefreshRequest{Refresh: pair.Refresh}, http.StatusOK, &access)
	assert.NotEmpty(t, access.Access)

	c.decode(http.MethodPost, "/auth/token/verify/", domain.VerifyRequest{Token: access.Access}, http.StatusOK, nil)
	c.decode(http.MethodPost, "/auth/token/verify/", domain.VerifyRequest{Token: "nope"}, http.StatusUnauthorized, nil)
	c.decode(http.MethodPost, "/auth/token/", domain.TokenRequest{Username: "alice", Password: "bad-password"}, http.StatusUnauthorized, nil)

	status, _ := c.do(http.MethodPost, "/auth/register/", domain.RegisterRequest{Username: "alice", Password: "password123"})
	assert.Equal(t, http.StatusConflict, status)
}

func TestProjectAndBugLifecycle(t *testing.T) {
	srv := newTestServer(t)
	owner, _ := signUp(t, srv, "owner")
	member, memberUser := signUp(t, srv, "member")
	outsider, _ := signUp(t, srv, "outsider")

	var project domain.Project
	owner.decode(http.MethodPost, "/api/projects/", domain.CreateProjectRequest{
		Name:        "Tracker",
		Description: "Bug tracker",
	}, http.StatusCreated, &project)
	assert.Equal(t, "owner", project.Owner.Username)

	pid := itoa(project.ID)
	owner.decode(http.MethodPost, "/api/projects/"+pid+"/members/", domain.AddMemberRequest{UserID: memberUser.ID}, http.StatusCreated, nil)

	status, body := outsider.do(http.MethodPost, "/api/bugs/", domain.CreateBugRequest{Title: "Nope", ProjectID: project.ID})
	assert.Equal(t, http.StatusForbidden, status, string(body))

	var bug domain.Bug
	member.decode(http.MethodPost, "/api/bugs/", domain.CreateBugRequest{
		Title:     "Crash",
		Priority:  domain.PriorityCritical,
		ProjectID: project.ID,
	}, http.StatusCreated, &bug)
	assert.Equal(t, domain.StatusOpen, bug.Status)
	bid := itoa(bug.ID)

	var list domain.ListResponse[domain.Bug]
	member.decode(http.MethodGet, "/api/bugs/?priority=critical&ordering=-bug_priority", nil, http.StatusOK, &list)
	assert.Equal(t, 1, list.Count)

	outsider.decode(http.MethodGet, "/api/bugs/", nil, http.StatusOK, &list)
	assert.Equal(t, 0, list.Count)
	outsider.decode(http.MethodGet, "/api/bugs/"+bid+"/", nil, http.StatusNotFound, nil)

	member.decode(http.MethodGet, "/api/bugs/?status=bogus", nil, http.StatusBadRequest, nil)

	var updated domain.Bug
	owner.decode(http.MethodPatch, "/api/bugs/"+bid+"/", map[string]any{
		"bug_status":          "in_progress",
		"assigned_to_user_id": memberUser.ID,
	}, http.StatusOK, &updated)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	require.NotNil(t, updated.AssignedTo)

	member.decode(http.MethodGet, "/api/bugs/assigned_to_me/", nil, http.StatusOK, &list)
	assert.Equal(t, 1, list.Count)
	member.decode(http.MethodGet, "/api/bugs/created_by_me/", nil, http.StatusOK, &list)
	assert.Equal(t, 1, list.Count)

	owner.decode(http.MethodPatch, "/api/bugs/"+bid+"/", map[string]any{"assigned_to_user_id": nil}, http.StatusOK, &updated)
	assert.Nil(t, updated.AssignedTo)

	owner.decode(http.MethodPut, "/api/bugs/"+bid+"/", map[string]any{"bug_description": "no title"}, http.StatusBadRequest, nil)

	var stats domain.ProjectStatistics
	member.decode(http.MethodGet, "/api/projects/"+pid+"/statistics/", nil, http.StatusOK, &stats)
	assert.Equal(t, 1, stats.TotalBugs)
	assert.Equal(t, 1, stats.InProgressBugs)
	assert.Equal(t, 1, stats.HighPriorityBugs)

	var projectBugs domain.ListResponse[domain.Bug]
	member.decode(http.MethodGet, "/api/projects/"+pid+"/project_bugs/", nil, http.StatusOK, &projectBugs)
	assert.Equal(t, 1, projectBugs.Count)

	member.decode(http.MethodPatch, "/api/projects/"+pid+"/", map[string]any{"project_name": "Mine"}, http.StatusForbidden, nil)

	var renamed domain.Project
	owner.decode(http.MethodPut, "/api/projects/"+pid+"/", map[string]any{"project_name": "Tracker v2"}, http.StatusOK, &renamed)
	assert.Equal(t, "Tracker v2", renamed.Name)
	assert.Equal(t, 1, renamed.TotalBugsCount)

	var activities domain.ListResponse[domain.Activity]
	member.decode(http.MethodGet, "/api/activities/?project="+pid, nil, http.StatusOK, &activities)
	require.NotZero(t, activities.Count)
	assert.Equal(t, domain.ActivityProjectUpdated, activities.Results[0].Type, "newest first")

	owner.decode(http.MethodGet, "/api/activities/"+itoa(activities.Results[0].ID)+"/", nil, http.StatusOK, nil)
	outsider.decode(http.MethodGet, "/api/activities/"+itoa(activities.Results[0].ID)+"/", nil, http.StatusNotFound, nil)
	member.decode(http.MethodGet, "/api/activities/?activity_type=bogus", nil, http.StatusBadRequest, nil)

	member.decode(http.MethodDelete, "/api/bugs/"+bid+"/", nil, http.StatusNoContent, nil)
	owner.decode(http.MethodDelete, "/api/projects/"+pid+"/members/"+itoa(memberUser.ID)+"/", nil, http.StatusNoContent, nil)
	owner.decode(http.MethodDelete, "/api/projects/"+pid+"/", nil, http.StatusNoContent, nil)
	owner.decode(http.MethodGet, "/api/projects/"+pid+"/", nil, http.StatusNotFound, nil)
}

func TestComments(t *testing.T) {
	srv := newTestServer(t)
	owner, _ := signUp(t, srv, "owner")
	reporter, reporterUser := signUp(t, srv, "reporter")

	var project domain.Project
	owner.decode(http.MethodPost, "/api/projects", domain.CreateProjectRequest{Name: "P"}, http.StatusCreated, &project)
	owner.decode(http.MethodPost, "/api/projects/"+itoa(project.ID)+"/members", domain.AddMemberRequest{UserID: reporterUser.ID}, http.StatusCreated, nil)

	var bug domain.Bug
	reporter.decode(http.MethodPost, "/api/bugs", domain.CreateBugRequest{Title: "B", ProjectID: project.ID}, http.StatusCreated, &bug)

	var comment domain.Comment
	reporter.decode(http.MethodPost, "/api/comments/", domain.CreateCommentRequest{BugID: bug.ID, Message: "first"}, http.StatusCreated, &comment)
	owner.decode(http.MethodPost, "/api/comments/", domain.CreateCommentRequest{BugID: bug.ID, Message: "second"}, http.StatusCreated, nil)

	var comments domain.ListResponse[domain.Comment]
	owner.decode(http.MethodGet, "/api/comments/?bug="+itoa(bug.ID), nil, http.StatusOK, &comments)
	require.Equal(t, 2, comments.Count)
	assert.Equal(t, "first", comments.Results[0].Message)

	owner.decode(http.MethodGet, "/api/comments/?bug=abc", nil, http.StatusBadRequest, nil)

	cid := itoa(comment.ID)
	owner.decode(http.MethodPatch, "/api/comments/"+cid+"/", map[string]any{"comment_message": "hijack"}, http.StatusForbidden, nil)
	reporter.decode(http.MethodPut, "/api/comments/"+cid+"/", map[string]any{"comment_message": "edited"}, http.StatusOK, &comment)
	assert.Equal(t, "edited", comment.Message)

	var got domain.Bug
	reporter.decode(http.MethodGet, "/api/bugs/"+itoa(bug.ID), nil, http.StatusOK, &got)
	assert.Equal(t, 2, got.CommentsCount)

	owner.decode(http.MethodDelete, "/api/comments/"+cid+"/", nil, http.StatusNoContent, nil)
	reporter.decode(http.MethodGet, "/api/comments/"+cid+"/", nil, http.StatusNotFound, nil)
}

func TestRouterErrors(t *testing.T) {
	srv := newTestServer(t)
	c, _ := signUp(t, srv, "alice")

	c.decode(http.MethodGet, "/api/unknown/", nil, http.StatusNotFound, nil)
	c.decode(http.MethodPatch, "/api/projects/", nil, http.StatusMethodNotAllowed, nil)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/projects/", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, BearerToken(r))

	r.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", BearerToken(r))

	r.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, BearerToken(r))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
