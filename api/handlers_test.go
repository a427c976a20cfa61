package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"board-relay/domain"
	"board-relay/relay"
)

type fakeAuth struct{ userID string }

func (f fakeAuth) UserIDFromAuthHeader(h string) (string, error) {
	if h == "" {
		return "", errors.New("missing authorization header")
	}
	return f.userID, nil
}

type fakeSnapshots struct {
	tasks []domain.Task
	ok    bool
	err   error
}

func (f *fakeSnapshots) LoadTasks(context.Context, string) ([]domain.Task, bool, error) {
	return f.tasks, f.ok, f.err
}

func testLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func TestHealthz(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := healthz()(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestGetTasksRequiresAuth(t *testing.T) {
	rl := relay.New(testLogger(), nil, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := getTasks(rl, fakeAuth{userID: "u1"}, nil, testLogger())(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestGetTasksServesSnapshotHit(t *testing.T) {
	rl := relay.New(testLogger(), nil, nil)
	snaps := &fakeSnapshots{tasks: []domain.Task{{ID: "t1", UserID: "u1", Title: "cached"}}, ok: true}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer x")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := getTasks(rl, fakeAuth{userID: "u1"}, snaps, testLogger())(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	var resp tasksResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].Title != "cached" {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestGetTasksFallsBackToRelayOnMissOrError(t *testing.T) {
	rl := relay.New(testLogger(), nil, nil)
	c0 := relay.NewClient(4)
	rl.Bind(c0, "u1")
	rl.Dispatch(c0, domain.Command{Type: domain.CreateTask, Draft: domain.Draft{Title: "live"}})

	for _, snaps := range []*fakeSnapshots{
		{ok: false},
		{err: errors.New("redis down")},
	} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer x")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := getTasks(rl, fakeAuth{userID: "u1"}, snaps, testLogger())(c); err != nil {
			t.Fatalf("handler: %v", err)
		}
		var resp tasksResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(resp.Tasks) != 1 || resp.Tasks[0].Title != "live" {
			t.Fatalf("expected relay fallback, got %#v", resp)
		}
	}
}
