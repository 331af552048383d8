package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nahid/tasklist/internal/auth"
	"github.com/nahid/tasklist/internal/handler"
	"github.com/nahid/tasklist/internal/model"
	"github.com/nahid/tasklist/internal/repository"
	"github.com/nahid/tasklist/internal/repository/sqlite"
	"github.com/nahid/tasklist/internal/service"
)

// taskFixture wires a TaskHandler to the real service over an in-memory
// SQLite store, with two users seeded so ownership cases can be exercised.
type taskFixture struct {
	handler *handler.TaskHandler
	svc     *service.TaskService
	userA   string
	userB   string
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("setup: sqlite.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	seed := func(email string) string {
		user := &model.User{Email: email}
		if err := db.Users().Create(context.Background(), user); err != nil {
			t.Fatalf("setup: seeding user %s: %v", email, err)
		}
		return user.ID
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := service.NewTaskService(db.Tasks(), logger)

	return &taskFixture{
		handler: handler.NewTaskHandler(svc, logger),
		svc:     svc,
		userA:   seed("a@example.com"),
		userB:   seed("b@example.com"),
	}
}

// authedRequest builds a request carrying userID in the context, the way the
// auth middleware would after validating the session cookie.
func authedRequest(method, target, userID string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func (f *taskFixture) createTask(t *testing.T, userID, title string, completed bool) *model.Task {
	t.Helper()
	task, err := f.svc.Create(context.Background(), userID, title, completed)
	if err != nil {
		t.Fatalf("setup: creating task: %v", err)
	}
	return task
}

func TestTaskHandler_HandleCreate(t *testing.T) {
	t.Run("valid task", func(t *testing.T) {
		f := newTaskFixture(t)

		req := authedRequest(http.MethodPost, "/api/tasks", f.userA, []byte(`{"title":"buy milk"}`))
		rr := httptest.NewRecorder()

		f.handler.HandleCreate(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var task model.Task
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&task))
		assert.Equal(t, "buy milk", task.Title)
		assert.Equal(t, f.userA, task.UserID)
		assert.False(t, task.Completed)
		assert.NotEmpty(t, task.ID)
	})

	t.Run("empty title", func(t *testing.T) {
		f := newTaskFixture(t)

		req := authedRequest(http.MethodPost, "/api/tasks", f.userA, []byte(`{"title":"   "}`))
		rr := httptest.NewRecorder()

		f.handler.HandleCreate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var errRes handler.ErrorResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
		assert.Equal(t, "validation_error", errRes.Error)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		f := newTaskFixture(t)

		req := authedRequest(http.MethodPost, "/api/tasks", f.userA, []byte(`{"title":`))
		rr := httptest.NewRecorder()

		f.handler.HandleCreate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("no user in context", func(t *testing.T) {
		f := newTaskFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString(`{"title":"x"}`))
		rr := httptest.NewRecorder()

		f.handler.HandleCreate(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestTaskHandler_HandleList(t *testing.T) {
	t.Run("returns only the caller's tasks, filter echoed", func(t *testing.T) {
		f := newTaskFixture(t)
		f.createTask(t, f.userA, "mine 1", false)
		f.createTask(t, f.userA, "mine 2", true)
		f.createTask(t, f.userB, "not mine", false)

		req := authedRequest(http.MethodGet, "/api/tasks", f.userA, nil)
		rr := httptest.NewRecorder()

		f.handler.HandleList(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var list struct {
			Tasks  []model.Task          `json:"tasks"`
			Filter repository.Filter     `json:"filter"`
			Counts repository.TaskCounts `json:"counts"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
		assert.Len(t, list.Tasks, 2)
		assert.Equal(t, repository.FilterAll, list.Filter)
		assert.Equal(t, repository.TaskCounts{Active: 1, Completed: 1}, list.Counts)
		for _, task := range list.Tasks {
			assert.Equal(t, f.userA, task.UserID)
		}
	})

	t.Run("active filter", func(t *testing.T) {
		f := newTaskFixture(t)
		f.createTask(t, f.userA, "open", false)
		f.createTask(t, f.userA, "done", true)

		req := authedRequest(http.MethodGet, "/api/tasks?filter=active", f.userA, nil)
		rr := httptest.NewRecorder()

		f.handler.HandleList(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var list struct {
			Tasks  []model.Task      `json:"tasks"`
			Filter repository.Filter `json:"filter"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
		assert.Len(t, list.Tasks, 1)
		assert.Equal(t, "open", list.Tasks[0].Title)
		assert.Equal(t, repository.FilterActive, list.Filter)
	})

	t.Run("unknown filter falls back to all", func(t *testing.T) {
		f := newTaskFixture(t)
		f.createTask(t, f.userA, "one", false)

		req := authedRequest(http.MethodGet, "/api/tasks?filter=bogus", f.userA, nil)
		rr := httptest.NewRecorder()

		f.handler.HandleList(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var list struct {
			Tasks  []model.Task      `json:"tasks"`
			Filter repository.Filter `json:"filter"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
		assert.Len(t, list.Tasks, 1)
		assert.Equal(t, repository.FilterAll, list.Filter)
	})

	t.Run("empty list is an empty array, not null", func(t *testing.T) {
		f := newTaskFixture(t)

		req := authedRequest(http.MethodGet, "/api/tasks", f.userA, nil)
		rr := httptest.NewRecorder()

		f.handler.HandleList(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"tasks":[]`)
	})
}

func TestTaskHandler_HandleGet(t *testing.T) {
	t.Run("own task", func(t *testing.T) {
		f := newTaskFixture(t)
		created := f.createTask(t, f.userA, "mine", false)

		req := authedRequest(http.MethodGet, "/api/tasks/"+created.ID, f.userA, nil)
		req.SetPathValue("id", created.ID)
		rr := httptest.NewRecorder()

		f.handler.HandleGet(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var task model.Task
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&task))
		assert.Equal(t, created.ID, task.ID)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		f := newTaskFixture(t)

		req := authedRequest(http.MethodGet, "/api/tasks/nope", f.userA, nil)
		req.SetPathValue("id", "nope")
		rr := httptest.NewRecorder()

		f.handler.HandleGet(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("someone else's task is 403", func(t *testing.T) {
		f := newTaskFixture(t)
		created := f.createTask(t, f.userB, "theirs", false)

		req := authedRequest(http.MethodGet, "/api/tasks/"+created.ID, f.userA, nil)
		req.SetPathValue("id", created.ID)
		rr := httptest.NewRecorder()

		f.handler.HandleGet(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		// The body must not leak the task contents.
		assert.NotContains(t, rr.Body.String(), "theirs")
	})
}

func TestTaskHandler_HandleUpdate(t *testing.T) {
	t.Run("partial update keeps omitted fields", func(t *testing.T) {
		f := newTaskFixture(t)
		created := f.createTask(t, f.userA, "original", false)

		req := authedRequest(http.MethodPut, "/api/tasks/"+created.ID, f.userA, []byte(`{"completed":true}`))
		req.SetPathValue("id", created.ID)
		rr := httptest.NewRecorder()

		f.handler.HandleUpdate(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var task model.Task
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&task))
		assert.Equal(t, "original", task.Title)
		assert.True(t, task.Completed)
	})

	t.Run("empty title is 400 and changes nothing", func(t *testing.T) {
		f := newTaskFixture(t)
		created := f.createTask(t, f.userA, "original", false)

		req := authedRequest(http.MethodPut, "/api/tasks/"+created.ID, f.userA, []byte(`{"title":"","completed":true}`))
		req.SetPathValue("id", created.ID)
		rr := httptest.NewRecorder()

		f.handler.HandleUpdate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		stored, err := f.svc.Get(context.Background(), f.userA, created.ID)
		assert.NoError(t, err)
		assert.Equal(t, "original", stored.Title)
		assert.False(t, stored.Completed)
	})

	t.Run("someone else's task is 403", func(t *testing.T) {
		f := newTaskFixture(t)
		created := f.createTask(t, f.userB, "theirs", false)

		req := authedRequest(http.MethodPut, "/api/tasks/"+created.ID, f.userA, []byte(`{"title":"hijack"}`))
		req.SetPathValue("id", created.ID)
		rr := httptest.NewRecorder()

		f.handler.HandleUpdate(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestTaskHandler_HandleToggle(t *testing.T) {
	t.Run("flips and flips back", func(t *testing.T) {
		f := newTaskFixture(t)
		created := f.createTask(t, f.userA, "flip", false)

		toggle := func() *model.Task {
			req := authedRequest(http.MethodPatch, "/api/tasks/"+created.ID+"/toggle", f.userA, nil)
			req.SetPathValue("id", created.ID)
			rr := httptest.NewRecorder()
			f.handler.HandleToggle(rr, req)
			assert.Equal(t, http.StatusOK, rr.Code)
			var task model.Task
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&task))
			return &task
		}

		assert.True(t, toggle().Completed)
		assert.False(t, toggle().Completed)
	})

	t.Run("someone else's task is 403", func(t *testing.T) {
		f := newTaskFixture(t)
		created := f.createTask(t, f.userB, "theirs", true)

		req := authedRequest(http.MethodPatch, "/api/tasks/"+created.ID+"/toggle", f.userA, nil)
		req.SetPathValue("id", created.ID)
		rr := httptest.NewRecorder()

		f.handler.HandleToggle(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)

		stored, err := f.svc.Get(context.Background(), f.userB, created.ID)
		assert.NoError(t, err)
		assert.True(t, stored.Completed)
	})
}

func TestTaskHandler_HandleDelete(t *testing.T) {
	t.Run("own task is 204 and gone", func(t *testing.T) {
		f := newTaskFixture(t)
		created := f.createTask(t, f.userA, "to delete", false)

		req := authedRequest(http.MethodDelete, "/api/tasks/"+created.ID, f.userA, nil)
		req.SetPathValue("id", created.ID)
		rr := httptest.NewRecorder()

		f.handler.HandleDelete(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Zero(t, rr.Body.Len())

		_, err := f.svc.Get(context.Background(), f.userA, created.ID)
		assert.Error(t, err)
	})

	t.Run("someone else's task is 403 and survives", func(t *testing.T) {
		f := newTaskFixture(t)
		created := f.createTask(t, f.userB, "theirs", false)

		req := authedRequest(http.MethodDelete, "/api/tasks/"+created.ID, f.userA, nil)
		req.SetPathValue("id", created.ID)
		rr := httptest.NewRecorder()

		f.handler.HandleDelete(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)

		_, err := f.svc.Get(context.Background(), f.userB, created.ID)
		assert.NoError(t, err)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		f := newTaskFixture(t)

		req := authedRequest(http.MethodDelete, "/api/tasks/nope", f.userA, nil)
		req.SetPathValue("id", "nope")
		rr := httptest.NewRecorder()

		f.handler.HandleDelete(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
