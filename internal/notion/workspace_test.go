package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coo-bot/internal/fault"
	"coo-bot/internal/models"
)

type fakeNotion struct {
	mux *http.ServeMux

	// pages created through POST /pages, keyed by title
	created []map[string]interface{}

	// canned query results per database id
	queryResults map[string][]page
}

func newFakeNotion() *fakeNotion {
	f := &fakeNotion{
		mux:          http.NewServeMux(),
		queryResults: make(map[string][]page),
	}

	f.mux.HandleFunc("/pages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		f.created = append(f.created, body)
		json.NewEncoder(w).Encode(page{ID: "created-page-id"})
	})

	f.mux.HandleFunc("/databases/", func(w http.ResponseWriter, r *http.Request) {
		// path is /databases/{id}/query
		dbID := r.URL.Path[len("/databases/") : len(r.URL.Path)-len("/query")]
		json.NewEncoder(w).Encode(listResponse{Results: f.queryResults[dbID]})
	})

	return f
}

func newTestClient(t *testing.T, f *fakeNotion) *Client {
	t.Helper()
	server := httptest.NewServer(f.mux)
	t.Cleanup(server.Close)
	return &Client{
		httpClient: server.Client(),
		baseURL:    server.URL,
		token:      "secret",
		ids: &WorkspaceIDs{
			WorkspacePageID: "ws",
			TasksDBID:       "tasks-db",
			ProjectsDBID:    "projects-db",
		},
	}
}

func taskPage(id, title, status, priority string) page {
	return page{
		ID: id,
		Properties: map[string]property{
			"Name":     {Title: []richText{{PlainText: title}}},
			"Status":   {Select: &selectValue{Name: status}},
			"Priority": {Select: &selectValue{Name: priority}},
		},
	}
}

func TestAddTaskCreatesWithDefaults(t *testing.T) {
	f := newFakeNotion()
	c := newTestClient(t, f)

	id, err := c.AddTask(context.Background(), "позвонить юристу", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "created-page-id", id)

	require.Len(t, f.created, 1)
	props := f.created[0]["properties"].(map[string]interface{})
	status := props["Status"].(map[string]interface{})["select"].(map[string]interface{})["name"]
	priority := props["Priority"].(map[string]interface{})["select"].(map[string]interface{})["name"]
	assert.Equal(t, "Todo", status)
	assert.Equal(t, "Medium", priority)
}

func TestAddTaskIsIdempotentByTitle(t *testing.T) {
	f := newFakeNotion()
	f.queryResults["tasks-db"] = []page{taskPage("existing-id", "позвонить юристу", "Todo", "High")}
	c := newTestClient(t, f)

	id, err := c.AddTask(context.Background(), "позвонить юристу", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "existing-id", id)
	assert.Empty(t, f.created, "no duplicate page created")
}

func TestUpdateTaskStatusNotFound(t *testing.T) {
	f := newFakeNotion()
	c := newTestClient(t, f)

	err := c.UpdateTaskStatus(context.Background(), "нет такой", "Done")
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindNotFound))
}

func TestApplyUnknownKindIsValidation(t *testing.T) {
	f := newFakeNotion()
	c := newTestClient(t, f)

	_, err := c.Apply(context.Background(), &models.MutationIntent{Kind: "noop"})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindValidation))
}

func TestApplyCreateTaskResultLine(t *testing.T) {
	f := newFakeNotion()
	c := newTestClient(t, f)

	result, err := c.Apply(context.Background(), &models.MutationIntent{
		Kind:   models.MutationCreateTask,
		Fields: map[string]string{"title": "позвонить юристу"},
	})
	require.NoError(t, err)
	assert.Contains(t, result, "Задача добавлена: позвонить юристу")
}

func TestSnapshotRendersProjectsAndTasks(t *testing.T) {
	f := newFakeNotion()
	f.queryResults["projects-db"] = []page{
		{
			ID: "p1",
			Properties: map[string]property{
				"Name":   {Title: []richText{{PlainText: "Маркетинг"}}},
				"Status": {Select: &selectValue{Name: "Main"}},
			},
		},
	}
	f.queryResults["tasks-db"] = []page{taskPage("t1", "написать отчёт", "Doing", "High")}
	c := newTestClient(t, f)

	snapshot, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Маркетинг"}, snapshot.Projects)
	assert.True(t, snapshot.HasProject("Маркетинг"))
	assert.False(t, snapshot.HasProject("Другое"))
	assert.Contains(t, snapshot.Text, "- Маркетинг [Main]")
	assert.Contains(t, snapshot.Text, "- написать отчёт (Doing, High)")
}

func TestSnapshotEmptyWorkspace(t *testing.T) {
	f := newFakeNotion()
	c := newTestClient(t, f)

	snapshot, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Contains(t, snapshot.Text, "нет активных проектов")
	assert.Contains(t, snapshot.Text, "нет активных задач")
}
