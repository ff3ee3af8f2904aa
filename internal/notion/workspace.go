package notion

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"coo-bot/internal/fault"
	"coo-bot/internal/logger"
	"coo-bot/internal/models"
)

const (
	workspaceTitle  = "COO Workspace"
	tasksDBTitle    = "COO Tasks"
	projectsDBTitle = "COO Projects"
)

// EnsureWorkspace resolves (or creates) the workspace page and the two
// databases, caching the IDs for the rest of the process lifetime.
func (c *Client) EnsureWorkspace(ctx context.Context) (*WorkspaceIDs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ids != nil {
		return c.ids, nil
	}

	workspacePageID, err := c.findPageByTitle(ctx, workspaceTitle)
	if err != nil {
		return nil, err
	}
	if workspacePageID == "" {
		logger.Infof("Creating workspace page %q", workspaceTitle)
		workspacePageID, err = c.createWorkspacePage(ctx)
		if err != nil {
			return nil, err
		}
	}

	projectsDBID, err := c.findDatabaseByTitle(ctx, projectsDBTitle)
	if err != nil {
		return nil, err
	}
	if projectsDBID == "" {
		logger.Infof("Creating database %q", projectsDBTitle)
		projectsDBID, err = c.createDatabase(ctx, workspacePageID, projectsDBTitle, map[string]interface{}{
			"Name":   map[string]interface{}{"title": map[string]interface{}{}},
			"Status": selectOptions("Main", "Support", "Experiment", "Paused", "Done"),
			"KPI":    map[string]interface{}{"rich_text": map[string]interface{}{}},
			"Notes":  map[string]interface{}{"rich_text": map[string]interface{}{}},
		})
		if err != nil {
			return nil, err
		}
	}

	tasksDBID, err := c.findDatabaseByTitle(ctx, tasksDBTitle)
	if err != nil {
		return nil, err
	}
	if tasksDBID == "" {
		logger.Infof("Creating database %q", tasksDBTitle)
		tasksDBID, err = c.createDatabase(ctx, workspacePageID, tasksDBTitle, map[string]interface{}{
			"Name":     map[string]interface{}{"title": map[string]interface{}{}},
			"Status":   selectOptions("Todo", "Doing", "Done", "Paused"),
			"Priority": selectOptions("High", "Medium", "Low"),
			"Project":  map[string]interface{}{"rich_text": map[string]interface{}{}},
			"Energy":   selectOptions("High", "Normal", "Low"),
		})
		if err != nil {
			return nil, err
		}
	}

	c.ids = &WorkspaceIDs{
		WorkspacePageID: workspacePageID,
		TasksDBID:       tasksDBID,
		ProjectsDBID:    projectsDBID,
	}
	return c.ids, nil
}

func (c *Client) createWorkspacePage(ctx context.Context) (string, error) {
	var created page
	err := c.do(ctx, http.MethodPost, "/pages", map[string]interface{}{
		"parent": map[string]interface{}{
			"type":    "page_id",
			"page_id": c.parentPageID,
		},
		"properties": map[string]interface{}{
			"title": titleProp(workspaceTitle),
		},
	}, &created)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *Client) createDatabase(ctx context.Context, parentPageID, title string, properties map[string]interface{}) (string, error) {
	var created page
	err := c.do(ctx, http.MethodPost, "/databases", map[string]interface{}{
		"parent": map[string]interface{}{
			"type":    "page_id",
			"page_id": parentPageID,
		},
		"title": []interface{}{
			map[string]interface{}{
				"type": "text",
				"text": map[string]interface{}{"content": title},
			},
		},
		"properties": properties,
	}, &created)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *Client) findPageByTitle(ctx context.Context, title string) (string, error) {
	return c.search(ctx, title, "page")
}

func (c *Client) findDatabaseByTitle(ctx context.Context, title string) (string, error) {
	return c.search(ctx, title, "database")
}

func (c *Client) search(ctx context.Context, title, objectType string) (string, error) {
	var resp listResponse
	err := c.do(ctx, http.MethodPost, "/search", map[string]interface{}{
		"query": title,
		"filter": map[string]interface{}{
			"property": "object",
			"value":    objectType,
		},
		"page_size": 20,
	}, &resp)
	if err != nil {
		return "", err
	}
	for _, result := range resp.Results {
		if result.titleText() == title {
			return result.ID, nil
		}
	}
	return "", nil
}

// findInDatabase returns the ID of the page whose Name equals title, or "".
func (c *Client) findInDatabase(ctx context.Context, dbID, title string) (string, error) {
	var resp listResponse
	err := c.do(ctx, http.MethodPost, "/databases/"+dbID+"/query", map[string]interface{}{
		"filter": map[string]interface{}{
			"property": "Name",
			"title":    map[string]interface{}{"equals": title},
		},
		"page_size": 1,
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return resp.Results[0].ID, nil
}

// AddTask creates a task page. Idempotent: retried with the same title it
// returns the existing page instead of inserting a duplicate.
func (c *Client) AddTask(ctx context.Context, title, project, priority, status string) (string, error) {
	ids, err := c.EnsureWorkspace(ctx)
	if err != nil {
		return "", err
	}
	if existing, err := c.findInDatabase(ctx, ids.TasksDBID, title); err != nil {
		return "", err
	} else if existing != "" {
		logger.Infof("Task %q already exists, skipping create", title)
		return existing, nil
	}

	if project == "" {
		project = "General"
	}
	if priority == "" {
		priority = "Medium"
	}
	if status == "" {
		status = "Todo"
	}

	var created page
	err = c.do(ctx, http.MethodPost, "/pages", map[string]interface{}{
		"parent": map[string]interface{}{"database_id": ids.TasksDBID},
		"properties": map[string]interface{}{
			"Name":     titleProp(title),
			"Status":   selectProp(status),
			"Priority": selectProp(priority),
			"Project":  richTextProp(project),
			"Energy":   selectProp("Normal"),
		},
	}, &created)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// AddProject creates a project page, idempotent by name.
func (c *Client) AddProject(ctx context.Context, name, status, kpi string) (string, error) {
	ids, err := c.EnsureWorkspace(ctx)
	if err != nil {
		return "", err
	}
	if existing, err := c.findInDatabase(ctx, ids.ProjectsDBID, name); err != nil {
		return "", err
	} else if existing != "" {
		logger.Infof("Project %q already exists, skipping create", name)
		return existing, nil
	}

	if status == "" {
		status = "Experiment"
	}

	var created page
	err = c.do(ctx, http.MethodPost, "/pages", map[string]interface{}{
		"parent": map[string]interface{}{"database_id": ids.ProjectsDBID},
		"properties": map[string]interface{}{
			"Name":   titleProp(name),
			"Status": selectProp(status),
			"KPI":    richTextProp(kpi),
		},
	}, &created)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// UpdateTaskStatus finds a task by title and sets its Status select.
func (c *Client) UpdateTaskStatus(ctx context.Context, title, status string) error {
	ids, err := c.EnsureWorkspace(ctx)
	if err != nil {
		return err
	}
	pageID, err := c.findInDatabase(ctx, ids.TasksDBID, title)
	if err != nil {
		return err
	}
	if pageID == "" {
		return fault.Newf(fault.KindNotFound, "task %q not found", title)
	}
	return c.do(ctx, http.MethodPatch, "/pages/"+pageID, map[string]interface{}{
		"properties": map[string]interface{}{
			"Status": selectProp(status),
		},
	}, nil)
}

// Apply executes one mutation and returns a human-readable result line.
func (c *Client) Apply(ctx context.Context, m *models.MutationIntent) (string, error) {
	switch m.Kind {
	case models.MutationCreateTask:
		id, err := c.AddTask(ctx, m.Fields["title"], m.Fields["project"], m.Fields["priority"], m.Fields["status"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Задача добавлена: %s (ID: %s)", m.Fields["title"], id), nil
	case models.MutationCreateProject:
		id, err := c.AddProject(ctx, m.Fields["name"], m.Fields["status"], m.Fields["kpi"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Проект добавлен: %s (ID: %s)", m.Fields["name"], id), nil
	case models.MutationUpdateTask:
		if err := c.UpdateTaskStatus(ctx, m.Fields["title"], m.Fields["status"]); err != nil {
			return "", err
		}
		return fmt.Sprintf("Статус задачи %q -> %s", m.Fields["title"], m.Fields["status"]), nil
	}
	return "", fault.Newf(fault.KindValidation, "unknown mutation kind %q", m.Kind)
}

// Snapshot queries active projects and tasks and renders the focus summary.
func (c *Client) Snapshot(ctx context.Context) (*models.WorkspaceSnapshot, error) {
	ids, err := c.EnsureWorkspace(ctx)
	if err != nil {
		return nil, err
	}

	projects, err := c.queryActive(ctx, ids.ProjectsDBID, 10)
	if err != nil {
		return nil, err
	}
	tasks, err := c.queryActive(ctx, ids.TasksDBID, 12)
	if err != nil {
		return nil, err
	}

	snapshot := &models.WorkspaceSnapshot{}

	var projectLines []string
	for _, item := range projects {
		name := item.titleText()
		snapshot.Projects = append(snapshot.Projects, name)
		projectLines = append(projectLines, fmt.Sprintf("- %s [%s]", name, orUnknown(item.selectName("Status"))))
	}
	var taskLines []string
	for _, item := range tasks {
		taskLines = append(taskLines, fmt.Sprintf("- %s (%s, %s)",
			item.titleText(), orUnknown(item.selectName("Status")), orUnknown(item.selectName("Priority"))))
	}

	projectsText := "- нет активных проектов"
	if len(projectLines) > 0 {
		projectsText = strings.Join(projectLines, "\n")
	}
	tasksText := "- нет активных задач"
	if len(taskLines) > 0 {
		tasksText = strings.Join(taskLines, "\n")
	}

	snapshot.Text = fmt.Sprintf("Текущее состояние из Notion:\nПроекты:\n%s\n\nЗадачи:\n%s", projectsText, tasksText)
	return snapshot, nil
}

func (c *Client) queryActive(ctx context.Context, dbID string, pageSize int) ([]page, error) {
	var resp listResponse
	err := c.do(ctx, http.MethodPost, "/databases/"+dbID+"/query", map[string]interface{}{
		"filter": map[string]interface{}{
			"property": "Status",
			"select":   map[string]interface{}{"does_not_equal": "Done"},
		},
		"page_size": pageSize,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
