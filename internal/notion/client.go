// Package notion is the workspace backend adapter: a thin typed client over
// the Notion REST API plus the workspace operations the assistant needs.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"coo-bot/internal/config"
	"coo-bot/internal/fault"
)

const (
	apiBase    = "https://api.notion.com/v1"
	apiVersion = "2022-06-28"
)

// WorkspaceIDs are the resolved page/database identifiers of the workspace.
type WorkspaceIDs struct {
	WorkspacePageID string
	TasksDBID       string
	ProjectsDBID    string
}

// Client talks to the Notion API. IDs are resolved once and cached.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	parentPageID string

	mu  sync.Mutex
	ids *WorkspaceIDs
}

func NewClient(cfg *config.NotionConfig) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      apiBase,
		token:        cfg.Token,
		parentPageID: cfg.ParentPageID,
	}
	// Pre-configured IDs skip the search-or-create pass entirely.
	if cfg.WorkspacePageID != "" && cfg.TasksDBID != "" && cfg.ProjectsDBID != "" {
		c.ids = &WorkspaceIDs{
			WorkspacePageID: cfg.WorkspacePageID,
			TasksDBID:       cfg.TasksDBID,
			ProjectsDBID:    cfg.ProjectsDBID,
		}
	}
	return c
}

// apiError is Notion's error envelope.
type apiError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// translateError maps a Notion error response onto the shared taxonomy.
func translateError(status int, body []byte) error {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		e.Message = string(body)
	}

	base := fmt.Errorf("notion API [%d %s]: %s", status, e.Code, e.Message)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fault.New(fault.KindUnauthorized, base)
	case status == http.StatusTooManyRequests:
		return fault.New(fault.KindTransient, base)
	case status == http.StatusNotFound:
		return fault.New(fault.KindNotFound, base)
	case e.Code == "validation_error":
		return fault.New(fault.KindValidation, base)
	case status >= 500:
		return fault.New(fault.KindTransient, base)
	}
	return fault.New(fault.KindTransient, base)
}

// do issues one API call and decodes the response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal notion request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build notion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fault.New(fault.KindTransient, fmt.Errorf("notion request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fault.New(fault.KindTransient, fmt.Errorf("read notion response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return translateError(resp.StatusCode, respBody)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fault.New(fault.KindTransient, fmt.Errorf("decode notion response: %w", err))
		}
	}
	return nil
}

// response shapes, trimmed to the fields we read

type richText struct {
	PlainText string `json:"plain_text"`
}

type selectValue struct {
	Name string `json:"name"`
}

type property struct {
	Title    []richText   `json:"title"`
	RichText []richText   `json:"rich_text"`
	Select   *selectValue `json:"select"`
}

type page struct {
	ID         string              `json:"id"`
	Object     string              `json:"object"`
	Title      []richText          `json:"title"` // set for databases
	Properties map[string]property `json:"properties"`
}

type listResponse struct {
	Results []page `json:"results"`
}

func (p *page) titleText() string {
	for _, prop := range p.Properties {
		if len(prop.Title) > 0 {
			return joinRichText(prop.Title)
		}
	}
	return joinRichText(p.Title)
}

func (p *page) selectName(propName string) string {
	prop, ok := p.Properties[propName]
	if !ok || prop.Select == nil {
		return ""
	}
	return prop.Select.Name
}

func joinRichText(parts []richText) string {
	var out string
	for _, part := range parts {
		out += part.PlainText
	}
	return out
}

// request body builders

func clip(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func titleProp(content string) map[string]interface{} {
	return map[string]interface{}{
		"title": []interface{}{
			map[string]interface{}{
				"type": "text",
				"text": map[string]interface{}{"content": clip(content, 2000)},
			},
		},
	}
}

func richTextProp(content string) map[string]interface{} {
	return map[string]interface{}{
		"rich_text": []interface{}{
			map[string]interface{}{
				"type": "text",
				"text": map[string]interface{}{"content": clip(content, 1000)},
			},
		},
	}
}

func selectProp(name string) map[string]interface{} {
	return map[string]interface{}{
		"select": map[string]interface{}{"name": name},
	}
}

func selectOptions(names ...string) map[string]interface{} {
	options := make([]interface{}, 0, len(names))
	for _, name := range names {
		options = append(options, map[string]interface{}{"name": name})
	}
	return map[string]interface{}{
		"select": map[string]interface{}{"options": options},
	}
}
