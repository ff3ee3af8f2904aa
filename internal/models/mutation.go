package models

import (
	"fmt"

	"coo-bot/internal/fault"
)

// MutationKind identifies a single workspace operation.
type MutationKind string

const (
	MutationCreateTask    MutationKind = "create_task"
	MutationCreateProject MutationKind = "create_project"
	MutationUpdateTask    MutationKind = "update_task"
)

// MutationIntent is one proposed create/update against the workspace.
// Fields are validated against a fixed schema per kind before staging.
type MutationIntent struct {
	Kind   MutationKind
	Fields map[string]string

	// Applied is set once the workspace accepted this mutation, so a retried
	// approve only re-attempts outstanding work.
	Applied bool
}

// field schema per mutation kind
var (
	requiredFields = map[MutationKind][]string{
		MutationCreateTask:    {"title"},
		MutationCreateProject: {"name"},
		MutationUpdateTask:    {"title", "status"},
	}
	optionalFields = map[MutationKind][]string{
		MutationCreateTask:    {"project", "priority", "due_date", "status"},
		MutationCreateProject: {"status", "kpi"},
		MutationUpdateTask:    {},
	}
)

// Validate checks the mutation against its kind's field schema.
func (m *MutationIntent) Validate() error {
	required, ok := requiredFields[m.Kind]
	if !ok {
		return fault.Newf(fault.KindValidation, "unknown mutation kind %q", m.Kind)
	}
	for _, field := range required {
		if m.Fields[field] == "" {
			return fault.Newf(fault.KindValidation, "%s: required field %q is missing", m.Kind, field)
		}
	}
	allowed := make(map[string]bool)
	for _, field := range required {
		allowed[field] = true
	}
	for _, field := range optionalFields[m.Kind] {
		allowed[field] = true
	}
	for field := range m.Fields {
		if !allowed[field] {
			return fault.Newf(fault.KindValidation, "%s: unexpected field %q", m.Kind, field)
		}
	}
	return nil
}

// Field returns the named field or a fallback.
func (m *MutationIntent) Field(name, fallback string) string {
	if v := m.Fields[name]; v != "" {
		return v
	}
	return fallback
}

// Describe renders the mutation for the plan shown before confirmation.
func (m *MutationIntent) Describe() string {
	switch m.Kind {
	case MutationCreateTask:
		return fmt.Sprintf("add_task: %s | project=%s | priority=%s",
			m.Fields["title"], m.Field("project", "General"), m.Field("priority", "Medium"))
	case MutationCreateProject:
		return fmt.Sprintf("add_project: %s | status=%s",
			m.Fields["name"], m.Field("status", "Experiment"))
	case MutationUpdateTask:
		return fmt.Sprintf("update_task_status: %s -> %s",
			m.Fields["title"], m.Field("status", "Todo"))
	}
	return fmt.Sprintf("unknown: %v", m.Fields)
}
