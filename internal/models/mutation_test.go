package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coo-bot/internal/fault"
)

func TestMutationValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       MutationIntent
		wantErr bool
	}{
		{
			name: "valid task with optional fields",
			m: MutationIntent{Kind: MutationCreateTask, Fields: map[string]string{
				"title": "позвонить юристу", "project": "Legal", "priority": "High",
			}},
		},
		{
			name: "task missing title",
			m: MutationIntent{Kind: MutationCreateTask, Fields: map[string]string{
				"project": "Legal",
			}},
			wantErr: true,
		},
		{
			name: "valid project",
			m: MutationIntent{Kind: MutationCreateProject, Fields: map[string]string{
				"name": "Маркетинг", "kpi": "MRR 1M",
			}},
		},
		{
			name:    "project missing name",
			m:       MutationIntent{Kind: MutationCreateProject, Fields: map[string]string{}},
			wantErr: true,
		},
		{
			name: "valid status update",
			m: MutationIntent{Kind: MutationUpdateTask, Fields: map[string]string{
				"title": "задача", "status": "Done",
			}},
		},
		{
			name: "status update missing status",
			m: MutationIntent{Kind: MutationUpdateTask, Fields: map[string]string{
				"title": "задача",
			}},
			wantErr: true,
		},
		{
			name: "unexpected field rejected",
			m: MutationIntent{Kind: MutationCreateTask, Fields: map[string]string{
				"title": "задача", "assignee": "кто-то",
			}},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			m:       MutationIntent{Kind: "delete_everything", Fields: map[string]string{}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, fault.Is(err, fault.KindValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMutationDescribeUsesDefaults(t *testing.T) {
	m := MutationIntent{Kind: MutationCreateTask, Fields: map[string]string{"title": "задача"}}
	desc := m.Describe()
	assert.Contains(t, desc, "add_task: задача")
	assert.Contains(t, desc, "project=General")
	assert.Contains(t, desc, "priority=Medium")
}

func TestOutstandingSkipsApplied(t *testing.T) {
	p := PendingProposal{Mutations: []*MutationIntent{
		{Kind: MutationCreateTask, Fields: map[string]string{"title": "a"}, Applied: true},
		{Kind: MutationCreateTask, Fields: map[string]string{"title": "b"}},
	}}
	rest := p.Outstanding()
	require.Len(t, rest, 1)
	assert.Equal(t, "b", rest[0].Fields["title"])
}
