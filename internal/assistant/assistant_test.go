package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coo-bot/internal/agent"
	"coo-bot/internal/fault"
	"coo-bot/internal/models"
	"coo-bot/internal/proposal"
)

type fakeExtractor struct {
	intent *agent.Intent
	err    error
	last   agent.Request
}

func (f *fakeExtractor) Extract(_ context.Context, req agent.Request) (*agent.Intent, error) {
	f.last = req
	return f.intent, f.err
}

type fakeWorkspace struct {
	snapshot    *models.WorkspaceSnapshot
	snapshotErr error

	applied  []*models.MutationIntent
	failOn   map[string]error // keyed by title/name
	applyErr error
}

func (f *fakeWorkspace) Snapshot(context.Context) (*models.WorkspaceSnapshot, error) {
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	if f.snapshot == nil {
		return &models.WorkspaceSnapshot{Text: "пусто"}, nil
	}
	return f.snapshot, nil
}

func (f *fakeWorkspace) Apply(_ context.Context, m *models.MutationIntent) (string, error) {
	if f.applyErr != nil {
		return "", f.applyErr
	}
	key := m.Field("title", m.Fields["name"])
	if err, ok := f.failOn[key]; ok {
		return "", err
	}
	f.applied = append(f.applied, m)
	return "done: " + key, nil
}

type fakeHistory struct {
	records []string
}

func (f *fakeHistory) Record(_ int64, role, content string) {
	f.records = append(f.records, role+": "+content)
}

func (f *fakeHistory) Recent(int64) []string { return f.records }

func taskMutation(title string) *models.MutationIntent {
	return &models.MutationIntent{
		Kind:   models.MutationCreateTask,
		Fields: map[string]string{"title": title},
	}
}

func newTestAssistant(extractor *fakeExtractor, workspace *fakeWorkspace) *Assistant {
	return New(proposal.NewStore(), extractor, workspace, &fakeHistory{}, 15*time.Minute)
}

func TestAnswerOnlyTurnStagesNothing(t *testing.T) {
	extractor := &fakeExtractor{intent: &agent.Intent{Answer: "Сначала разгреби бэклог."}}
	workspace := &fakeWorkspace{}
	a := newTestAssistant(extractor, workspace)

	reply := a.HandleMessage(context.Background(), 1, 1, "что делать дальше?", true)

	assert.Equal(t, "Сначала разгреби бэклог.", reply)
	assert.False(t, a.HasPending(1))
}

func TestProposeThenApproveAppliesOnce(t *testing.T) {
	extractor := &fakeExtractor{intent: &agent.Intent{
		Answer:    "Добавлю задачу.",
		Mutations: []*models.MutationIntent{taskMutation("позвонить юристу")},
	}}
	workspace := &fakeWorkspace{}
	a := newTestAssistant(extractor, workspace)

	reply := a.HandleMessage(context.Background(), 1, 1, "добавь задачу позвонить юристу", true)
	assert.Contains(t, reply, "План изменений")
	assert.Contains(t, reply, "/approve")
	require.True(t, a.HasPending(1))
	assert.Empty(t, workspace.applied, "nothing applied before approve")

	result := a.Approve(context.Background(), 1)
	assert.Contains(t, result, "Применил изменения")
	assert.Len(t, workspace.applied, 1)
	assert.False(t, a.HasPending(1))

	// a second approve finds nothing
	assert.Equal(t, "Нет предложенных изменений для применения.", a.Approve(context.Background(), 1))
	assert.Len(t, workspace.applied, 1)
}

func TestRejectNeverTouchesWorkspace(t *testing.T) {
	extractor := &fakeExtractor{intent: &agent.Intent{
		Answer:    "Ок.",
		Mutations: []*models.MutationIntent{taskMutation("задача")},
	}}
	workspace := &fakeWorkspace{}
	a := newTestAssistant(extractor, workspace)

	a.HandleMessage(context.Background(), 1, 1, "добавь", true)
	require.True(t, a.HasPending(1))

	assert.Equal(t, "Ок, изменения в Notion отклонены.", a.Reject(1))
	assert.False(t, a.HasPending(1))
	assert.Empty(t, workspace.applied)

	assert.Equal(t, "Нет активного плана для отклонения.", a.Reject(1))
}

func TestNewProposalReplacesStagedOne(t *testing.T) {
	extractor := &fakeExtractor{intent: &agent.Intent{
		Answer:    "Первый план.",
		Mutations: []*models.MutationIntent{taskMutation("первая")},
	}}
	workspace := &fakeWorkspace{}
	a := newTestAssistant(extractor, workspace)

	a.HandleMessage(context.Background(), 1, 1, "раз", true)

	extractor.intent = &agent.Intent{
		Answer:    "Второй план.",
		Mutations: []*models.MutationIntent{taskMutation("вторая")},
	}
	a.HandleMessage(context.Background(), 1, 1, "два", true)

	a.Approve(context.Background(), 1)
	require.Len(t, workspace.applied, 1)
	assert.Equal(t, "вторая", workspace.applied[0].Fields["title"])
}

func TestExpiredProposalIsNeverApplied(t *testing.T) {
	extractor := &fakeExtractor{intent: &agent.Intent{
		Answer:    "План.",
		Mutations: []*models.MutationIntent{taskMutation("задача")},
	}}
	workspace := &fakeWorkspace{}
	a := newTestAssistant(extractor, workspace)

	// stage with a clock an hour in the past so the TTL has already elapsed
	a.now = func() time.Time { return time.Now().Add(-time.Hour) }
	a.HandleMessage(context.Background(), 1, 1, "добавь", true)

	result := a.Approve(context.Background(), 1)
	assert.Equal(t, "План истёк, применять нечего. Сформулируй запрос заново.", result)
	assert.Empty(t, workspace.applied)
	assert.False(t, a.HasPending(1))
}

func TestPartialFailureKeepsProposalAndRetrySkipsApplied(t *testing.T) {
	extractor := &fakeExtractor{intent: &agent.Intent{
		Answer: "Два изменения.",
		Mutations: []*models.MutationIntent{
			taskMutation("первая"),
			taskMutation("вторая"),
		},
	}}
	workspace := &fakeWorkspace{
		failOn: map[string]error{"вторая": fault.Newf(fault.KindTransient, "rate limited")},
	}
	a := newTestAssistant(extractor, workspace)

	a.HandleMessage(context.Background(), 1, 1, "добавь две", true)

	result := a.Approve(context.Background(), 1)
	assert.Contains(t, result, "не применилось")
	assert.Contains(t, result, "повтори /approve")
	assert.True(t, a.HasPending(1), "proposal survives a partial failure")
	require.Len(t, workspace.applied, 1)

	// retry succeeds and must not re-apply the first mutation
	delete(workspace.failOn, "вторая")
	result = a.Approve(context.Background(), 1)
	assert.Contains(t, result, "Применил изменения")
	require.Len(t, workspace.applied, 2)
	assert.Equal(t, "вторая", workspace.applied[1].Fields["title"])
	assert.False(t, a.HasPending(1))
}

func TestUnknownProjectReferenceFailsValidation(t *testing.T) {
	mutation := taskMutation("задача")
	mutation.Fields["project"] = "Несуществующий"
	extractor := &fakeExtractor{intent: &agent.Intent{
		Answer:    "План.",
		Mutations: []*models.MutationIntent{mutation},
	}}
	workspace := &fakeWorkspace{
		snapshot: &models.WorkspaceSnapshot{Text: "проекты", Projects: []string{"Маркетинг"}},
	}
	a := newTestAssistant(extractor, workspace)

	reply := a.HandleMessage(context.Background(), 1, 1, "добавь", true)
	assert.Contains(t, reply, "Не могу подготовить план")
	assert.False(t, a.HasPending(1))
}

func TestProjectCreatedEarlierInPlanResolves(t *testing.T) {
	task := taskMutation("задача")
	task.Fields["project"] = "Новый"
	extractor := &fakeExtractor{intent: &agent.Intent{
		Answer: "План.",
		Mutations: []*models.MutationIntent{
			{Kind: models.MutationCreateProject, Fields: map[string]string{"name": "Новый"}},
			task,
		},
	}}
	workspace := &fakeWorkspace{
		snapshot: &models.WorkspaceSnapshot{Text: "пусто"},
	}
	a := newTestAssistant(extractor, workspace)

	a.HandleMessage(context.Background(), 1, 1, "добавь", true)
	assert.True(t, a.HasPending(1))
}

func TestLockedWorkspaceStripsSnapshotAndMutations(t *testing.T) {
	extractor := &fakeExtractor{intent: &agent.Intent{Answer: "Ответ без изменений."}}
	workspace := &fakeWorkspace{snapshotErr: fault.Newf(fault.KindUnauthorized, "no token")}
	a := newTestAssistant(extractor, workspace)

	// locked: the snapshot error must not surface because Snapshot is skipped
	reply := a.HandleMessage(context.Background(), 1, 1, "привет", false)
	assert.Equal(t, "Ответ без изменений.", reply)
	assert.Equal(t, lockedSnapshotText, extractor.last.Snapshot)
	assert.False(t, extractor.last.AllowMutations)
}

func TestSnapshotFailureSurfacesAsUserMessage(t *testing.T) {
	extractor := &fakeExtractor{intent: &agent.Intent{Answer: "не важно"}}
	workspace := &fakeWorkspace{snapshotErr: fault.Newf(fault.KindTransient, "timeout")}
	a := newTestAssistant(extractor, workspace)

	reply := a.HandleMessage(context.Background(), 1, 1, "привет", true)
	assert.Contains(t, reply, "Временная ошибка")
	assert.False(t, a.HasPending(1))
}
