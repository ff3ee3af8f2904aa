// Package assistant implements the confirmation workflow: a free-form message
// becomes either a direct answer or a staged plan of workspace mutations that
// is applied only after an explicit approve.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coo-bot/internal/agent"
	"coo-bot/internal/fault"
	"coo-bot/internal/logger"
	"coo-bot/internal/models"
	"coo-bot/internal/proposal"
)

// Extractor turns a message plus context into an answer or a mutation plan.
type Extractor interface {
	Extract(ctx context.Context, req agent.Request) (*agent.Intent, error)
}

// Workspace is the structured backend the approved mutations are applied to.
type Workspace interface {
	Snapshot(ctx context.Context) (*models.WorkspaceSnapshot, error)
	Apply(ctx context.Context, m *models.MutationIntent) (string, error)
}

// History is the bounded conversation memory passed to the extractor.
type History interface {
	Record(ownerID int64, role, content string)
	Recent(ownerID int64) []string
}

// Assistant is the per-owner confirmation state machine. An owner with no
// staged proposal is idle; staging a proposal awaits an approve or reject.
type Assistant struct {
	store     *proposal.Store
	extractor Extractor
	workspace Workspace
	history   History
	ttl       time.Duration
	now       func() time.Time
}

func New(store *proposal.Store, extractor Extractor, workspace Workspace, history History, ttl time.Duration) *Assistant {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Assistant{
		store:     store,
		extractor: extractor,
		workspace: workspace,
		history:   history,
		ttl:       ttl,
		now:       time.Now,
	}
}

const lockedSnapshotText = "Notion недоступен: пользователь не прошёл /unlock."

// HandleMessage processes one inbound free-form message (typed or already
// transcribed) and returns the reply to send. Every failure is translated to
// a user-facing message here; raw adapter errors never escape.
func (a *Assistant) HandleMessage(ctx context.Context, ownerID, chatID int64, text string, notionAllowed bool) string {
	a.history.Record(ownerID, models.RoleUser, text)

	snapshot := &models.WorkspaceSnapshot{Text: lockedSnapshotText}
	if notionAllowed {
		snap, err := a.workspace.Snapshot(ctx)
		if err != nil {
			logger.Warningf("workspace snapshot failed for owner %d: %v", ownerID, err)
			return userMessage(err)
		}
		snapshot = snap
	}

	intent, err := a.extractor.Extract(ctx, agent.Request{
		Text:           text,
		History:        a.history.Recent(ownerID),
		Snapshot:       snapshot.Text,
		AllowMutations: notionAllowed,
	})
	if err != nil {
		logger.Warningf("intent extraction failed for owner %d: %v", ownerID, err)
		return userMessage(err)
	}

	if !intent.HasMutations() {
		a.history.Record(ownerID, models.RoleAssistant, intent.Answer)
		return intent.Answer
	}

	if err := validatePlan(intent.Mutations, snapshot); err != nil {
		logger.Infof("rejected plan for owner %d: %v", ownerID, err)
		return userMessage(err)
	}

	// Staging replaces any prior proposal for this owner and resets the TTL.
	now := a.now()
	p := &models.PendingProposal{
		OwnerID:   ownerID,
		ChatID:    chatID,
		Mutations: intent.Mutations,
		Summary:   intent.Answer,
		CreatedAt: now,
		ExpiresAt: now.Add(a.ttl),
	}
	a.store.Put(p)

	reply := formatPlan(p)
	a.history.Record(ownerID, models.RoleAssistant, intent.Answer)
	return reply
}

// HasPending reports whether the owner is awaiting confirmation.
func (a *Assistant) HasPending(ownerID int64) bool {
	return a.store.Get(ownerID) != nil
}

// Approve applies the staged proposal in order. Mutations already applied by
// an earlier attempt are skipped; the first failure stops the run and keeps
// the proposal staged so approve can be retried.
func (a *Assistant) Approve(ctx context.Context, ownerID int64) string {
	p, err := a.store.Fetch(ownerID)
	if err != nil {
		return "План истёк, применять нечего. Сформулируй запрос заново."
	}
	if p == nil {
		return "Нет предложенных изменений для применения."
	}

	var applied []string
	for i, m := range p.Mutations {
		if m.Applied {
			continue
		}
		result, err := a.workspace.Apply(ctx, m)
		if err != nil {
			logger.Warningf("mutation %d/%d failed for owner %d: %v", i+1, len(p.Mutations), ownerID, err)
			msg := fmt.Sprintf("Изменение %d (%s) не применилось: %s\nПлан сохранён — повтори /approve или отмени /reject.",
				i+1, m.Describe(), userMessage(err))
			a.history.Record(ownerID, models.RoleAssistant, msg)
			return msg
		}
		m.Applied = true
		applied = append(applied, result)
	}

	a.store.Clear(ownerID)
	msg := "Применил изменения в Notion."
	if len(applied) > 0 {
		msg = "Применил изменения в Notion:\n- " + strings.Join(applied, "\n- ")
	}
	a.history.Record(ownerID, models.RoleAssistant, msg)
	return msg
}

// Reject discards the staged proposal, if any.
func (a *Assistant) Reject(ownerID int64) string {
	had := a.store.Get(ownerID) != nil
	a.store.Clear(ownerID)
	if had {
		return "Ок, изменения в Notion отклонены."
	}
	return "Нет активного плана для отклонения."
}

// validatePlan checks every mutation against its field schema and resolves
// project references against the snapshot plus projects created earlier in
// the same plan. An unresolved reference fails the whole plan before staging.
func validatePlan(mutations []*models.MutationIntent, snapshot *models.WorkspaceSnapshot) error {
	createdProjects := make(map[string]bool)
	for i, m := range mutations {
		if err := m.Validate(); err != nil {
			return fault.Newf(fault.KindValidation, "изменение %d: %v", i+1, err)
		}
		switch m.Kind {
		case models.MutationCreateProject:
			createdProjects[m.Fields["name"]] = true
		case models.MutationCreateTask:
			project := m.Fields["project"]
			if project != "" && project != "General" &&
				!snapshot.HasProject(project) && !createdProjects[project] {
				return fault.Newf(fault.KindValidation,
					"изменение %d ссылается на несуществующий проект %q", i+1, project)
			}
		}
	}
	return nil
}

// formatPlan renders the staged plan with the approve/reject prompt.
func formatPlan(p *models.PendingProposal) string {
	var b strings.Builder
	b.WriteString(p.Summary)
	b.WriteString("\n\nПлан изменений в Notion (ожидает подтверждения):\n")
	for i, m := range p.Mutations {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, m.Describe()))
	}
	b.WriteString("\nПодтверди /approve или отмени /reject")
	return b.String()
}

// userMessage translates a fault kind into the text shown in chat.
func userMessage(err error) string {
	switch fault.KindOf(err) {
	case fault.KindValidation:
		reason := err.Error()
		var fe *fault.Error
		if errors.As(err, &fe) {
			reason = fe.Err.Error()
		}
		return "Не могу подготовить план: " + reason
	case fault.KindUnauthorized:
		return "Доступ к Notion отклонён. Проверь токен и права интеграции."
	case fault.KindNotFound:
		return "Объект не найден в Notion."
	case fault.KindExpired:
		return "План истёк, применять нечего."
	default:
		return "Временная ошибка при обращении к сервису. Попробуй ещё раз чуть позже."
	}
}
