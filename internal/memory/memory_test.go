package memory

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coo-bot/internal/models"
)

type fakeTurnStore struct {
	turns     []*models.ConversationTurn
	appendErr error
	trimmedTo int
}

func (f *fakeTurnStore) Append(turn *models.ConversationTurn) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.turns = append(f.turns, turn)
	return nil
}

func (f *fakeTurnStore) Recent(ownerID int64, limit int) ([]*models.ConversationTurn, error) {
	var out []*models.ConversationTurn
	for _, t := range f.turns {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeTurnStore) TrimOlder(_ int64, keep int) error {
	f.trimmedTo = keep
	return nil
}

func TestRecordAndRecent(t *testing.T) {
	store := &fakeTurnStore{}
	r := NewRecorder(store, 4)

	r.Record(1, models.RoleUser, "привет")
	r.Record(1, models.RoleAssistant, "привет!")
	r.Record(2, models.RoleUser, "чужой диалог")

	lines := r.Recent(1)
	require.Equal(t, []string{"user: привет", "assistant: привет!"}, lines)
	assert.Equal(t, 4, store.trimmedTo)
}

func TestRecordSkipsEmptyAndClipsLong(t *testing.T) {
	store := &fakeTurnStore{}
	r := NewRecorder(store, 4)

	r.Record(1, models.RoleUser, "   ")
	assert.Empty(t, store.turns)

	long := strings.Repeat("ю", 3000)
	r.Record(1, models.RoleUser, long)
	require.Len(t, store.turns, 1)
	assert.Len(t, []rune(store.turns[0].Content), 2000)
}

func TestRecordSwallowsStoreFailures(t *testing.T) {
	store := &fakeTurnStore{appendErr: errors.New("db down")}
	r := NewRecorder(store, 4)

	// must not panic or propagate
	r.Record(1, models.RoleUser, "привет")
	assert.Empty(t, store.turns)
}

func TestRecentHonorsDepth(t *testing.T) {
	store := &fakeTurnStore{}
	r := NewRecorder(store, 2)

	r.Record(1, models.RoleUser, "один")
	r.Record(1, models.RoleAssistant, "два")
	r.Record(1, models.RoleUser, "три")

	lines := r.Recent(1)
	require.Len(t, lines, 2)
	assert.Equal(t, "assistant: два", lines[0])
	assert.Equal(t, "user: три", lines[1])
}
