package mindquest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockInitializer struct {
	runtime.Initializer

	rpcs map[string]bool
}

func newMockInitializer() *mockInitializer {
	return &mockInitializer{rpcs: make(map[string]bool)}
}

func (m *mockInitializer) RegisterRpc(id string, fn func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)) error {
	m.rpcs[id] = true
	return nil
}

type capturingPublisher struct {
	events []*PublisherEvent
}

func (p *capturingPublisher) Send(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, events []*PublisherEvent) {
	p.events = append(p.events, events...)
}

const testQuestsConfigJSON = `{
	"quests": {"hydrate": {"title": "Drink a Glass of Water", "points": 10}},
	"powerups": {"breathe": {"name": "Deep Breathing", "points": 3}},
	"adversaries": [{"id": "anxiety", "name": "Anxiety Monster"}],
	"badges": {"first_quest": {"name": "First Quest", "requirement": "quests", "threshold": 1}}
}`

const testBattlesConfigJSON = `{
	"scenarios": [{
		"id": "no_reply",
		"situation": "My friend didn't reply to my message.",
		"options": [
			{"text": "Maybe they are just busy.", "correct": true},
			{"text": "No one likes me.", "correct": false}
		]
	}]
}`

func TestInit_RegistersSystemsAndRpcs(t *testing.T) {
	nk := NewMockNakamaModule()
	nk.SetFile("data/quests.json", testQuestsConfigJSON)
	nk.SetFile("data/battles.json", testBattlesConfigJSON)
	initializer := newMockInitializer()

	mq, err := Init(context.Background(), &mockLogger{}, nk, initializer,
		WithQuestsSystem("data/quests.json", true),
		WithBattlesSystem("data/battles.json", true),
	)
	require.NoError(t, err)

	require.NotNil(t, mq.GetQuestsSystem())
	require.NotNil(t, mq.GetBattlesSystem())

	for _, id := range []string{
		RpcIdQuestsGet, RpcIdQuestsComplete, RpcIdQuestsPowerUpUse,
		RpcIdQuestsAllyAdd, RpcIdQuestsAllyRemove, RpcIdQuestsAdversaryAdd,
		RpcIdQuestsDailyReset, RpcIdQuestsProgressReset,
		RpcIdQuestsSnapshotExport, RpcIdQuestsSnapshotImport,
		RpcIdBattlesGet, RpcIdBattlesScenarios, RpcIdBattlesRecordOutcome,
		RpcIdBattlesProgressReset, RpcIdBattlesSnapshotExport, RpcIdBattlesSnapshotImport,
	} {
		assert.True(t, initializer.rpcs[id], "rpc %s not registered", id)
	}
}

func TestInit_RejectsInvalidBattlesConfig(t *testing.T) {
	nk := NewMockNakamaModule()
	nk.SetFile("data/battles.json", `{
		"scenarios": [{
			"id": "broken",
			"options": [{"text": "a", "correct": false}]
		}]
	}`)

	_, err := Init(context.Background(), &mockLogger{}, nk, newMockInitializer(),
		WithBattlesSystem("data/battles.json", false),
	)
	assert.Error(t, err)
}

func TestSendPublisherEvents_FansOutMutationEvents(t *testing.T) {
	nk := NewMockNakamaModule()
	nk.SetFile("data/quests.json", testQuestsConfigJSON)

	mq, err := Init(context.Background(), &mockLogger{}, nk, newMockInitializer(),
		WithQuestsSystem("data/quests.json", false),
	)
	require.NoError(t, err)

	publisher := &capturingPublisher{}
	mq.AddPublisher(publisher)

	_, err = mq.GetQuestsSystem().CompleteQuest(context.Background(), &mockLogger{}, nk, "user1", "hydrate")
	require.NoError(t, err)

	names := make([]string, 0, len(publisher.events))
	for _, event := range publisher.events {
		names = append(names, event.Name)
	}
	assert.Contains(t, names, EventQuestCompleted)
	assert.Contains(t, names, EventBadgeUnlocked)
}
