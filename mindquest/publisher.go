package mindquest

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Event names broadcast to publishers by the gameplay systems.
const (
	EventQuestCompleted    = "quest_completed"
	EventPowerUpUsed       = "powerup_used"
	EventLevelUp           = "level_up"
	EventBadgeUnlocked     = "badge_unlocked"
	EventAdversaryDefeated = "adversary_defeated"
	EventBattleRecorded    = "battle_recorded"
)

type PublisherEvent struct {
	Name      string            `json:"name,omitempty"`
	Id        string            `json:"id,omitempty"`
	Timestamp int64             `json:"timestamp,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Value     string            `json:"value,omitempty"`

	// The system that generated this event.
	System System `json:"-"`
}

// The Publisher describes a service or similar target implementation that wishes to
// receive and process analytics-style events generated by the gameplay systems, such as
// a best-effort statistics sync to a backend.
//
// Each Publisher may choose to process or ignore each event as it sees fit.
// Implementations must handle any errors or retries internally; a publisher failure
// never rolls back progression state and callers will not repeat calls in case of
// errors.
type Publisher interface {
	// Send is called when there are one or more events generated.
	Send(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, events []*PublisherEvent)
}
