package mindquest

import (
	"context"
	"math/rand"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
)

var (
	ErrInternal           = runtime.NewError("internal error occurred", 13) // INTERNAL
	ErrBadInput           = runtime.NewError("bad input", 3)                // INVALID_ARGUMENT
	ErrNoSessionUser      = runtime.NewError("no user ID in session", 3)    // INVALID_ARGUMENT
	ErrPayloadDecode      = runtime.NewError("cannot decode json", 13)      // INTERNAL
	ErrPayloadEmpty       = runtime.NewError("payload should not be empty", 3)
	ErrPayloadEncode      = runtime.NewError("cannot encode json", 13)
	ErrSystemNotAvailable = runtime.NewError("system not available", 13)
	ErrSystemNotFound     = runtime.NewError("system not found", 13)

	ErrExperienceInvalid     = runtime.NewError("experience amount must not be negative", 3)    // INVALID_ARGUMENT
	ErrQuestNotFound         = runtime.NewError("quest not found", 5)                           // NOT_FOUND
	ErrQuestAlreadyCompleted = runtime.NewError("quest already completed", 9)                   // FAILED_PRECONDITION
	ErrPowerUpNotFound       = runtime.NewError("power-up not found", 5)                        // NOT_FOUND
	ErrAllyNotFound          = runtime.NewError("ally not found", 5)                            // NOT_FOUND
	ErrScenarioNotFound      = runtime.NewError("battle scenario not found", 5)                 // NOT_FOUND
	ErrSnapshotCorrupted     = runtime.NewError("snapshot data failed validation", 3)           // INVALID_ARGUMENT
	ErrResetCronexprInvalid  = runtime.NewError("daily reset schedule expression invalid", 13)  // INTERNAL
)

// Clock supplies the current wall time to the engine systems. It is injected so streak
// and daily reset behavior is reproducible under test.
//
// Day boundaries are whole local calendar days derived from Now() with no timezone
// normalization; users active near local midnight may see a streak break or
// double-advance. This mirrors the shipped client behavior on purpose.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Random supplies random selection to the engine systems, injected so that adversary
// targeting is deterministic under test.
type Random interface {
	// Intn returns a uniform value in [0, n). n must be > 0.
	Intn(n int) int
}

type mathRandom struct{}

func (mathRandom) Intn(n int) int { return rand.Intn(n) }

// MindQuest provides a type which combines the progression gameplay systems.
type MindQuest interface {
	// AddPublisher adds a publisher to the chain notified after every mutation.
	AddPublisher(publisher Publisher)

	// SendPublisherEvents fans events out to every registered publisher.
	SendPublisherEvents(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, events []*PublisherEvent)

	GetQuestsSystem() QuestsSystem
	GetBattlesSystem() BattlesSystem
}

// The SystemType identifies each of the gameplay systems.
type SystemType uint

const (
	SystemTypeUnknown SystemType = iota
	SystemTypeQuests
	SystemTypeBattles
)

// A System is a base type for a gameplay system.
type System interface {
	// GetType provides the runtime type of the gameplay system.
	GetType() SystemType

	// GetConfig returns the configuration type of the gameplay system.
	GetConfig() any
}

// The SystemConfig describes the configuration that each gameplay system must use to
// configure itself.
type SystemConfig interface {
	// GetType returns the runtime type of the gameplay system.
	GetType() SystemType

	// GetConfigFile returns the configuration file used for the data definitions in the gameplay system.
	GetConfigFile() string

	// GetRegister returns true if the gameplay system's RPCs should be registered with the game server.
	GetRegister() bool
}

var _ SystemConfig = &systemConfig{}

type systemConfig struct {
	systemType SystemType
	configFile string
	register   bool
}

func (sc *systemConfig) GetType() SystemType {
	return sc.systemType
}
func (sc *systemConfig) GetConfigFile() string {
	return sc.configFile
}
func (sc *systemConfig) GetRegister() bool {
	return sc.register
}

// WithQuestsSystem configures a QuestsSystem type and optionally registers its RPCs with the game server.
func WithQuestsSystem(configFile string, register bool) SystemConfig {
	return &systemConfig{
		systemType: SystemTypeQuests,
		configFile: configFile,
		register:   register,
	}
}

// WithBattlesSystem configures a BattlesSystem type and optionally registers its RPCs with the game server.
func WithBattlesSystem(configFile string, register bool) SystemConfig {
	return &systemConfig{
		systemType: SystemTypeBattles,
		configFile: configFile,
		register:   register,
	}
}
