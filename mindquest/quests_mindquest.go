package mindquest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/robfig/cron/v3"
)

const (
	questsStorageCollection = "lifequest"
	questSnapshotStorageKey = "quest_snapshot"
)

// defaultResetCronexpr reassigns quests at local midnight.
const defaultResetCronexpr = "0 0 * * *"

var _ QuestsSystem = &NakamaQuestsSystem{}

// validateQuestsConfig rejects catalogs whose reset schedule cannot be parsed or whose
// point values would corrupt the experience totals.
func validateQuestsConfig(config *QuestsConfig) error {
	if config.ResetCronexpr != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(config.ResetCronexpr); err != nil {
			return ErrResetCronexprInvalid
		}
	}
	for id, quest := range config.Quests {
		if quest.Points < 0 {
			return fmt.Errorf("quest %q has negative points", id)
		}
	}
	for id, powerup := range config.Powerups {
		if powerup.Points < 0 {
			return fmt.Errorf("power-up %q has negative points", id)
		}
	}
	return nil
}

// NakamaQuestsSystem implements the QuestsSystem gameplay system.
type NakamaQuestsSystem struct {
	config     *QuestsConfig
	store      *snapshotStore[QuestSnapshot]
	cronParser cron.Parser
	clock      Clock
	random     Random
	mindquest  MindQuest
}

func NewNakamaQuestsSystem(config *QuestsConfig) *NakamaQuestsSystem {
	q := &NakamaQuestsSystem{
		config:     config,
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		clock:      systemClock{},
		random:     mathRandom{},
	}
	q.store = newSnapshotStore[QuestSnapshot](questsStorageCollection, questSnapshotStorageKey, q.newSnapshot, q.validateSnapshot)
	return q
}

func (q *NakamaQuestsSystem) GetType() SystemType {
	return SystemTypeQuests
}

func (q *NakamaQuestsSystem) GetConfig() any {
	return q.config
}

func (q *NakamaQuestsSystem) SetClock(clock Clock) {
	if clock != nil {
		q.clock = clock
	}
}

func (q *NakamaQuestsSystem) SetRandom(random Random) {
	if random != nil {
		q.random = random
	}
}

func (q *NakamaQuestsSystem) SetMindQuest(mq MindQuest) {
	q.mindquest = mq
}

// newSnapshot seeds a fresh snapshot from the config catalogs.
func (q *NakamaQuestsSystem) newSnapshot() *QuestSnapshot {
	now := q.clock.Now()
	day := now.Format(questDateFormat)

	snapshot := &QuestSnapshot{
		Progress:    newPlayerProgress(),
		Quests:      make(map[string]*Quest, len(q.config.Quests)),
		Powerups:    make(map[string]*PowerUp, len(q.config.Powerups)),
		Adversaries: make([]*Adversary, 0, len(q.config.Adversaries)),
		Badges:      make(map[string]*Badge, len(q.config.Badges)),
	}

	for id, quest := range q.config.Quests {
		snapshot.Quests[id] = &Quest{
			Id:           id,
			Title:        quest.Title,
			Description:  quest.Description,
			Category:     quest.Category,
			Difficulty:   quest.Difficulty,
			Points:       quest.Points,
			Status:       QuestStatusAvailable,
			AssignedDate: day,
		}
	}
	for id, powerup := range q.config.Powerups {
		snapshot.Powerups[id] = &PowerUp{
			Id:          id,
			Name:        powerup.Name,
			Description: powerup.Description,
			Icon:        powerup.Icon,
			Points:      powerup.Points,
		}
	}
	for _, adversary := range q.config.Adversaries {
		id := adversary.Id
		if id == "" {
			id = uuid.NewString()
		}
		snapshot.Adversaries = append(snapshot.Adversaries, &Adversary{
			Id:          id,
			Name:        adversary.Name,
			Description: adversary.Description,
			Color:       adversary.Color,
			Icon:        adversary.Icon,
			Health:      adversaryMaxHealth,
		})
	}
	for id, badge := range q.config.Badges {
		snapshot.Badges[id] = &Badge{
			Id:          id,
			Name:        badge.Name,
			Description: badge.Description,
			Requirement: badge.Requirement,
			Threshold:   badge.Threshold,
			Icon:        badge.Icon,
			Rarity:      badge.Rarity,
		}
	}

	snapshot.NextResetSec = q.nextResetSec(now)
	return snapshot
}

// nextResetSec computes the unix time of the next daily quest reassignment, or 0 when
// the configured cronexpr cannot be parsed and no rollover should be scheduled.
func (q *NakamaQuestsSystem) nextResetSec(now time.Time) int64 {
	expr := q.config.ResetCronexpr
	if expr == "" {
		expr = defaultResetCronexpr
	}
	schedule, err := q.cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	return schedule.Next(now).Unix()
}

// validateSnapshot rejects snapshots that break hard invariants and normalizes the
// derivable fields of ones that pass.
func (q *NakamaQuestsSystem) validateSnapshot(snapshot *QuestSnapshot) error {
	if snapshot.Progress == nil {
		return fmt.Errorf("missing progress")
	}
	p := snapshot.Progress
	if p.XP < 0 || p.CurrentStreak < 0 || p.TotalQuestsCompleted < 0 || p.TotalPowerupsUsed < 0 {
		return fmt.Errorf("negative progression counter")
	}
	if p.LongestStreak < p.CurrentStreak {
		return fmt.Errorf("longest streak below current streak")
	}
	// Level is derived state, recompute rather than trust the stored value.
	p.Level = levelForXP(p.XP)

	if snapshot.Quests == nil {
		snapshot.Quests = make(map[string]*Quest)
	}
	if snapshot.Powerups == nil {
		snapshot.Powerups = make(map[string]*PowerUp)
	}
	if snapshot.Badges == nil {
		snapshot.Badges = make(map[string]*Badge)
	}
	for id, quest := range snapshot.Quests {
		if quest == nil {
			return fmt.Errorf("quest %q missing body", id)
		}
		if quest.Status != QuestStatusAvailable && quest.Status != QuestStatusCompleted {
			return fmt.Errorf("quest %q has unknown status %q", id, quest.Status)
		}
	}
	for _, adversary := range snapshot.Adversaries {
		if adversary == nil {
			return fmt.Errorf("adversary missing body")
		}
		if adversary.Health > adversaryMaxHealth {
			adversary.Health = adversaryMaxHealth
		}
		if adversary.Health <= 0 {
			adversary.Health = 0
			adversary.Defeated = true
		}
	}
	for id, badge := range snapshot.Badges {
		if badge == nil {
			return fmt.Errorf("badge %q missing body", id)
		}
		if badge.Unlocked && badge.UnlockedAtSec < 0 {
			return fmt.Errorf("badge %q has invalid unlock time", id)
		}
	}
	return nil
}

func (q *NakamaQuestsSystem) GetSnapshot(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*QuestSnapshot, error) {
	if userID == "" {
		return nil, ErrNoSessionUser
	}
	snapshot := q.store.load(ctx, logger, nk, userID)
	if !q.resetDue(snapshot) {
		return snapshot, nil
	}

	next, err := cloneSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	q.applyDailyReset(next)
	q.store.commit(ctx, logger, nk, userID, next)
	return next, nil
}

// resetDue reports whether the scheduled daily reassignment time has passed.
func (q *NakamaQuestsSystem) resetDue(snapshot *QuestSnapshot) bool {
	return snapshot.NextResetSec > 0 && q.clock.Now().Unix() >= snapshot.NextResetSec
}

// applyDailyReset reassigns every quest as available for the new day and schedules the
// following reset. Progression counters, streaks, adversaries and badges are untouched.
func (q *NakamaQuestsSystem) applyDailyReset(snapshot *QuestSnapshot) {
	now := q.clock.Now()
	day := now.Format(questDateFormat)
	for _, quest := range snapshot.Quests {
		quest.Status = QuestStatusAvailable
		quest.AssignedDate = day
	}
	snapshot.NextResetSec = q.nextResetSec(now)
}

func (q *NakamaQuestsSystem) CompleteQuest(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, questID string) (*QuestSnapshot, error) {
	if userID == "" {
		return nil, ErrNoSessionUser
	}
	if questID == "" {
		return nil, ErrBadInput
	}

	next, err := cloneSnapshot(q.store.load(ctx, logger, nk, userID))
	if err != nil {
		return nil, err
	}
	if q.resetDue(next) {
		q.applyDailyReset(next)
	}

	quest, ok := next.Quests[questID]
	if !ok {
		return nil, ErrQuestNotFound
	}
	if quest.Status == QuestStatusCompleted {
		return nil, ErrQuestAlreadyCompleted
	}

	now := q.clock.Now()
	quest.Status = QuestStatusCompleted
	leveledUp, err := next.Progress.AddExperience(quest.Points)
	if err != nil {
		return nil, err
	}
	next.Progress.TotalQuestsCompleted++
	next.Progress.AdvanceDailyStreak(now)
	defeated := q.applyAdversaryDamage(next, quest.Points)
	unlocked := evaluateBadges(next, now.Unix())

	q.store.commit(ctx, logger, nk, userID, next)

	events := []*PublisherEvent{{
		Name:      EventQuestCompleted,
		Id:        quest.Id,
		Timestamp: now.Unix(),
		Metadata: map[string]string{
			"category": quest.Category,
			"points":   fmt.Sprintf("%d", quest.Points),
		},
		System: q,
	}}
	if leveledUp {
		events = append(events, q.levelUpEvent(next.Progress.Level, now))
	}
	if defeated != nil {
		events = append(events, &PublisherEvent{
			Name:      EventAdversaryDefeated,
			Id:        defeated.Id,
			Timestamp: now.Unix(),
			Value:     defeated.Name,
			System:    q,
		})
	}
	events = append(events, q.badgeEvents(unlocked, now)...)
	q.publish(ctx, logger, nk, userID, events)

	return next, nil
}

// applyAdversaryDamage deals the awarded points as damage to one uniformly random
// undefeated adversary, clamping health at 0. It returns the adversary if this damage
// defeated it, or nil.
func (q *NakamaQuestsSystem) applyAdversaryDamage(snapshot *QuestSnapshot, damage int64) *Adversary {
	active := make([]*Adversary, 0, len(snapshot.Adversaries))
	for _, adversary := range snapshot.Adversaries {
		if !adversary.Defeated {
			active = append(active, adversary)
		}
	}
	if len(active) == 0 || damage <= 0 {
		return nil
	}

	target := active[q.random.Intn(len(active))]
	target.Health -= damage
	if target.Health <= 0 {
		target.Health = 0
		target.Defeated = true
		return target
	}
	return nil
}

func (q *NakamaQuestsSystem) UsePowerUp(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, powerUpID string) (*QuestSnapshot, error) {
	if userID == "" {
		return nil, ErrNoSessionUser
	}
	if powerUpID == "" {
		return nil, ErrBadInput
	}

	next, err := cloneSnapshot(q.store.load(ctx, logger, nk, userID))
	if err != nil {
		return nil, err
	}
	if q.resetDue(next) {
		q.applyDailyReset(next)
	}

	powerup, ok := next.Powerups[powerUpID]
	if !ok {
		return nil, ErrPowerUpNotFound
	}

	now := q.clock.Now()
	powerup.Uses++
	next.Progress.TotalPowerupsUsed++
	leveledUp, err := next.Progress.AddExperience(powerup.Points)
	if err != nil {
		return nil, err
	}
	unlocked := evaluateBadges(next, now.Unix())

	q.store.commit(ctx, logger, nk, userID, next)

	events := []*PublisherEvent{{
		Name:      EventPowerUpUsed,
		Id:        powerup.Id,
		Timestamp: now.Unix(),
		Value:     powerup.Name,
		System:    q,
	}}
	if leveledUp {
		events = append(events, q.levelUpEvent(next.Progress.Level, now))
	}
	events = append(events, q.badgeEvents(unlocked, now)...)
	q.publish(ctx, logger, nk, userID, events)

	return next, nil
}

func (q *NakamaQuestsSystem) AddAlly(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, definition *AllyDefinition) (*QuestSnapshot, error) {
	if userID == "" {
		return nil, ErrNoSessionUser
	}
	if definition == nil || definition.Name == "" {
		return nil, ErrBadInput
	}

	next, err := cloneSnapshot(q.store.load(ctx, logger, nk, userID))
	if err != nil {
		return nil, err
	}

	now := q.clock.Now()
	next.Allies = append(next.Allies, &Ally{
		Id:          uuid.NewString(),
		Name:        definition.Name,
		Description: definition.Description,
		AddedAtSec:  now.Unix(),
	})
	unlocked := evaluateBadges(next, now.Unix())

	q.store.commit(ctx, logger, nk, userID, next)
	q.publish(ctx, logger, nk, userID, q.badgeEvents(unlocked, now))

	return next, nil
}

func (q *NakamaQuestsSystem) RemoveAlly(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, allyID string) (*QuestSnapshot, error) {
	if userID == "" {
		return nil, ErrNoSessionUser
	}
	if allyID == "" {
		return nil, ErrBadInput
	}

	next, err := cloneSnapshot(q.store.load(ctx, logger, nk, userID))
	if err != nil {
		return nil, err
	}

	found := false
	allies := make([]*Ally, 0, len(next.Allies))
	for _, ally := range next.Allies {
		if ally.Id == allyID {
			found = true
			continue
		}
		allies = append(allies, ally)
	}
	if !found {
		return nil, ErrAllyNotFound
	}
	// Ally badges already unlocked stay unlocked, removal never re-locks.
	next.Allies = allies

	q.store.commit(ctx, logger, nk, userID, next)
	return next, nil
}

func (q *NakamaQuestsSystem) AddAdversary(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, definition *AdversaryDefinition) (*QuestSnapshot, error) {
	if userID == "" {
		return nil, ErrNoSessionUser
	}
	if definition == nil || definition.Name == "" {
		return nil, ErrBadInput
	}

	next, err := cloneSnapshot(q.store.load(ctx, logger, nk, userID))
	if err != nil {
		return nil, err
	}

	next.Adversaries = append(next.Adversaries, &Adversary{
		Id:          uuid.NewString(),
		Name:        definition.Name,
		Description: definition.Description,
		Color:       definition.Color,
		Icon:        definition.Icon,
		Health:      adversaryMaxHealth,
	})

	q.store.commit(ctx, logger, nk, userID, next)
	return next, nil
}

func (q *NakamaQuestsSystem) ResetDailyQuests(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*QuestSnapshot, error) {
	if userID == "" {
		return nil, ErrNoSessionUser
	}

	next, err := cloneSnapshot(q.store.load(ctx, logger, nk, userID))
	if err != nil {
		return nil, err
	}
	q.applyDailyReset(next)

	q.store.commit(ctx, logger, nk, userID, next)
	return next, nil
}

func (q *NakamaQuestsSystem) ResetProgress(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*QuestSnapshot, error) {
	if userID == "" {
		return nil, ErrNoSessionUser
	}

	next := q.newSnapshot()
	q.store.commit(ctx, logger, nk, userID, next)
	return next, nil
}

func (q *NakamaQuestsSystem) ExportSnapshot(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (string, error) {
	if userID == "" {
		return "", ErrNoSessionUser
	}
	return q.store.export(ctx, logger, nk, userID)
}

func (q *NakamaQuestsSystem) ImportSnapshot(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, raw string) (*QuestSnapshot, error) {
	if userID == "" {
		return nil, ErrNoSessionUser
	}
	return q.store.importRaw(ctx, logger, nk, userID, raw)
}

func (q *NakamaQuestsSystem) levelUpEvent(level int64, now time.Time) *PublisherEvent {
	return &PublisherEvent{
		Name:      EventLevelUp,
		Timestamp: now.Unix(),
		Value:     fmt.Sprintf("%d", level),
		System:    q,
	}
}

func (q *NakamaQuestsSystem) badgeEvents(unlocked []*Badge, now time.Time) []*PublisherEvent {
	events := make([]*PublisherEvent, 0, len(unlocked))
	for _, badge := range unlocked {
		events = append(events, &PublisherEvent{
			Name:      EventBadgeUnlocked,
			Id:        badge.Id,
			Timestamp: now.Unix(),
			Value:     badge.Name,
			System:    q,
		})
	}
	return events
}

func (q *NakamaQuestsSystem) publish(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, events []*PublisherEvent) {
	if q.mindquest == nil || len(events) == 0 {
		return
	}
	q.mindquest.SendPublisherEvents(ctx, logger, nk, userID, events)
}
