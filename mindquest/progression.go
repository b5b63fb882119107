package mindquest

import (
	"time"
)

// questDateFormat is the whole-calendar-day granularity used for streak accounting.
const questDateFormat = "2006-01-02"

// PlayerProgress is the aggregate progression state owned by the quest-mode instance.
// Level is always derived from XP; it is stored alongside it only so snapshots render
// without recomputation, and every mutation path recomputes it.
type PlayerProgress struct {
	XP                   int64  `json:"xp"`
	Level                int64  `json:"level"`
	CurrentStreak        int64  `json:"current_streak"`
	LongestStreak        int64  `json:"longest_streak"`
	TotalQuestsCompleted int64  `json:"total_quests_completed"`
	TotalPowerupsUsed    int64  `json:"total_powerups_used"`
	LastQuestDate        string `json:"last_quest_date,omitempty"`
}

func newPlayerProgress() *PlayerProgress {
	return &PlayerProgress{XP: 0, Level: 1}
}

// levelForXP derives the level tier for a cumulative experience total.
func levelForXP(xp int64) int64 {
	return xp/100 + 1
}

// AddExperience accumulates a non-negative experience award and recomputes the level.
// It reports whether the award crossed a level boundary so callers can run level-up
// badge rules. A negative amount is rejected with no state change.
func (p *PlayerProgress) AddExperience(amount int64) (leveledUp bool, err error) {
	if amount < 0 {
		return false, ErrExperienceInvalid
	}
	previousLevel := p.Level
	p.XP += amount
	p.Level = levelForXP(p.XP)
	return p.Level > previousLevel, nil
}

// AdvanceDailyStreak applies the calendar-day streak rule for an activity on the given
// day:
//
//   - same day as the last activity: no change, so repeat completions cannot inflate
//     the streak;
//   - exactly the day after the last activity: the streak continues;
//   - anything else, including a first-ever activity or a gap of two or more days: the
//     streak hard-resets to 1.
//
// The longest streak high-water mark and the last activity date are updated in all
// cases. See Clock for the day-boundary caveat.
func (p *PlayerProgress) AdvanceDailyStreak(today time.Time) {
	day := today.Format(questDateFormat)
	if p.LastQuestDate == day {
		return
	}

	yesterday := today.AddDate(0, 0, -1).Format(questDateFormat)
	if p.LastQuestDate == yesterday {
		p.CurrentStreak++
	} else {
		p.CurrentStreak = 1
	}

	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	p.LastQuestDate = day
}
