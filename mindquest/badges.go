package mindquest

// Badge requirement kinds. Each badge rule watches exactly one aggregate counter of the
// quest-mode snapshot.
const (
	BadgeRequirementQuests      = "quests"
	BadgeRequirementStreak      = "streak"
	BadgeRequirementPowerups    = "powerups"
	BadgeRequirementLevel       = "level"
	BadgeRequirementAllies      = "allies"
	BadgeRequirementAdversaries = "adversaries"
)

// Badge is a one-way unlockable tied to a threshold rule. Unlocked never reverts and
// UnlockedAtSec is set exactly once.
type Badge struct {
	Id            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Description   string `json:"description,omitempty"`
	Requirement   string `json:"requirement,omitempty"`
	Threshold     int64  `json:"threshold,omitempty"`
	Icon          string `json:"icon,omitempty"`
	Rarity        string `json:"rarity,omitempty"`
	Unlocked      bool   `json:"unlocked"`
	UnlockedAtSec int64  `json:"unlocked_at_sec,omitempty"`
}

type QuestsConfigBadge struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Requirement string `json:"requirement,omitempty"`
	Threshold   int64  `json:"threshold,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Rarity      string `json:"rarity,omitempty"`
}

// requirementCount resolves a badge requirement kind to the relevant counter of the
// snapshot. Unknown kinds count as zero and therefore never unlock.
func requirementCount(snapshot *QuestSnapshot, requirement string) int64 {
	switch requirement {
	case BadgeRequirementQuests:
		return snapshot.Progress.TotalQuestsCompleted
	case BadgeRequirementStreak:
		return snapshot.Progress.CurrentStreak
	case BadgeRequirementPowerups:
		return snapshot.Progress.TotalPowerupsUsed
	case BadgeRequirementLevel:
		return snapshot.Progress.Level
	case BadgeRequirementAllies:
		return int64(len(snapshot.Allies))
	case BadgeRequirementAdversaries:
		var defeated int64
		for _, adversary := range snapshot.Adversaries {
			if adversary.Defeated {
				defeated++
			}
		}
		return defeated
	default:
		return 0
	}
}

// evaluateBadges scans every locked badge in the snapshot against its threshold rule
// and flips the ones whose counter has reached the threshold. It is safe to run after
// every mutation: already-unlocked badges are skipped, so repeat evaluation can neither
// duplicate an unlock nor re-lock. The newly unlocked badges are returned for event
// publication.
func evaluateBadges(snapshot *QuestSnapshot, nowSec int64) []*Badge {
	var unlocked []*Badge
	for _, badge := range snapshot.Badges {
		if badge.Unlocked {
			continue
		}
		if requirementCount(snapshot, badge.Requirement) >= badge.Threshold {
			badge.Unlocked = true
			badge.UnlockedAtSec = nowSec
			unlocked = append(unlocked, badge)
		}
	}
	return unlocked
}
