package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"free-games-bot/models"
	"free-games-bot/utils"
)

// Milestone unlocks achievement Name once a user's claim count reaches Threshold.
type Milestone struct {
	Threshold int64  `json:"threshold"`
	Name      string `json:"name"`  // stored key, e.g. "first-claim"
	Title     string `json:"title"` // shown to users, e.g. "Welcome New Gamer"
}

// DefaultMilestones is the built-in table used when MILESTONES is not configured.
var DefaultMilestones = []Milestone{
	{Threshold: 1, Name: "first-claim", Title: "Welcome New Gamer"},
	{Threshold: 5, Name: "frequent-claimer", Title: "Games Hunter"},
	{Threshold: 10, Name: "veteran-collector", Title: "Games Veteran"},
}

// MilestoneTable is an immutable, threshold-ordered list of milestones.
type MilestoneTable struct {
	milestones []Milestone
}

// NewMilestoneTable validates the milestones and sorts a copy by ascending threshold.
func NewMilestoneTable(milestones []Milestone) (*MilestoneTable, error) {
	sorted := make([]Milestone, 0, len(milestones))
	seen := make(map[string]bool, len(milestones))
	for _, m := range milestones {
		if m.Threshold < 1 {
			return nil, fmt.Errorf("milestone %q: threshold must be positive, got %d", m.Name, m.Threshold)
		}
		key := utils.AchievementKey(m.Name)
		if key == "" {
			return nil, fmt.Errorf("milestone with threshold %d has an empty name", m.Threshold)
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate milestone name %q", key)
		}
		seen[key] = true

		m.Name = key
		if strings.TrimSpace(m.Title) == "" {
			m.Title = utils.DisplayTitle(key)
		}
		sorted = append(sorted, m)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Threshold < sorted[j].Threshold
	})
	return &MilestoneTable{milestones: sorted}, nil
}

// ParseMilestones reads the MILESTONES format: "threshold:name[:title]" items separated by ";".
// An empty value yields DefaultMilestones.
func ParseMilestones(raw string) ([]Milestone, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return append([]Milestone(nil), DefaultMilestones...), nil
	}

	var out []Milestone
	for _, item := range strings.Split(raw, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("milestone %q: want threshold:name[:title]", item)
		}
		threshold, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("milestone %q: bad threshold: %w", item, err)
		}
		m := Milestone{Threshold: threshold, Name: strings.TrimSpace(parts[1])}
		if len(parts) == 3 {
			m.Title = strings.TrimSpace(parts[2])
		}
		out = append(out, m)
	}
	return out, nil
}

// All returns a copy of the table in threshold order.
func (t *MilestoneTable) All() []Milestone {
	return append([]Milestone(nil), t.milestones...)
}

// Evaluate returns every milestone the user qualifies for but does not own yet,
// in ascending threshold order. Pure: no I/O, the user is not modified.
func (t *MilestoneTable) Evaluate(user *models.User) []Milestone {
	var qualified []Milestone
	for _, m := range t.milestones {
		if user.ClaimedCount >= m.Threshold && !user.HasAchievement(m.Name) {
			qualified = append(qualified, m)
		}
	}
	return qualified
}

// Resolve finds the milestone a free-form name refers to, matching either the
// stored name or the display title.
func (t *MilestoneTable) Resolve(name string) (Milestone, bool) {
	key := utils.AchievementKey(name)
	for _, m := range t.milestones {
		if m.Name == key || utils.AchievementKey(m.Title) == key {
			return m, true
		}
	}
	return Milestone{}, false
}

// Title is the display title for an achievement key; keys outside the table
// (admin grants) are title-cased.
func (t *MilestoneTable) Title(name string) string {
	for _, m := range t.milestones {
		if m.Name == name {
			return m.Title
		}
	}
	return utils.DisplayTitle(name)
}

// MilestoneNames extracts the keys, preserving order.
func MilestoneNames(ms []Milestone) []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}
	return names
}
