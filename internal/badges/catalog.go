// Package badges holds the static streak milestone catalog.
package badges

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Milestone is a badge unlocked permanently once a streak reaches its
// threshold.
type Milestone struct {
	Name           string `yaml:"name" json:"name"`
	StreakRequired int    `yaml:"streak_required" json:"streakRequired"`
	Icon           string `yaml:"icon" json:"icon"`
	Description    string `yaml:"description" json:"description"`
}

// defaultMilestones is the built-in catalog, ordered by ascending threshold.
var defaultMilestones = []Milestone{
	{Name: "Starter", StreakRequired: 3, Icon: "🌱", Description: "Complete 3 days in a row"},
	{Name: "Week Warrior", StreakRequired: 7, Icon: "🔥", Description: "Complete 7 days in a row"},
	{Name: "Fortnight Fighter", StreakRequired: 14, Icon: "⚡", Description: "Complete 14 days in a row"},
	{Name: "Monthly Master", StreakRequired: 30, Icon: "⭐", Description: "Complete 30 days in a row"},
	{Name: "Two Month Titan", StreakRequired: 60, Icon: "💎", Description: "Complete 60 days in a row"},
	{Name: "Century Champion", StreakRequired: 100, Icon: "👑", Description: "Complete 100 days in a row"},
	{Name: "Half Year Hero", StreakRequired: 180, Icon: "🏆", Description: "Complete 180 days in a row"},
	{Name: "Year Warrior", StreakRequired: 365, Icon: "🌟", Description: "Complete 365 days in a row"},
}

// Catalog is an immutable ordered list of milestones, loaded once at startup.
type Catalog struct {
	milestones []Milestone
}

// Default returns a catalog backed by the built-in milestone table.
func Default() *Catalog {
	return &Catalog{milestones: defaultMilestones}
}

// LoadFile reads a milestone catalog from a YAML file. An empty path returns
// the default catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var milestones []Milestone
	if err := yaml.Unmarshal(data, &milestones); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	c := &Catalog{milestones: milestones}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog file %s: %w", path, err)
	}
	return c, nil
}

func (c *Catalog) validate() error {
	if len(c.milestones) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	seen := make(map[string]bool, len(c.milestones))
	prev := 0
	for i, m := range c.milestones {
		if m.Name == "" {
			return fmt.Errorf("milestone %d has no name", i)
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate milestone name %q", m.Name)
		}
		seen[m.Name] = true
		if m.StreakRequired <= prev {
			return fmt.Errorf("milestone %q: thresholds must be positive and strictly increasing", m.Name)
		}
		prev = m.StreakRequired
	}
	return nil
}

// All returns every milestone in catalog order.
func (c *Catalog) All() []Milestone {
	out := make([]Milestone, len(c.milestones))
	copy(out, c.milestones)
	return out
}

// EarnedAt returns every milestone with threshold <= streak, in catalog order.
func (c *Catalog) EarnedAt(streak int) []Milestone {
	var earned []Milestone
	for _, m := range c.milestones {
		if streak >= m.StreakRequired {
			earned = append(earned, m)
		}
	}
	return earned
}

// Next returns the first unearned milestone above streak, or nil when the
// whole catalog is earned.
func (c *Catalog) Next(streak int) *Milestone {
	for _, m := range c.milestones {
		if streak < m.StreakRequired {
			next := m
			return &next
		}
	}
	return nil
}

// ByName looks up a milestone by its unique name.
func (c *Catalog) ByName(name string) *Milestone {
	for _, m := range c.milestones {
		if m.Name == name {
			found := m
			return &found
		}
	}
	return nil
}

// Len returns the number of milestones.
func (c *Catalog) Len() int {
	return len(c.milestones)
}
