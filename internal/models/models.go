package models

import (
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used as the key for daily data.
const DateLayout = "2006-01-02"

// Role names a user's permission tier.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a registered account with its coin balance.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Coins        int       `json:"coins"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user may edit shared configuration.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CatalogBuckets lists the fixed category keys of the task catalog, in order.
var CatalogBuckets = []string{"button1", "button2", "button3"}

// TaskCatalog maps each bucket key to its ordered task texts.
type TaskCatalog map[string][]string

// Normalize trims entries, drops blank ones and guarantees every bucket key exists.
// Unknown keys are discarded.
func (c TaskCatalog) Normalize() TaskCatalog {
	out := make(TaskCatalog, len(CatalogBuckets))
	for _, key := range CatalogBuckets {
		items := []string{}
		for _, text := range c[key] {
			if t := strings.TrimSpace(text); t != "" {
				items = append(items, t)
			}
		}
		out[key] = items
	}
	return out
}

// Flatten concatenates the buckets in their fixed order.
func (c TaskCatalog) Flatten() []string {
	var all []string
	for _, key := range CatalogBuckets {
		all = append(all, c[key]...)
	}
	return all
}

// EmptyCatalog returns a catalog with every bucket present and empty.
func EmptyCatalog() TaskCatalog {
	return TaskCatalog{}.Normalize()
}

// DailyTaskSet is the subset of the catalog offered on one calendar day.
type DailyTaskSet struct {
	Date  string   `json:"date"`
	Tasks []string `json:"tasks"`
}

// BoardStatus is a board task's position in the free → taken → done cycle.
type BoardStatus string

const (
	BoardFree  BoardStatus = "free"
	BoardTaken BoardStatus = "taken"
	BoardDone  BoardStatus = "done"
)

// DefaultDifficulty is applied when a board task is added without one.
const DefaultDifficulty = "Medium"

// BoardTask is an ad-hoc task on the shared board.
type BoardTask struct {
	ID         int64       `json:"id"`
	Text       string      `json:"text"`
	Difficulty string      `json:"difficulty"`
	Status     BoardStatus `json:"status"`
	Claimant   string      `json:"user,omitempty"`
	TakenAt    *time.Time  `json:"taken_at,omitempty"`
	DoneAt     *time.Time  `json:"done_at,omitempty"`
}

// Point is a map coordinate, expressed as a percentage of the map's width and height.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Checkpoint is a map waypoint unlocked once Required tasks are completed.
type Checkpoint struct {
	Position Point  `json:"position" yaml:"position"`
	Required int    `json:"required" yaml:"required"`
	Name     string `json:"name" yaml:"name"`
	Icon     string `json:"icon" yaml:"icon"`
}

// MapConfig is the global map layout.
type MapConfig struct {
	StartPoint   Point        `json:"start_point" yaml:"start_point"`
	ActivePoints []Point      `json:"active_points" yaml:"active_points"`
	Checkpoints  []Checkpoint `json:"checkpoints" yaml:"checkpoints"`
	EndPoint     Point        `json:"end_point" yaml:"end_point"`
	UpdatedAt    time.Time    `json:"updated_at" yaml:"-"`
	UpdatedBy    string       `json:"updated_by" yaml:"-"`
}

// SortCheckpoints orders checkpoints ascending by Required, keeping the
// relative order of equal thresholds.
func (m *MapConfig) SortCheckpoints() {
	sort.SliceStable(m.Checkpoints, func(i, j int) bool {
		return m.Checkpoints[i].Required < m.Checkpoints[j].Required
	})
}

// DefaultPosition is the pin returned for users who never placed one.
var DefaultPosition = Point{X: 15, Y: 75}

// DefaultMapConfig is the layout used until an admin saves one.
func DefaultMapConfig() MapConfig {
	return MapConfig{
		StartPoint: Point{X: 15, Y: 75},
		ActivePoints: []Point{
			{X: 25, Y: 70},
			{X: 35, Y: 65},
			{X: 45, Y: 60},
		},
		Checkpoints: []Checkpoint{
			{Position: Point{X: 75, Y: 45}, Required: 5, Name: "First level", Icon: "🎯"},
			{Position: Point{X: 85, Y: 40}, Required: 10, Name: "Second level", Icon: "⭐"},
		},
		EndPoint:  Point{X: 95, Y: 35},
		UpdatedBy: "system",
	}
}

// Level is the label attached to a completed-task count.
type Level string

const (
	LevelBeginner Level = "Beginner"
	LevelExplorer Level = "Explorer"
	LevelMaster   Level = "Master"
	LevelExpert   Level = "Expert"
	LevelLegend   Level = "Legend"
)

// UserProgressSnapshot is derived from the ledger and map config on every read.
type UserProgressSnapshot struct {
	Username           string       `json:"username"`
	TotalCompleted     int          `json:"total_completed"`
	Level              Level        `json:"level"`
	ProgressPercentage int          `json:"progress_percentage"`
	Position           Point        `json:"position"`
	NextRequired       int          `json:"next_required"`
	Unlocked           []Checkpoint `json:"unlocked"`
	Pin                Point        `json:"pin"`
}
