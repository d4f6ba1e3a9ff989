package core

import (
	"time"
)

// TaskPrefix is the reserved prefix of every OS scheduler entry this system owns.
const TaskPrefix = "Essay_"

// Frequency describes how often a schedule fires.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// MonthlyKind tags the variant of a MonthlySpec. The values double as the
// catalog's monthly_type field.
type MonthlyKind string

const (
	MonthlyDate        MonthlyKind = "date"
	MonthlyNthWeekday  MonthlyKind = "nth"
	MonthlyLastWeekday MonthlyKind = "last_weekday"
	MonthlyLastDay     MonthlyKind = "last_day"
)

// MonthlySpec is the parsed form of a monthly day_spec.
//
// Day is set for MonthlyDate, Ordinal and Weekday for MonthlyNthWeekday,
// Weekday for MonthlyLastWeekday. MonthlyLastDay carries no fields.
type MonthlySpec struct {
	Kind    MonthlyKind
	Day     int
	Ordinal int
	Weekday time.Weekday
}

// Pattern is a validated recurrence.
type Pattern struct {
	Frequency Frequency
	Hour      int
	Minute    int
	Weekday   time.Weekday // weekly only
	Monthly   MonthlySpec  // monthly only
}

// Clock returns the HH:MM form of the pattern's time of day.
func (p Pattern) Clock() string {
	return formatClock(p.Hour, p.Minute)
}

// Registration is what an OS scheduler backend is asked to install.
type Registration struct {
	TaskName string
	Command  string
	Pattern  Pattern
}

// ScheduleRequest carries the user's intent for a recurring essay.
type ScheduleRequest struct {
	Name      string
	Frequency string
	Time      string
	Weekday   string
	DaySpec   string
	Theme     string
	Context   string
	FileList  string
	Lang      string
}

// WaitRequest carries the payload for a one-shot waiter.
type WaitRequest struct {
	Target   string
	Theme    string
	Context  string
	FileList string
	Lang     string
}

// ScheduleEntry is one row of schedules.json.
type ScheduleEntry struct {
	Name        string `json:"name"`
	Frequency   string `json:"frequency"`
	Time        string `json:"time"`
	Weekday     string `json:"weekday"`
	DaySpec     string `json:"day_spec"`
	MonthlyType string `json:"monthly_type"`
	Theme       string `json:"theme"`
	Context     string `json:"context"`
	FileList    string `json:"file_list"`
	Lang        string `json:"lang"`
	Created     string `json:"created"`
}

// WaiterEntry is one row of active_waiters.json.
type WaiterEntry struct {
	PID          int    `json:"pid"`
	TargetTime   string `json:"target_time"`
	Theme        string `json:"theme"`
	RegisteredAt string `json:"registered_at"`
}

// ScheduleStatus classifies a listed schedule against the OS scheduler.
type ScheduleStatus string

const (
	StatusActive   ScheduleStatus = "active"
	StatusOrphaned ScheduleStatus = "orphaned"
	StatusOSOnly   ScheduleStatus = "os-only"
)

// ListedSchedule is one record produced by Scheduler.List.
type ListedSchedule struct {
	Name    string
	Status  ScheduleStatus
	Entry   *ScheduleEntry
	NextRun *time.Time
}

// AddResult describes a successful registration.
type AddResult struct {
	Entry      ScheduleEntry
	Command    string
	RunnerPath string
	NextRun    *time.Time
}

// RemoveResult describes the outcome of Scheduler.Remove.
type RemoveResult struct {
	Name             string
	Found            bool
	SchedulerRemoved bool
	RunnerRemoved    bool
}

// WaitResult describes a spawned waiter.
type WaitResult struct {
	PID        int
	Target     time.Time
	ScriptPath string
	LogPath    string
	Command    string
}

// EventKind names a history journal event.
type EventKind string

const (
	EventScheduleAdded      EventKind = "schedule_added"
	EventScheduleRemoved    EventKind = "schedule_removed"
	EventScheduleRolledBack EventKind = "schedule_rolled_back"
	EventWaiterStarted      EventKind = "waiter_started"
)

// Event is a single history journal record.
type Event struct {
	ID        string
	Kind      EventKind
	TaskName  string
	Detail    string
	CreatedAt time.Time
}
