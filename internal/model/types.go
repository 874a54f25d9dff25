package model

// DoseStatus is the closed set of states a dose instance can be in.
// Instances with no persisted record are always StatusUpcoming.
type DoseStatus string

const (
	StatusUpcoming DoseStatus = "upcoming"
	StatusOverdue  DoseStatus = "overdue"
	StatusTaken    DoseStatus = "taken"
	StatusMissed   DoseStatus = "missed"
)

// Valid reports whether s is one of the four known statuses.
func (s DoseStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOverdue, StatusTaken, StatusMissed:
		return true
	}
	return false
}

// Frequency describes how often a medicine is taken per day.
type Frequency string

const (
	FrequencyOnceDaily      Frequency = "once-daily"
	FrequencyTwiceDaily     Frequency = "twice-daily"
	FrequencyThriceDaily    Frequency = "three-times-daily"
	FrequencyFourTimesDaily Frequency = "four-times-daily"
	FrequencyAsNeeded       Frequency = "as-needed"
	FrequencyCustom         Frequency = "custom"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnceDaily, FrequencyTwiceDaily, FrequencyThriceDaily,
		FrequencyFourTimesDaily, FrequencyAsNeeded, FrequencyCustom:
		return true
	}
	return false
}

// DefaultTimings returns the standard dose times for a frequency.
// As-needed and custom schedules start with no timings.
func (f Frequency) DefaultTimings() []string {
	switch f {
	case FrequencyOnceDaily:
		return []string{"08:00"}
	case FrequencyTwiceDaily:
		return []string{"08:00", "20:00"}
	case FrequencyThriceDaily:
		return []string{"08:00", "14:00", "20:00"}
	case FrequencyFourTimesDaily:
		return []string{"08:00", "12:00", "16:00", "20:00"}
	default:
		return nil
	}
}

// RequiresTimings reports whether the frequency must carry at least one timing.
func (f Frequency) RequiresTimings() bool {
	return f != FrequencyAsNeeded && f != FrequencyCustom
}

// Category classifies the medicine's form.
type Category string

const (
	CategoryPills     Category = "pills"
	CategoryLiquid    Category = "liquid"
	CategoryInjection Category = "injection"
	CategoryInhaler   Category = "inhaler"
	CategoryOther     Category = "other"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryPills, CategoryLiquid, CategoryInjection, CategoryInhaler, CategoryOther:
		return true
	}
	return false
}
