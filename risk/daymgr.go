package risk

import (
	"time"
)

// DayManager triggers the governor's daily reset when the trading day rolls
// over in a configured timezone. The engine calls RolloverIfNeeded once per
// consumed bar. Extra calls within the same day are no-ops, so a timer may
// also drive it.
type DayManager struct {
	loc     *time.Location
	dayOpen time.Time
}

func NewDayManager(tz string) (*DayManager, error) {
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	return &DayManager{loc: loc}, nil
}

func (dm *DayManager) todayOpen(now time.Time) time.Time {
	y, m, d := now.In(dm.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, dm.loc)
}

// RolloverIfNeeded resets the governor's daily counters when now has crossed
// into a new trading day. Returns true when a rollover happened.
func (dm *DayManager) RolloverIfNeeded(now time.Time, g *Governor) bool {
	open := dm.todayOpen(now)

	if dm.dayOpen.IsZero() {
		// First observation anchors the day; nothing to reset yet.
		dm.dayOpen = open
		return false
	}
	if open.Equal(dm.dayOpen) {
		return false
	}

	dm.dayOpen = open
	g.ResetDaily()
	return true
}
