package ltc2666

// alarmMonitor edge-detects the device's active-low fault line.  Each tick
// samples the level; a high-to-low transition emits a one-tick notification
// and sets a sticky latch.  Further edges re-notify but leave the latch
// alone; only an explicit clear releases it.
type alarmMonitor struct {
	previous bool
	sticky   bool
	notice   bool
}

func newAlarmMonitor() alarmMonitor {
	// the line idles high; starting low is not an edge
	return alarmMonitor{previous: true}
}

// sample processes one tick's level
func (a *alarmMonitor) sample(level bool) {
	a.notice = a.previous && !level
	if a.notice {
		a.sticky = true
	}
	a.previous = level
}

func (a *alarmMonitor) clear() {
	a.sticky = false
}
