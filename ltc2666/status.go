package ltc2666

// Status is a snapshot of every status output of the integrated controller.
// Sticky flags stay up until ClearErrors.
type Status struct {
	Busy          bool   `json:"busy"`
	InitOK        bool   `json:"initOK"`
	InitFailed    bool   `json:"initFailed"`
	Configured    bool   `json:"configured"`
	EchoMismatch  bool   `json:"echoMismatch"`
	AlarmSticky   bool   `json:"alarmSticky"`
	RangeError    bool   `json:"rangeError"`
	ResetAsserted bool   `json:"resetAsserted"`
	LastExpected  uint32 `json:"lastExpected"`
	LastReceived  uint32 `json:"lastReceived"`
	LastTx        uint32 `json:"lastTx"`
	LastRx        uint32 `json:"lastRx"`
}
