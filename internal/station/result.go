package station

import (
	"encoding/json"
	"time"
)

// StatusClass categorizes a workflow outcome independently of transport.
// The HTTP layer maps these onto status codes.
type StatusClass int

const (
	StatusSuccess StatusClass = iota
	StatusPending
	StatusNotFound
	StatusPreconditionFailed
	StatusConflict
)

// String implements [fmt.Stringer].
func (s StatusClass) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPending:
		return "pending"
	case StatusNotFound:
		return "not_found"
	case StatusPreconditionFailed:
		return "precondition_failed"
	case StatusConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the class as its string form.
func (s StatusClass) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ReasonCode identifies why a workflow stopped short of success.
type ReasonCode string

const (
	ReasonStationHasOwner              ReasonCode = "StationHasOwner"
	ReasonStationHasNoOwner            ReasonCode = "StationHasNoOwner"
	ReasonStationOwnersDeviceNotActive ReasonCode = "StationOwnersDeviceNotActive"
	ReasonUserDeviceNotActive          ReasonCode = "UserDeviceNotActive"
	ReasonContextNotSupported          ReasonCode = "ContextNotSupported"
)

// LogEntry is one diagnostic event recorded during a workflow. Properties
// carry identifiers, Metrics carry timing measurements in milliseconds.
type LogEntry struct {
	Time       time.Time          `json:"time"`
	Message    string             `json:"message"`
	Properties map[string]string  `json:"properties,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// Result is the outcome of a Coordinator workflow. Expected failures
// (missing owner, inactive device, unsupported context) are Results, not
// errors, so callers can relay them to the user.
type Result struct {
	Status  StatusClass `json:"status"`
	Success bool        `json:"success"`
	Code    ReasonCode  `json:"code,omitempty"`
	Message string      `json:"message"`
	Logs    []LogEntry  `json:"logs,omitempty"`
}

func newResult() *Result {
	return &Result{}
}

func (r *Result) appendLog(message string, properties map[string]string, metrics map[string]float64) {
	r.Logs = append(r.Logs, LogEntry{
		Time:       time.Now(),
		Message:    message,
		Properties: properties,
		Metrics:    metrics,
	})
}

func (r *Result) succeed(message string) *Result {
	r.Status = StatusSuccess
	r.Success = true
	r.Message = message
	return r
}

func (r *Result) fail(status StatusClass, code ReasonCode, message string) *Result {
	r.Status = status
	r.Success = false
	r.Code = code
	r.Message = message
	return r
}
