package events

const VisitRecordedType = "visit.recorded"

// VisitRecorded is emitted once per stored visit, keyed by link code.
type VisitRecorded struct {
	EventID    string `json:"eventId"`
	VisitID    int64  `json:"visitId"`
	Kind       string `json:"kind"`
	LinkCode   string `json:"linkCode"`
	QRID       string `json:"qrId,omitempty"`
	OccurredAt string `json:"occurredAt"`
}
