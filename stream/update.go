package stream

// Status identifies a phase of a streaming session.
type Status string

const (
	StatusInitializing   Status = "initializing"
	StatusSearching      Status = "searching"
	StatusSearchComplete Status = "search_complete"
	StatusGenerating     Status = "generating"
	StatusComplete       Status = "complete"
	StatusStopped        Status = "stopped"
	StatusError          Status = "error"
)

// terminal reports whether no further updates follow this status.
func (s Status) terminal() bool {
	return s == StatusComplete || s == StatusStopped || s == StatusError
}

// UpdateType discriminates the update variants on the wire.
type UpdateType string

const (
	UpdateStatus   UpdateType = "status"
	UpdateContent  UpdateType = "content"
	UpdateMetadata UpdateType = "metadata"
)

// Metadata is the final record of a session, emitted after generation.
type Metadata struct {
	ResultCount  int    `json:"result_count"`
	Supplemental bool   `json:"supplemental,omitempty"`
	SearchMS     int64  `json:"search_ms"`
	GenerateMS   int64  `json:"generate_ms"`
	Model        string `json:"model"`
}

// Update is one event in a session's output sequence. ResultCount is set
// on the search_complete status update.
type Update struct {
	Type        UpdateType `json:"type"`
	Status      Status     `json:"status,omitempty"`
	ResultCount int        `json:"result_count,omitempty"`
	Content     string     `json:"content,omitempty"`
	Error       string     `json:"error,omitempty"`
	Metadata    *Metadata  `json:"metadata,omitempty"`
}

func statusUpdate(s Status) Update {
	return Update{Type: UpdateStatus, Status: s}
}

func searchCompleteUpdate(count int) Update {
	return Update{Type: UpdateStatus, Status: StatusSearchComplete, ResultCount: count}
}

func contentUpdate(chunk string) Update {
	return Update{Type: UpdateContent, Content: chunk}
}

// errorUpdate carries a generic message only; the underlying error is
// logged by the session and never put on the wire.
func errorUpdate(message string) Update {
	return Update{Type: UpdateStatus, Status: StatusError, Error: message}
}
