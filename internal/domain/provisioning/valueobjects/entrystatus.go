package valueobjects

type EntryStatus string

const (
	EntryPending    EntryStatus = "pending"
	EntryInProgress EntryStatus = "in_progress"
	EntryDone       EntryStatus = "done"
	EntryFailed     EntryStatus = "failed"
)

func (s EntryStatus) String() string {
	return string(s)
}

// IsActive reports whether the entry still occupies its (instance,
// operation) uniqueness slot.
func (s EntryStatus) IsActive() bool {
	return s == EntryPending || s == EntryInProgress
}

var ValidEntryStatuses = map[EntryStatus]bool{
	EntryPending:    true,
	EntryInProgress: true,
	EntryDone:       true,
	EntryFailed:     true,
}
