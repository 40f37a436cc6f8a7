package models

// TokenCleanupReport summarizes a sweep of implausible delivery tokens.
type TokenCleanupReport struct {
	Cleared        int64 `json:"cleared"`
	Remaining      int64 `json:"remaining"`
	MinTokenLength int   `json:"minTokenLength"`
}

// LegacyCleanupReport summarizes removal of the legacy follower list.
type LegacyCleanupReport struct {
	Deleted int64 `json:"deleted"`
}
