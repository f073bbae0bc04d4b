package tagging

import "time"

// Retry defaults.
const (
	DefaultMaxRetries = 5
	DefaultBaseDelay  = time.Second
)

// Run record listing bounds.
const (
	defaultRunListLimit = 50
	maxRunListLimit     = 500
)

// Log field keys.
const (
	logKeyEntityID   = "entity_id"
	logKeyEntityType = "entity_type"
	logKeyAttempt    = "attempt"
	logKeyStatus     = "status"
	logKeyDuration   = "duration"
	logKeyTag        = "tag"
	logKeyProvider   = "provider"
)

// Generation outcome label values.
const (
	outcomeSuccess       = "success"
	outcomeExhausted     = "exhausted"
	outcomePersistFailed = "persist_failed"
	outcomeCanceled      = "canceled"
)
