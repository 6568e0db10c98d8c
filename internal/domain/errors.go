package domain

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable signals that no trained HMM is loaded. Callers
// degrade to the rule-based result and log once; never fatal.
var ErrModelUnavailable = errors.New("hmm model unavailable")

// DataQualityError marks a bar window too short, stale, or corrupt to
// classify. Classifiers recover from it locally by falling back to
// NEUTRAL; it is never surfaced to the caller as fatal.
type DataQualityError struct {
	Reason string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("data quality: %s", e.Reason)
}

// ConfigurationError marks an invalid playbook or threshold configuration
// (unknown regime/strategy key, missing weight). Fail fast; surfaced to
// the caller unchanged.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Key, e.Reason)
}
