// Package id generates prefixed unique identifiers for API-facing
// resources. Content-derived identifiers (items, groups, series) are
// built elsewhere from their source data so re-ingestion stays stable.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Resource prefixes.
const (
	PrefixJob = "job"
)

// Generate creates a prefixed unique ID using NanoID,
// e.g. "job-V1StGXR8_Z5jdHi6B-myT".
//
// Returns an error if the system has insufficient entropy for secure
// random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics on failure. Use during
// initialization where a missing entropy source should crash.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewJobID returns a fresh identifier for one ingestion run.
func NewJobID() (string, error) {
	return Generate(PrefixJob)
}
