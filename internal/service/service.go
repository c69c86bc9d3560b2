// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

// Package service contains the business logic of the events service,
// including the occurrence engine (canonicalize, interpret, expand,
// resolve) and the write operations for definitions and overrides.
package service

// ServiceConfig holds cross-cutting configuration for the services.
type ServiceConfig struct {
	// SkipRevisionValidation disables optimistic-concurrency checks on
	// writes, for local development only.
	SkipRevisionValidation bool

	// VerificationStalenessDays controls when a verified definition
	// degrades to needs_verification. Zero means the default horizon.
	VerificationStalenessDays int
}
