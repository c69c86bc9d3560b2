// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

// Package constants holds shared HTTP header names.
package constants

// Constants for the HTTP request headers
const (
	// EtagHeader is the header name for the ETag
	EtagHeader string = "ETag"

	// IfMatchHeader carries the revision a conditional write expects
	IfMatchHeader string = "If-Match"

	// RequestIDHeader is the header name for the request ID
	RequestIDHeader string = "X-REQUEST-ID"
)
