// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package domain

import "context"

// EmailDigest is the rendered weekly digest addressed to one member.
type EmailDigest struct {
	RecipientEmail string
	Subject        string
	HTMLContent    string
	TextContent    string
}

// EmailService sends member-facing email. Implementations must be safe
// for concurrent use; digest fan-out sends from a worker pool.
type EmailService interface {
	SendDigest(ctx context.Context, digest EmailDigest) error
}
