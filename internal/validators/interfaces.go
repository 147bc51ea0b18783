// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators provides input validation for everything that crosses
// the network boundary: submitted actions, device registrations and
// conflict resolutions.
//
// Action payloads are checked against an embedded CUE schema, one
// definition per action type. Envelope rules (ids, tags, dependencies)
// are plain Go.
package validators

import "context"

// Validator defines a generic validation interface for arbitrary input values.
type Validator interface {

	// Validate validates the provided input and optionally
	// restricts validation to specific named fields.
	Validate(context.Context, any, ...string) error
}
