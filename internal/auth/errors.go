// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
// Repository reads also return it for soft-deleted users: an inactive
// account is indistinguishable from a missing one.
var ErrNotFound = errors.New("not found")
