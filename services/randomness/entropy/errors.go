// Copyright (C) 2025 Silver Lining AI (dev@silverlining.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package entropy

import "errors"

// Sentinel errors returned by the entropy cache.
//
// Callers should test with errors.Is; the HTTP layer maps
// ErrInvalidArgument to 400 and ErrNotReady to 503.
var (
	// ErrInvalidArgument indicates a request parameter outside its
	// documented bounds (count below 1, count above the per-cache
	// maximum, or an unknown cache name).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotReady indicates no generation has been published yet.
	// The coordinator builds synchronously on first read, so this is
	// only surfaced by embedders that disable the eager startup build.
	ErrNotReady = errors.New("entropy cache not ready")
)
