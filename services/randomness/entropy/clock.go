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

import "time"

// Clock abstracts wall-clock access for the collector and coordinator.
//
// # Description
//
// Every source formula is a deterministic function of the current time
// and a draw counter, and staleness checks compare pool age against a
// threshold. Injecting the clock lets tests pin both behaviors without
// sleeping.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time
}

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
