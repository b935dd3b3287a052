// Copyright 2022 Authors of spidernet-io
// SPDX-License-Identifier: Apache-2.0

package types

import "context"

// Service is what a cobra command runs. Start blocks until ctx is cancelled
// or the service fails, and a clean shutdown returns nil.
type Service interface {
	Start(ctx context.Context) error
}
