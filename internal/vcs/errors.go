package vcs

import (
	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
)

// ErrUnsupported signals an operation the client cannot perform.
var ErrUnsupported = ferrors.VCSError("operation not supported by this client").
	WithRetry(ferrors.RetryNever).Build()
