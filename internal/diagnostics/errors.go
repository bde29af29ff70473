package diagnostics

import "errors"

// errNotEmpty is wrapped by prepareDir when the configured diagnostics
// directory already has contents and force was not set.
var errNotEmpty = errors.New("diagnostics directory is not empty")
