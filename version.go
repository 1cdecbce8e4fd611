package cascade

import _ "embed"

// Version is the release of the cascade module, read from the VERSION file.
//
//go:embed VERSION
var Version string
