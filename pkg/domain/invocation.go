package domain

// Artifact is an input file processed by one traversal.
type Artifact struct {
	// Path is the location the artifact was read from.
	Path string `json:"path"`
	// Key groups the outputs of the traversal (the file stem by default).
	Key     string `json:"key"`
	Content string `json:"-"`
}

// Invocation is one execution of a step within an artifact traversal.
type Invocation struct {
	RunID    string
	Artifact Artifact
	Step     string

	// InputPath and Input describe the file that triggered this invocation:
	// the artifact itself for an entry step, the upstream output otherwise.
	InputPath string
	Input     string

	// Chain lists the ancestors on the traversal path, oldest first.
	Chain []string

	Context *RunContext
}
