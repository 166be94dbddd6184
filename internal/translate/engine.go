package translate

// Engine is the inference collaborator behind the pool. Each worker owns one
// instance and never shares it, so Translate calls on a single instance never
// overlap and implementations need no internal locking for them.
type Engine interface {
	// Translate decodes one batch and returns exactly one Result per input,
	// in input order, hypotheses ordered by descending score.
	Translate(batch [][]string, opts Options) ([]Result, error)
	// Close releases model and device resources.
	Close() error
}

// Loader opens one Engine instance bound to a device. The pool invokes it
// once per worker during construction.
type Loader func(modelPath, device string, deviceIndex int) (Engine, error)
