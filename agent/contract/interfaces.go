package contract

import "context"

// IntentClassifier maps a message plus bounded recent context to a ranked list
// of department candidates. Implementations may call an external model; the
// router only depends on this contract and treats every failure as
// ErrClassificationUnavailable.
type IntentClassifier interface {
	Classify(ctx context.Context, req ClassifyRequest) ([]Intent, error)
}

// Summarizer condenses transcript turns into a context field handed to the
// next owner, so the receiving specialist does not need the raw transcript.
type Summarizer interface {
	Summarize(ctx context.Context, turns []TranscriptTurn) (string, error)
}

// TranscriptTurn mirrors state.Turn without importing the state package, so
// summarizer implementations stay free of store concerns.
type TranscriptTurn struct {
	Role  string `json:"role"`
	Agent string `json:"agent,omitempty"`
	Text  string `json:"text"`
}
