package qa

import "errors"

// Validation failures. The messages are the error kinds recorded in logs and metrics.
var (
	ErrEmptyAnswer     = errors.New("LLM_EMPTY_ANSWER")
	ErrNoCitations     = errors.New("LLM_NO_CITATIONS")
	ErrBadCitation     = errors.New("LLM_BAD_CITATION")
	ErrTooLong         = errors.New("LLM_TOO_LONG")
	ErrConfidenceRange = errors.New("LLM_CONFIDENCE_RANGE")
	ErrMalformedJSON   = errors.New("LLM_MALFORMED_JSON")
)

var validationKinds = []error{
	ErrEmptyAnswer,
	ErrNoCitations,
	ErrBadCitation,
	ErrTooLong,
	ErrConfidenceRange,
	ErrMalformedJSON,
}

var (
	ErrAskInProgress = errors.New("ask already in progress")
	ErrEmptyQuestion = errors.New("question is empty")
	ErrEmptyFact     = errors.New("fact text is empty")
)

// ValidationKind names the validation failure wrapped in err, or "" for any other error.
func ValidationKind(err error) string {
	for _, kind := range validationKinds {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return ""
}
