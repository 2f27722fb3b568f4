package compare

import (
	"fmt"
	"strings"

	"github.com/synocheck/synocheck/internal/source"
)

// Request is the inline-payload form of a comparison, accepted by the HTTP
// API and carried through Kafka for asynchronous jobs.
type Request struct {
	Synonyms  string `json:"synonyms"`
	Reference string `json:"reference"`
	Candidate string `json:"candidate"`
	TupleSize int    `json:"tuple_size"`
}

// Inputs converts the request payloads into comparison sources.
func (r *Request) Inputs() Inputs {
	return Inputs{
		Synonyms:  source.LinesOf(r.Synonyms),
		Reference: source.WordsOf(r.Reference),
		Candidate: source.WordsOf(r.Candidate),
		TupleSize: r.TupleSize,
	}
}

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// Validate checks payload sizes and the tuple size. Empty reference and
// candidate documents are allowed: the engine defines their result. A
// missing tuple size (zero) is allowed and defaulted downstream; a negative
// one is rejected.
func Validate(req *Request, maxDocumentBytes int) error {
	errs := make(map[string]string)

	if req.TupleSize < 0 {
		errs["tuple_size"] = "tuple size must be a positive integer"
	}
	if len(req.Synonyms) > maxDocumentBytes {
		errs["synonyms"] = fmt.Sprintf("synonyms must be at most %d bytes", maxDocumentBytes)
	}
	if len(req.Reference) > maxDocumentBytes {
		errs["reference"] = fmt.Sprintf("reference must be at most %d bytes", maxDocumentBytes)
	}
	if len(req.Candidate) > maxDocumentBytes {
		errs["candidate"] = fmt.Sprintf("candidate must be at most %d bytes", maxDocumentBytes)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
