package pipeline

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/minedocs/internal/resilience"
)

// FailureKind names the error category of a failed document.
type FailureKind string

const (
	KindExtraction  FailureKind = "extraction"
	KindInference   FailureKind = "inference"
	KindPersistence FailureKind = "persistence"
	KindListing     FailureKind = "listing"
)

// Stage is the last stage a document reached.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageText    Stage = "text"
	StageInfer   Stage = "infer"
	StageResolve Stage = "resolve"
	StagePersist Stage = "persist"
	StageDone    Stage = "done"
)

var (
	// ErrListing is returned by Run when the folder cannot be listed.
	ErrListing = eris.New("pipeline: listing failed")
	// ErrEmptyDocument means the blob store returned no bytes.
	ErrEmptyDocument = eris.New("pipeline: document has no content")
	// ErrInsufficientText means too little text was extracted to prompt on.
	ErrInsufficientText = eris.New("pipeline: insufficient text")
)

// ListingError reports a folder that could not be listed. It matches
// ErrListing and unwraps to the storage error, so callers can classify the
// cause.
type ListingError struct {
	Folder string
	Err    error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("pipeline: list %q: %v", e.Folder, e.Err)
}

func (e *ListingError) Unwrap() error { return e.Err }

func (e *ListingError) Is(target error) bool { return target == ErrListing }

// DocumentResult is the outcome for one document.
type DocumentResult struct {
	Name           string
	Path           string
	Stage          Stage
	Kind           FailureKind
	Class          resilience.Class
	Err            error
	PagesRead      int
	CompanyID      string
	CompanyCreated bool
	ProjectID      string
	ProjectName    string
	Highlights     int
	Duration       time.Duration
}

// OK reports whether the document was persisted.
func (r DocumentResult) OK() bool {
	return r.Err == nil && r.Stage == StageDone
}

// Report tallies a run.
type Report struct {
	Listed     int
	Candidates int
	Attempted  int
	Succeeded  int
	Failed     int
	Documents  []DocumentResult
}

func (r *Report) add(res DocumentResult) {
	r.Attempted++
	if res.OK() {
		r.Succeeded++
	} else {
		r.Failed++
	}
	r.Documents = append(r.Documents, res)
}

// Failures returns the failed documents.
func (r *Report) Failures() []DocumentResult {
	var out []DocumentResult
	for _, d := range r.Documents {
		if !d.OK() {
			out = append(out, d)
		}
	}
	return out
}

// ByKind counts failed documents per FailureKind.
func (r *Report) ByKind() map[FailureKind]int {
	out := make(map[FailureKind]int)
	for _, d := range r.Failures() {
		out[d.Kind]++
	}
	return out
}
