// Package jobspec builds immutable job specifications from operator input.
// Compilation is purely local: it never touches the network or the queue.
package jobspec

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Delivery is the delivery profile an encode targets.
type Delivery string

const (
	DeliveryEditorial Delivery = "editorial"
	DeliveryReview    Delivery = "review"
	DeliveryArchive   Delivery = "archive"
)

func (d Delivery) Valid() bool {
	switch d {
	case DeliveryEditorial, DeliveryReview, DeliveryArchive:
		return true
	}
	return false
}

// JobSpecification is an immutable description of an encode job prior to
// submission. The id is local only; once the engine accepts the job it
// assigns its own canonical id and the specification is discarded.
type JobSpecification struct {
	ID             string
	Name           string
	SourcePaths    []string
	OutputDir      string
	Codec          string
	Container      string
	NamingTemplate string
	Delivery       Delivery
	CreatedAt      time.Time
}

// Input is the operator-chosen settings a specification is compiled from.
type Input struct {
	Name           string
	SourcePaths    []string
	OutputDir      string
	Codec          string
	Container      string
	NamingTemplate string
	Delivery       Delivery
}

// ValidationError reports bad specification input. It is raised before
// anything else happens: a failed compilation mutates nothing.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid job specification: %s: %s", e.Field, e.Reason)
}

const defaultNamingTemplate = "{source}_{delivery}"

// Compile validates the input and returns a new immutable specification with
// a fresh id and timestamp.
func Compile(in Input) (JobSpecification, error) {
	if len(in.SourcePaths) == 0 {
		return JobSpecification{}, &ValidationError{Field: "sources", Reason: "at least one source path is required"}
	}
	for _, p := range in.SourcePaths {
		if !filepath.IsAbs(p) {
			return JobSpecification{}, &ValidationError{Field: "sources", Reason: fmt.Sprintf("source path %q is not absolute", p)}
		}
	}
	if in.OutputDir == "" {
		return JobSpecification{}, &ValidationError{Field: "output_dir", Reason: "output directory is required"}
	}
	if !filepath.IsAbs(in.OutputDir) {
		return JobSpecification{}, &ValidationError{Field: "output_dir", Reason: fmt.Sprintf("output directory %q is not absolute", in.OutputDir)}
	}
	if in.Codec == "" {
		return JobSpecification{}, &ValidationError{Field: "codec", Reason: "codec is required"}
	}
	if in.Container == "" {
		return JobSpecification{}, &ValidationError{Field: "container", Reason: "container is required"}
	}
	if !in.Delivery.Valid() {
		return JobSpecification{}, &ValidationError{Field: "delivery", Reason: fmt.Sprintf("unknown delivery type %q", in.Delivery)}
	}

	name := in.Name
	if name == "" {
		name = filepath.Base(in.SourcePaths[0])
	}
	tmpl := in.NamingTemplate
	if tmpl == "" {
		tmpl = defaultNamingTemplate
	}

	sources := make([]string, len(in.SourcePaths))
	copy(sources, in.SourcePaths)

	return JobSpecification{
		ID:             uuid.New().String(),
		Name:           name,
		SourcePaths:    sources,
		OutputDir:      in.OutputDir,
		Codec:          in.Codec,
		Container:      in.Container,
		NamingTemplate: tmpl,
		Delivery:       in.Delivery,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
