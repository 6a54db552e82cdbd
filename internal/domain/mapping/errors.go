package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/estemplate/internal/domain/schema"
)

var (
	// ErrUnsupportedFieldType signals a field kind with no registered rule.
	ErrUnsupportedFieldType = errors.New("unsupported field type")
	// ErrIncompleteRegistry signals a renderer missing a rule for a built-in kind.
	ErrIncompleteRegistry = errors.New("incomplete renderer registry")
	// ErrMalformedField signals a field whose kind promises attributes it does not expose.
	ErrMalformedField = errors.New("malformed field")
	// ErrRecursiveDocument signals a document that references itself, directly or not.
	ErrRecursiveDocument = errors.New("recursive document reference")
	// ErrReservedField signals a declared field colliding with an injected one.
	ErrReservedField = errors.New("reserved field name")
)

// UnsupportedFieldTypeError carries the kind and Go type of the field that
// could not be rendered.
type UnsupportedFieldTypeError struct {
	Kind   schema.Kind
	GoType string
}

func (e *UnsupportedFieldTypeError) Error() string {
	return fmt.Sprintf("%s: kind %q (%s)", ErrUnsupportedFieldType, e.Kind, e.GoType)
}

func (e *UnsupportedFieldTypeError) Unwrap() error { return ErrUnsupportedFieldType }

// RecursiveDocumentError lists the document chain that closed a cycle.
type RecursiveDocumentError struct {
	Path []string
}

func (e *RecursiveDocumentError) Error() string {
	return ErrRecursiveDocument.Error() + ": " + strings.Join(e.Path, " -> ")
}

func (e *RecursiveDocumentError) Unwrap() error { return ErrRecursiveDocument }

// ReservedFieldError names the document declaring a reserved field.
type ReservedFieldError struct {
	Document string
	Field    string
}

func (e *ReservedFieldError) Error() string {
	return fmt.Sprintf("%s: document %q declares %q", ErrReservedField, e.Document, e.Field)
}

func (e *ReservedFieldError) Unwrap() error { return ErrReservedField }

func malformed(f schema.Field, want string) error {
	return fmt.Errorf("%w: %s field %T has no %s", ErrMalformedField, f.Kind(), f, want)
}
