// Package snapshot persists campus documents and holds the immutable graph
// that routing reads.
package snapshot

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/dd0wney/campusnav/pkg/campus"
	"github.com/dd0wney/campusnav/pkg/constraints"
)

// Snapshot is a published, immutable campus graph. Nothing may mutate Graph
// once the snapshot is built.
type Snapshot struct {
	Graph       *campus.Graph
	Fingerprint string
	SizeBytes   int
	LoadedAt    time.Time
	Source      string
	Validation  *constraints.ValidationResult
}

// Encode writes a document as indented JSON, the form kept on disk
func Encode(doc *campus.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a persisted document
func Decode(data []byte) (*campus.Document, error) {
	var doc campus.Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, &DecodeError{Cause: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &DecodeError{Cause: errors.New("trailing data after document")}
	}
	if doc.Version > campus.CurrentVersion {
		return nil, &DecodeError{Cause: fmt.Errorf("unsupported version %d", doc.Version)}
	}
	return &doc, nil
}

// Fingerprint returns the hex BLAKE2b-256 digest of the compact JSON form of
// doc. Two documents with the same content have the same fingerprint
// regardless of how they were indented on disk.
func Fingerprint(doc *campus.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// BuildOptions control how a document becomes a Snapshot
type BuildOptions struct {
	// AllowInvalid publishes documents with error-severity violations as long
	// as campus.FromDocument accepts them.
	AllowInvalid bool
	// ShortSegmentM is passed to the validator
	ShortSegmentM float64
	Source        string
}

// Build validates doc and turns it into an immutable snapshot
func Build(doc *campus.Document, opts BuildOptions) (*Snapshot, error) {
	result, err := constraints.DefaultValidator(opts.ShortSegmentM).Validate(doc)
	if err != nil {
		return nil, err
	}
	if !result.Valid && !opts.AllowInvalid {
		return nil, &InvalidError{Result: result}
	}

	g, err := campus.FromDocument(doc)
	if err != nil {
		return nil, &InvalidError{Result: result, Cause: err}
	}

	fp, err := Fingerprint(doc)
	if err != nil {
		return nil, err
	}
	compact, _ := json.Marshal(doc)

	return &Snapshot{
		Graph:       g,
		Fingerprint: fp,
		SizeBytes:   len(compact),
		LoadedAt:    time.Now(),
		Source:      opts.Source,
		Validation:  result,
	}, nil
}

// BlockedEdgeCount counts edges excluded by flag or override
func (s *Snapshot) BlockedEdgeCount() int {
	n := 0
	for _, e := range s.Graph.Edges() {
		if e.Flags.Blocked || s.Graph.IsOverridden(e.ID) {
			n++
		}
	}
	return n
}
