// Package audit keeps a bounded in-memory history of graph edits.
package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultBufferSize is the number of events kept when no size is given
const DefaultBufferSize = 1000

// ResourceType is the kind of campus element an edit touched
type ResourceType string

const (
	ResourceGraph    ResourceType = "graph"
	ResourceNode     ResourceType = "node"
	ResourceEdge     ResourceType = "edge"
	ResourceBuilding ResourceType = "building"
	ResourceSettings ResourceType = "settings"
	ResourceSnapshot ResourceType = "snapshot"
)

// Status represents the outcome of an edit
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Event represents a single history entry
type Event struct {
	ID           string       `json:"id"`
	Timestamp    time.Time    `json:"timestamp"`
	Actor        string       `json:"actor,omitempty"`
	Operation    string       `json:"operation"`
	ResourceType ResourceType `json:"resource_type"`
	ResourceID   string       `json:"resource_id,omitempty"`
	Status       Status       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	// Revision is the editor revision after the edit
	Revision uint64 `json:"revision"`
}

// Filter represents filtering criteria for history events
type Filter struct {
	Actor        string
	Operation    string
	ResourceType ResourceType
	ResourceID   string
	Status       Status
	StartTime    *time.Time
	EndTime      *time.Time
}

func (f *Filter) matches(e *Event) bool {
	if f == nil {
		return true
	}
	switch {
	case f.Actor != "" && e.Actor != f.Actor,
		f.Operation != "" && e.Operation != f.Operation,
		f.ResourceType != "" && e.ResourceType != f.ResourceType,
		f.ResourceID != "" && e.ResourceID != f.ResourceID,
		f.Status != "" && e.Status != f.Status,
		f.StartTime != nil && e.Timestamp.Before(*f.StartTime),
		f.EndTime != nil && e.Timestamp.After(*f.EndTime):
		return false
	}
	return true
}

// AuditLogger keeps the most recent events in a circular buffer
type AuditLogger struct {
	events     []*Event
	bufferSize int
	index      int
	count      int
	mu         sync.RWMutex
}

// NewAuditLogger creates a logger holding up to bufferSize events
func NewAuditLogger(bufferSize int) *AuditLogger {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &AuditLogger{
		events:     make([]*Event, bufferSize),
		bufferSize: bufferSize,
	}
}

// Log records an event, filling in its ID and timestamp when unset
func (l *AuditLogger) Log(event *Event) error {
	if event == nil {
		return fmt.Errorf("audit: nil event")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	l.events[l.index] = event
	l.index = (l.index + 1) % l.bufferSize
	if l.count < l.bufferSize {
		l.count++
	}
	return nil
}

// GetEvents returns the stored events matching filter, oldest first
func (l *AuditLogger) GetEvents(filter *Filter) []*Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*Event, 0, l.count)
	for i := 0; i < l.count; i++ {
		idx := (l.index - l.count + i + l.bufferSize) % l.bufferSize
		if event := l.events[idx]; event != nil && filter.matches(event) {
			result = append(result, event)
		}
	}
	return result
}

// GetRecentEvents returns up to n events matching filter, newest first
func (l *AuditLogger) GetRecentEvents(n int, filter *Filter) []*Event {
	if n <= 0 {
		return nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*Event, 0, min(n, l.count))
	for i := 0; i < l.count && len(result) < n; i++ {
		idx := (l.index - 1 - i + l.bufferSize) % l.bufferSize
		if event := l.events[idx]; event != nil && filter.matches(event) {
			result = append(result, event)
		}
	}
	return result
}

// GetEventCount returns the number of events currently stored
func (l *AuditLogger) GetEventCount() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int64(l.count)
}

// Clear removes all events
func (l *AuditLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = make([]*Event, l.bufferSize)
	l.index = 0
	l.count = 0
}

// String returns a human-readable representation of an event
func (e *Event) String() string {
	s := fmt.Sprintf("[%s] r%d %s %s %s %s (%s)",
		e.Timestamp.Format(time.RFC3339),
		e.Revision,
		e.Actor,
		e.Operation,
		e.ResourceType,
		e.ResourceID,
		e.Status,
	)
	if e.ErrorMessage != "" {
		s += ": " + e.ErrorMessage
	}
	return s
}
