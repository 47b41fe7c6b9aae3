// Package sessionfile implements the StreamingParser (spec §4.4): it
// reads a session file one line at a time, classifies each line via
// internal/events, and yields the result without ever buffering the
// whole file. Malformed lines are recovered as Skipped events rather
// than aborting the read.
package sessionfile

import (
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"strings"

	"github.com/memory-nexus/memory-nexus/internal/errs"
	"github.com/memory-nexus/memory-nexus/internal/events"
)

// ClassifiedEvent pairs a classified event with its 1-based line
// number in the source file, used for diagnostics (spec §4.4's
// "Skipped{reason:\"Empty line at N\"}" and "Malformed JSON at line N").
type ClassifiedEvent struct {
	Line    int
	RawLine string
	Event   events.Event
}

// Parse opens path and returns a lazy sequence of classified events.
// Each line is read, classified, and yielded immediately — callers
// can break out of the range early without reading the rest of the
// file, and the underlying file is closed either when the sequence is
// exhausted or when the caller stops ranging over it.
//
// Parse itself only returns an error for FileUnreadable conditions
// (the file cannot be opened); malformed content within an open file
// never surfaces as an error, only as Skipped events within the
// sequence.
func Parse(path string) (iter.Seq[ClassifiedEvent], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrFileUnreadable, path, err)
	}

	return func(yield func(ClassifiedEvent) bool) {
		defer f.Close()
		lr := newLineReader(f)
		lineNo := 0
		for {
			raw, ok := lr.next()
			if !ok {
				return
			}
			lineNo++

			trimmed := strings.TrimSpace(raw)
			if trimmed == "" {
				ev := events.Event{
					Kind:    events.KindSkipped,
					Skipped: &events.Skipped{Reason: fmt.Sprintf("Empty line at %d", lineNo)},
				}
				if !yield(ClassifiedEvent{Line: lineNo, Event: ev}) {
					return
				}
				continue
			}

			ev := classifyLine(trimmed, lineNo)
			if !yield(ClassifiedEvent{Line: lineNo, RawLine: trimmed, Event: ev}) {
				return
			}
		}
	}, nil
}

func classifyLine(line string, lineNo int) events.Event {
	if !json.Valid([]byte(line)) {
		var syntaxErr error
		if err := json.Unmarshal([]byte(line), &struct{}{}); err != nil {
			syntaxErr = err
		}
		return events.Event{
			Kind: events.KindSkipped,
			Skipped: &events.Skipped{
				Reason: fmt.Sprintf("Malformed JSON at line %d: %v", lineNo, syntaxErr),
			},
		}
	}
	return events.Classify(line)
}
