// Package source reads events from proio and nano ROOT files.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/decibelcooper/eicana/config"
	"github.com/decibelcooper/eicana/event"
	"github.com/decibelcooper/eicana/nano"
)

// Source is a stream of events.
type Source interface {
	// Scan calls fn for each event, in file order, until fn returns an
	// error or the context is done.
	Scan(ctx context.Context, fn func(evt *event.Event) error) error
	Close() error
}

// Open opens an event file, dispatching on its extension:
// ".root" files are nano files, everything else is read as proio.
func Open(fname string, tags config.Tags) (Source, error) {
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".root":
		src, err := nano.Open(fname)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		src, err := OpenProio(fname, tags)
		if err != nil {
			return nil, fmt.Errorf("could not open proio file %q: %w", fname, err)
		}
		return src, nil
	}
}

// Each opens fname and calls fn on all its events.
func Each(ctx context.Context, fname string, tags config.Tags, fn func(evt *event.Event) error) error {
	src, err := Open(fname, tags)
	if err != nil {
		return err
	}

	err = src.Scan(ctx, fn)
	cerr := src.Close()
	if err != nil {
		return fmt.Errorf("could not scan %q: %w", fname, err)
	}
	if cerr != nil {
		return fmt.Errorf("could not close %q: %w", fname, cerr)
	}
	return nil
}
