// Package reader drives internal/master.Reader across a zone file and
// any files it $INCLUDEs, presenting the whole tree of files as one flat
// stream of records for internal/zones.LoadZone to consume.
package reader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"authoritative-core/internal/dnsname"
	"authoritative-core/internal/master"
)

// DefaultMaxIncludeDepth bounds how deeply $INCLUDE may nest before
// FileReaderIter gives up, guarding against include cycles that would
// otherwise recurse forever.
const DefaultMaxIncludeDepth = 10

// ErrIncludeDepthExceeded is reported when nested $INCLUDE directives
// exceed the configured maximum depth.
var ErrIncludeDepthExceeded = errors.New("reader: include depth exceeded")

// FileReaderError names the file a read error occurred in, since a
// FileReaderIter may be working through several nested files at once.
type FileReaderError struct {
	Path string
	Err  error
}

func (e *FileReaderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileReaderError) Unwrap() error {
	return e.Err
}

type frame struct {
	path string
	rd   *master.Reader
	f    *os.File
}

// FileReaderIter walks a zone file and its $INCLUDE tree as a single
// stream of records. It implements zones.RecordSource.
type FileReaderIter struct {
	stack    []frame
	maxDepth int
	current  master.Record
	err      error
	done     bool
}

// NewFileReaderIter opens path and returns an iterator over its records,
// resolving any $INCLUDE directives up to DefaultMaxIncludeDepth deep.
func NewFileReaderIter(path string) (*FileReaderIter, error) {
	return NewFileReaderIterWithDepth(path, DefaultMaxIncludeDepth)
}

// NewFileReaderIterWithDepth is NewFileReaderIter with an explicit
// include-depth limit.
func NewFileReaderIterWithDepth(path string, maxDepth int) (*FileReaderIter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileReaderError{Path: path, Err: err}
	}
	rd := master.NewReader(f)
	return &FileReaderIter{
		stack:    []frame{{path: path, rd: rd, f: f}},
		maxDepth: maxDepth,
	}, nil
}

// SetOrigin seeds the origin of the top-level file before scanning
// begins, e.g. to the zone's own apex name.
func (it *FileReaderIter) SetOrigin(name dnsname.Name) {
	if len(it.stack) == 0 {
		return
	}
	it.stack[0].rd.SetOrigin(&name)
}

// Scan advances to the next record, returning false at end of input or
// on error. It implements zones.RecordSource.
func (it *FileReaderIter) Scan() bool {
	if it.done {
		return false
	}
	for {
		if len(it.stack) == 0 {
			it.done = true
			return false
		}
		top := &it.stack[len(it.stack)-1]
		item, ok := top.rd.Next()
		if !ok {
			if err := top.rd.Err(); err != nil {
				it.fail(top.path, err)
				return false
			}
			top.f.Close()
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		switch item.Kind {
		case master.ItemRecord:
			it.current = item.Record
			return true
		case master.ItemInclude:
			if len(it.stack) >= it.maxDepth {
				it.fail(top.path, ErrIncludeDepthExceeded)
				return false
			}
			incPath := filepath.Join(filepath.Dir(top.path), item.IncludePath)
			f, err := os.Open(incPath)
			if err != nil {
				it.fail(incPath, err)
				return false
			}
			incRd := master.NewReader(f)
			if item.IncludeOrigin != nil {
				incRd.SetOrigin(item.IncludeOrigin)
			} else {
				incRd.SetOrigin(top.rd.Origin())
			}
			it.stack = append(it.stack, frame{path: incPath, rd: incRd, f: f})
			continue
		}
	}
}

func (it *FileReaderIter) fail(path string, err error) {
	it.err = &FileReaderError{Path: path, Err: err}
	for _, fr := range it.stack {
		fr.f.Close()
	}
	it.stack = nil
	it.done = true
}

// Record returns the record made current by the last successful Scan.
func (it *FileReaderIter) Record() master.Record {
	return it.current
}

// Err returns the error that ended the scan, if any.
func (it *FileReaderIter) Err() error {
	return it.err
}
