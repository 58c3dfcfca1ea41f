package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gstvribs/ng-packagr/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean" validate:"required,filepath"`
}

// Prepare creates initialized empty reporter.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{entries: make(map[string]entry)}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

type entry struct {
	path  string
	stamp time.Time
	data  []byte
}

// Report accumulates compile artifacts (configuration, logs, intermediate
// and final CSS) to be archived for troubleshooting.
// NOTE: presently not to be used concurrently!
type Report struct {
	entries map[string]entry
	file    *os.File
}

// Store saves path to a file to be put in the final archive later. All
// methods are safe on nil receiver - this means no report was requested.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if old, exists := r.entries[name]; exists && old.path != path {
		// Somewhere I do not know what I am doing.
		panic(fmt.Sprintf("Attempt to overwrite file in the report for [%s]: was %s, now %s", name, old.path, path))
	}
	e := entry{path: path, stamp: time.Now()}
	if p, err := filepath.Abs(path); err == nil {
		e.path = p
	}
	r.entries[name] = e
}

// StoreData saves binary data to be put in the final archive later as a
// file under requested name. Repeated names are versioned with timestamps.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	if _, exists := r.entries[name]; exists {
		name = fmt.Sprintf("%s-%d", name, time.Now().UnixNano())
	}
	r.entries[name] = entry{data: data, stamp: time.Now()}
}

// Name returns name of underlying archive file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Close finalizes debug report.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()
	return r.finalize()
}

func (r *Report) finalize() error {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	w := zip.NewWriter(r.file)
	defer w.Close()

	for _, name := range names {
		e := r.entries[name]
		if e.data != nil {
			if err := writeArchiveFile(w, name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}
		f, err := os.Open(e.path)
		if err != nil {
			// file may be gone by now, keep the rest of the report
			continue
		}
		err = writeArchiveFile(w, name, e.stamp, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeArchiveFile(w *zip.Writer, name string, stamp time.Time, from io.Reader) error {
	out, err := w.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: stamp,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(out, from)
	return err
}
