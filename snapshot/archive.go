package snapshot

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ArchiveDecodeError is returned when a snapshot archive can't be read or decoded
type ArchiveDecodeError struct {
	Path string
	Err  error
}

func (e *ArchiveDecodeError) Error() string {
	return fmt.Sprintf("decoding archive %s: %s", e.Path, e.Err)
}

// Unwrap returns the underlying cause
func (e *ArchiveDecodeError) Unwrap() error {
	return e.Err
}

var errNoMember = errors.New("archive contains no regular file")

// ReadArchive extracts the single JSON document inside the gzip-compressed
// tar archive at path and decodes it. A zero-length document yields nil
// records and no error
func ReadArchive(path string) ([]LineRecord, error) {
	tmpdir, err := os.MkdirTemp("", "tflstatus-")
	if err != nil {
		return nil, &ArchiveDecodeError{Path: path, Err: err}
	}
	defer os.RemoveAll(tmpdir)

	extracted, err := extract(path, tmpdir)
	if err != nil {
		return nil, &ArchiveDecodeError{Path: path, Err: err}
	}

	content, err := os.ReadFile(extracted)
	if err != nil {
		return nil, &ArchiveDecodeError{Path: path, Err: err}
	}
	if len(content) == 0 {
		return nil, nil
	}

	records := []LineRecord{}
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, &ArchiveDecodeError{Path: path, Err: err}
	}
	return records, nil
}

// extract writes the first regular member of the archive at path into dir
// and returns the path of the written file
func extract(path, dir string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return "", errNoMember
		}
		if err != nil {
			return "", err
		}
		if !header.FileInfo().Mode().IsRegular() {
			continue
		}

		// only the base name is kept so that members can't escape dir
		target := filepath.Join(dir, filepath.Base(header.Name))
		out, err := os.Create(target)
		if err != nil {
			return "", err
		}
		_, err = io.Copy(out, tr)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return "", err
		}
		return target, nil
	}
}
