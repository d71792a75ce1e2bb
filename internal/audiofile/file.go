package audiofile

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

const MIMETypeMP3 = "audio/mpeg"

// File is a handle to a recorded audio chunk.
type File struct {
	URI      string
	MIMEType string
	Filename string
}

// FromPath builds a handle for a local MP3 file.
func FromPath(path string) File {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return File{
		URI:      u.String(),
		MIMEType: MIMETypeMP3,
		Filename: filepath.Base(path),
	}
}

// Path resolves a file:// URI to a local path.
func (f File) Path() (string, error) {
	u, err := url.Parse(f.URI)
	if err != nil {
		return "", fmt.Errorf("invalid audio URI %q: %w", f.URI, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported audio URI scheme %q", u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}

// Open opens the underlying file for reading.
func (f File) Open() (*os.File, error) {
	path, err := f.Path()
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Remove deletes the underlying file. A missing file is not an error.
func (f File) Remove() error {
	path, err := f.Path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove audio file %s: %w", path, err)
	}
	return nil
}
