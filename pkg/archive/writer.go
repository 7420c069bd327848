package archive

import (
	"io"
	"os"
	"path"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Writer streams files into a single zip container. Nothing is buffered in
// memory beyond the compressor window, each entry is copied straight from
// its source file.
type Writer struct {
	fs   afero.Fs
	path string

	f  afero.File
	zw *zip.Writer

	closed bool
}

func Create(fs afero.Fs, outfile string) (*Writer, error) {
	f, err := fs.OpenFile(outfile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0640)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create archive")
	}

	return &Writer{
		fs:   fs,
		path: outfile,
		f:    f,
		zw:   zip.NewWriter(f),
	}, nil
}

func (w *Writer) Path() string {
	return w.path
}

// AddFile copies the file at src into the archive under entry.
func (w *Writer) AddFile(src, entry string) error {
	f, err := w.fs.Open(src)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", src)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrapf(err, "unable to stat %s", src)
	}

	return w.addReader(f, info, entry)
}

func (w *Writer) addReader(r io.Reader, info os.FileInfo, entry string) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return errors.Wrapf(err, "unable to build header for %s", entry)
	}

	header.Name = path.Clean(entry)
	header.Method = zip.Deflate

	zw, err := w.zw.CreateHeader(header)
	if err != nil {
		return errors.Wrapf(err, "unable to create entry %s", entry)
	}

	_, err = io.Copy(zw, r)
	if err != nil {
		return errors.Wrapf(err, "unable to write entry %s", entry)
	}

	return nil
}

// AddDirectory adds an explicit, empty directory entry.
func (w *Writer) AddDirectory(entry string) error {
	_, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:   path.Clean(entry) + "/",
		Method: zip.Store,
	})

	return errors.Wrapf(err, "unable to create directory entry %s", entry)
}

// Close finalizes the container. The archive is only valid once Close
// returned nil.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.zw.Close()
	if err != nil {
		_ = w.f.Close()
		return errors.Wrap(err, "unable to finalize archive")
	}

	err = w.f.Close()
	if err != nil {
		return errors.Wrap(err, "unable to close archive")
	}

	return nil
}

// Abort closes the container without caring about the result and removes
// the partial file.
func (w *Writer) Abort() error {
	if !w.closed {
		w.closed = true
		_ = w.zw.Close()
		_ = w.f.Close()
	}

	err := w.fs.Remove(w.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "unable to remove partial archive")
	}

	return nil
}
