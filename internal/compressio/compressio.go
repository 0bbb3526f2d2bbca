// Package compressio wraps the three compression stream primitives the
// engine needs: gzip (standard library, full read/write support), bzip2
// (write support is NOT in the standard library — compress/bzip2 is
// decode-only — so this uses github.com/dsnet/compress/bzip2, carried
// into the module from the retrieval pack's fyrsmithlabs-contextd
// dependency set) and xz (github.com/ulikunitz/xz, the teacher's own
// dependency, which supports both directions).
package compressio

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	dsnetbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/luochenglcs/createrepo-go/internal/model"
	"github.com/ulikunitz/xz"
)

// WriteCloser is a compressing writer over an underlying file. Close
// flushes and closes both the compression stream and the file.
type WriteCloser struct {
	f   *os.File
	w   io.WriteCloser
	buf *bufWriter
}

// bufWriter is the one path Write and WriteString share; it passes bytes
// straight through to the compression stream and buffers nothing itself.
type bufWriter struct {
	w io.Writer
}

func (b *bufWriter) Write(p []byte) (int, error) { return b.w.Write(p) }

// Create opens path for writing, wrapping it in the requested compression
// stream. The caller owns closing the returned WriteCloser exactly once.
func Create(path string, t model.CompressionType) (*WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	var w io.WriteCloser
	switch t {
	case model.CompressionGZ:
		w = gzip.NewWriter(f)
	case model.CompressionBZ2:
		bw, err := dsnetbzip2.NewWriter(f, &dsnetbzip2.WriterConfig{Level: 6})
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("compressio: open bzip2 writer: %w", err)
		}
		w = bw
	case model.CompressionXZ:
		xw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("compressio: open xz writer: %w", err)
		}
		w = xw
	default:
		f.Close()
		return nil, fmt.Errorf("compressio: unknown compression %q", t)
	}

	cw := &WriteCloser{f: f, w: w}
	cw.buf = &bufWriter{w: w}
	return cw, nil
}

func (c *WriteCloser) Write(p []byte) (int, error) { return c.buf.Write(p) }

func (c *WriteCloser) WriteString(s string) (int, error) { return c.buf.Write([]byte(s)) }

func (c *WriteCloser) Close() error {
	werr := c.w.Close()
	ferr := c.f.Close()
	if werr != nil {
		return werr
	}
	return ferr
}

// Suffix returns the filename suffix (including the leading dot) used for
// artifacts compressed with t.
func Suffix(t model.CompressionType) string {
	switch t {
	case model.CompressionGZ:
		return ".gz"
	case model.CompressionBZ2:
		return ".bz2"
	case model.CompressionXZ:
		return ".xz"
	default:
		return ""
	}
}

// CompressFile compresses src in place, writing src+Suffix(t) and removing
// src. Used by the orchestrator to compress the sqlite databases after
// their db_info rows have been stamped.
func CompressFile(src string, t model.CompressionType) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	dst := src + Suffix(t)
	out, err := Create(dst, t)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	if err := os.Remove(src); err != nil {
		return "", err
	}
	return dst, nil
}

// OpenReader opens a compressed file for reading, used by internal/mdparse
// to decode previously published metadata documents.
func OpenReader(path string, t model.CompressionType) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch t {
	case model.CompressionGZ:
		gr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &readCloserPair{ReadCloser: gr, underlying: f}, nil
	case model.CompressionBZ2:
		return &readCloserPair{ReadCloser: io.NopCloser(bzip2.NewReader(f)), underlying: f}, nil
	case model.CompressionXZ:
		xr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &readCloserPair{ReadCloser: io.NopCloser(xr), underlying: f}, nil
	default:
		f.Close()
		return nil, fmt.Errorf("compressio: unknown compression %q", t)
	}
}

type readCloserPair struct {
	io.ReadCloser
	underlying *os.File
}

func (r *readCloserPair) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.underlying.Close(); err == nil {
		err = cerr
	}
	return err
}
