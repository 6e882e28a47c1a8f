// Package blob stores uploaded photos on an afero filesystem and hands out
// public paths under a URL prefix.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"obituary-service/internal/domain"
)

var ErrTooLarge = domain.ErrBlobTooLarge

type Store struct {
	fs       afero.Fs
	prefix   string
	maxBytes int64
}

// New returns a store writing into fs. prefix is the public URL prefix the
// files are served under, e.g. "/uploads".
func New(fs afero.Fs, prefix string, maxBytes int64) (*Store, error) {
	if err := fs.MkdirAll("/", 0o755); err != nil {
		return nil, err
	}
	return &Store{fs: fs, prefix: "/" + strings.Trim(prefix, "/"), maxBytes: maxBytes}, nil
}

// NewOS stores under dir on the local disk.
func NewOS(dir, prefix string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), prefix, maxBytes)
}

// safeName keeps the base name and replaces anything outside [A-Za-z0-9._-].
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := strings.TrimLeft(b.String(), ".")
	if s == "" {
		return "file"
	}
	return s
}

// Store writes r as a new uniquely named file and returns its public path.
func (s *Store) Store(ctx context.Context, r io.Reader, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	file := uuid.NewString() + "_" + safeName(name)
	f, err := s.fs.Create("/" + file)
	if err != nil {
		return "", fmt.Errorf("blob: create: %w", err)
	}
	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = s.fs.Remove("/" + file)
		return "", fmt.Errorf("blob: write: %w", err)
	}
	return path.Join(s.prefix, file), nil
}

// Delete removes the file behind ref. Unknown or foreign references are ignored.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file, ok := strings.CutPrefix(ref, s.prefix+"/")
	if !ok || file == "" || strings.ContainsAny(file, `/\`) {
		return nil
	}
	err := s.fs.Remove("/" + file)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("blob: delete: %w", err)
	}
	return nil
}

// Open reads a stored file by public path.
func (s *Store) Open(ref string) (afero.File, error) {
	file, ok := strings.CutPrefix(ref, s.prefix+"/")
	if !ok || strings.ContainsAny(file, `/\`) {
		return nil, os.ErrNotExist
	}
	return s.fs.Open("/" + file)
}

func (s *Store) Prefix() string { return s.prefix }
