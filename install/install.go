// Package install places local mod files into a game's pack directory.
package install

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/modlunky/lunky/logger"
)

var (
	ErrPacksDirMissing = errors.New("packs directory not found")
	ErrPackIsPacksDir  = errors.New("must choose a directory inside of Packs to install into")
	ErrOutsidePacks    = errors.New("directory is outside of Packs")
	ErrPackTooDeep     = errors.New("must choose a directory only one level deep inside of Packs")
	ErrMissingSource   = errors.New("missing mod source")
	ErrMissingPack     = errors.New("missing pack name")
	ErrInvalidPack     = errors.New("pack name must be a single directory name")
	ErrUnsafeArchive   = errors.New("archive entry escapes the pack directory")
)

// PacksDir returns the directory that holds one subdirectory per pack.
func PacksDir(installDir string) string {
	return filepath.Join(installDir, "Mods", "Packs")
}

// ValidatePack checks that dir is exactly one level below the Packs
// directory of installDir and returns the pack name.
func ValidatePack(installDir, dir string) (string, error) {
	packs := PacksDir(installDir)
	if info, err := os.Stat(packs); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrPacksDirMissing, packs)
	}

	if samePath(packs, dir) {
		return "", ErrPackIsPacksDir
	}

	rel, err := filepath.Rel(resolve(packs), resolve(dir))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsidePacks, dir)
	}
	if rel == "." {
		return "", ErrPackIsPacksDir
	}
	if strings.ContainsRune(rel, filepath.Separator) {
		return "", fmt.Errorf("%w: %s", ErrPackTooDeep, rel)
	}
	return rel, nil
}

// samePath reports whether a and b name the same existing directory entry,
// which also catches case-only differences on case-insensitive filesystems.
func samePath(a, b string) bool {
	if a == b {
		return true
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	if errA != nil || errB != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}

// resolve returns an absolute path with symlinks evaluated where possible.
func resolve(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	// The pack directory may not exist yet; resolve its parent instead.
	if parent, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		return filepath.Join(parent, filepath.Base(path))
	}
	return filepath.Clean(path)
}

// ListPacks returns the names of the pack directories under installDir, sorted.
func ListPacks(installDir string) ([]string, error) {
	entries, err := os.ReadDir(PacksDir(installDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPacksDirMissing, PacksDir(installDir))
		}
		return nil, err
	}

	var packs []string
	for _, e := range entries {
		if e.IsDir() {
			packs = append(packs, e.Name())
		}
	}
	slices.Sort(packs)
	return packs, nil
}

// Options describes one installation.
type Options struct {
	InstallDir string
	Source     string // A .zip archive is extracted, any other file is copied
	Pack       string // Name of the pack directory under Packs

	// Reload is called after a successful install.
	Reload func(ctx context.Context) error
}

// Mod installs opts.Source into the pack directory, creating it if needed,
// then calls opts.Reload. It returns the pack directory.
func Mod(ctx context.Context, opts Options) (string, error) {
	if opts.Source == "" {
		return "", ErrMissingSource
	}
	if opts.Pack == "" {
		return "", ErrMissingPack
	}
	if opts.Pack == "." || opts.Pack == ".." || strings.ContainsAny(opts.Pack, `/\`) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPack, opts.Pack)
	}

	info, err := os.Stat(opts.Source)
	if err != nil {
		return "", fmt.Errorf("failed to read mod source: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("mod source is a directory: %s", opts.Source)
	}

	log := logger.WithComponent("install")
	dest := filepath.Join(PacksDir(opts.InstallDir), opts.Pack)
	_, statErr := os.Stat(dest)
	created := os.IsNotExist(statErr)
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", fmt.Errorf("failed to create pack directory: %w", err)
	}

	name := filepath.Base(opts.Source)
	if err := place(ctx, log, opts.Source, dest); err != nil {
		if created {
			if rmErr := os.RemoveAll(dest); rmErr != nil {
				log.Warn("failed to remove partial pack directory", "dest", dest, "error", rmErr)
			}
		}
		return "", err
	}
	log.Info("finished installing mod", "source", name, "dest", dest)

	if opts.Reload != nil {
		if err := opts.Reload(ctx); err != nil {
			return dest, fmt.Errorf("reload after install failed: %w", err)
		}
	}
	return dest, nil
}

// place extracts a .zip source into dest or copies any other file there.
func place(ctx context.Context, log *slog.Logger, src, dest string) error {
	name := filepath.Base(src)
	if strings.EqualFold(filepath.Ext(src), ".zip") {
		log.Info("extracting mod", "source", name, "dest", dest)
		if err := extractZip(ctx, src, dest); err != nil {
			return fmt.Errorf("failed to extract %s: %w", name, err)
		}
		return nil
	}
	log.Info("copying mod file", "source", name, "dest", dest)
	if err := copyFile(src, filepath.Join(dest, name)); err != nil {
		return fmt.Errorf("failed to copy %s: %w", name, err)
	}
	return nil
}

func extractZip(ctx context.Context, src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target := filepath.Join(dest, filepath.FromSlash(f.Name))
		if !within(dest, target) {
			return fmt.Errorf("%w: %s", ErrUnsafeArchive, f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// within reports whether target is dest or lies below it.
func within(dest, target string) bool {
	rel, err := filepath.Rel(dest, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
