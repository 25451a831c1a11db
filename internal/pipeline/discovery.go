package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sibyllinesoft/valknut/internal/config"
	verrors "github.com/sibyllinesoft/valknut/internal/errors"
)

// binaryExtensions mirrors the teacher's extension-based early-reject list
// (§4.1): tree-sitter is never handed bytes it cannot usefully parse.
var binaryExtensions = map[string]bool{
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true, ".webp": true, ".tiff": true, ".tif": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true, ".7z": true, ".rar": true, ".jar": true, ".war": true, ".ear": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true, ".o": true, ".obj": true, ".bin": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true, ".wav": true, ".flac": true, ".ogg": true,
	".pdf": true, ".class": true, ".pyc": true, ".wasm": true,
}

// Discover walks root and returns every file path (relative to root, slash
// separated) that survives the include/exclude glob filters and the binary
// extension check, capped at cfg.MaxFiles. Matching uses doublestar so
// `**` patterns behave the way the teacher's FileScanner documents them,
// per the Discovery stage (§4.1).
func Discover(root string, cfg config.Analysis) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, verrors.NewDiscoveryError(root, err)
	}
	if !info.IsDir() {
		return nil, verrors.NewDiscoveryError(root, os.ErrInvalid)
	}

	var paths []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if binaryExtensions[filepath.Ext(rel)] {
			return nil
		}
		if matchesAny(cfg.ExcludePatterns, rel) {
			return nil
		}
		if len(cfg.IncludePatterns) > 0 && !matchesAny(cfg.IncludePatterns, rel) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if walkErr != nil {
		return nil, verrors.NewDiscoveryError(root, walkErr)
	}

	sort.Strings(paths)
	if cfg.MaxFiles > 0 && len(paths) > cfg.MaxFiles {
		paths = paths[:cfg.MaxFiles]
	}
	return paths, nil
}

func matchesAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
