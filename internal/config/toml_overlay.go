package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	verrors "github.com/sibyllinesoft/valknut/internal/errors"
)

// localOverlay mirrors the subset of Config a project is likely to want to
// tweak locally without checking the tweak in; only set fields are merged.
type localOverlay struct {
	Analysis *struct {
		MaxFiles        *int     `toml:"max_files"`
		ExcludePatterns []string `toml:"exclude_patterns"`
	} `toml:"analysis"`
	LSH *struct {
		Similarity    *float64 `toml:"similarity"`
		AutoCalibrate *bool    `toml:"auto_calibrate"`
	} `toml:"lsh"`
	Gates *struct {
		MaxCritical *int `toml:"max_critical"`
	} `toml:"quality_gates"`
}

// mergeLocalTOML merges `.valknut.local.toml`, if present, over cfg. It is
// the engine's one secondary config format, scoped to developer-local
// overrides layered on top of the project's checked-in `.valknut.kdl`.
func mergeLocalTOML(cfg *Config, projectRoot string) error {
	path := filepath.Join(projectRoot, ".valknut.local.toml")
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return verrors.NewConfigError(".valknut.local.toml", path, "check file permissions", err)
	}

	var overlay localOverlay
	if err := toml.Unmarshal(content, &overlay); err != nil {
		return verrors.NewConfigError(".valknut.local.toml", path, "fix the TOML syntax", err)
	}

	if overlay.Analysis != nil {
		if overlay.Analysis.MaxFiles != nil {
			cfg.Analysis.MaxFiles = *overlay.Analysis.MaxFiles
		}
		if len(overlay.Analysis.ExcludePatterns) > 0 {
			cfg.Analysis.ExcludePatterns = append(cfg.Analysis.ExcludePatterns, overlay.Analysis.ExcludePatterns...)
		}
	}
	if overlay.LSH != nil {
		if overlay.LSH.Similarity != nil {
			cfg.LSH.Similarity = *overlay.LSH.Similarity
		}
		if overlay.LSH.AutoCalibrate != nil {
			cfg.LSH.AutoCalibrate = *overlay.LSH.AutoCalibrate
		}
	}
	if overlay.Gates != nil && overlay.Gates.MaxCritical != nil {
		cfg.Gates.MaxCritical = *overlay.Gates.MaxCritical
	}
	return nil
}
