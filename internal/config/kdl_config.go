package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	verrors "github.com/sibyllinesoft/valknut/internal/errors"
)

// LoadKDL loads `.valknut.kdl` from projectRoot, merges an optional
// `.valknut.local.toml` override on top, and validates the result. A
// missing primary file is not an error: defaults are returned as-is.
func LoadKDL(projectRoot string) (*Config, error) {
	kdlPath := filepath.Join(projectRoot, ".valknut.kdl")
	cfg := Default()

	if content, err := os.ReadFile(kdlPath); err == nil {
		if err := parseKDLInto(cfg, string(content)); err != nil {
			return nil, verrors.NewConfigError(".valknut.kdl", kdlPath, "fix the KDL syntax or node names", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, verrors.NewConfigError(".valknut.kdl", kdlPath, "check file permissions", err)
	}

	if err := mergeLocalTOML(cfg, projectRoot); err != nil {
		return nil, err
	}

	detected := NewBuildArtifactDetector(projectRoot).DetectOutputDirectories()
	cfg.Analysis.ExcludePatterns = DeduplicatePatterns(append(cfg.Analysis.ExcludePatterns, detected...))

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseKDLInto(cfg *Config, content string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "analysis":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "modules":
					if vs := collectStringArgs(cn); len(vs) > 0 {
						cfg.Analysis.Modules = vs
					}
				case "include_patterns":
					cfg.Analysis.IncludePatterns = collectStringArgs(cn)
				case "exclude_patterns":
					cfg.Analysis.ExcludePatterns = append(cfg.Analysis.ExcludePatterns, collectStringArgs(cn)...)
				case "max_files":
					if v, ok := firstIntArg(cn); ok {
						cfg.Analysis.MaxFiles = v
					}
				case "coverage_path":
					if s, ok := firstStringArg(cn); ok {
						cfg.Analysis.CoveragePath = s
					}
				}
			}
		case "lsh":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "min_function_tokens":
					if v, ok := firstIntArg(cn); ok {
						cfg.LSH.MinFunctionTokens = v
					}
				case "min_match_tokens":
					if v, ok := firstIntArg(cn); ok {
						cfg.LSH.MinMatchTokens = v
					}
				case "similarity":
					if v, ok := firstFloatArg(cn); ok {
						cfg.LSH.Similarity = v
					}
				case "num_hashes":
					if v, ok := firstIntArg(cn); ok {
						cfg.LSH.NumHashes = v
					}
				case "bands":
					if v, ok := firstIntArg(cn); ok {
						cfg.LSH.Bands = v
					}
				case "shingle_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.LSH.ShingleSize = v
					}
				case "auto_calibrate":
					if b, ok := firstBoolArg(cn); ok {
						cfg.LSH.AutoCalibrate = b
					}
				case "require_blocks":
					if b, ok := firstBoolArg(cn); ok {
						cfg.LSH.RequireBlocks = b
					}
				case "stop_motif_density":
					if v, ok := firstFloatArg(cn); ok {
						cfg.LSH.StopMotifDensity = v
					}
				case "weights":
					for _, wn := range cn.Children {
						switch nodeName(wn) {
						case "ast":
							if v, ok := firstFloatArg(wn); ok {
								cfg.LSH.Weights.AST = v
							}
						case "token":
							if v, ok := firstFloatArg(wn); ok {
								cfg.LSH.Weights.PDG = v
							}
						case "sem":
							if v, ok := firstFloatArg(wn); ok {
								cfg.LSH.Weights.Sem = v
							}
						}
					}
				case "target_band":
					if vs := collectFloatArgs(cn); len(vs) == 2 {
						cfg.LSH.TargetLower, cfg.LSH.TargetUpper = vs[0], vs[1]
					}
				}
			}
		case "scoring":
			for _, cn := range n.Children {
				if nodeName(cn) != "weights" {
					continue
				}
				for _, wn := range cn.Children {
					switch nodeName(wn) {
					case "complexity":
						if v, ok := firstFloatArg(wn); ok {
							cfg.Scoring.Weights.Complexity = v
						}
					case "clone_mass":
						if v, ok := firstFloatArg(wn); ok {
							cfg.Scoring.Weights.CloneMass = v
						}
					case "structure":
						if v, ok := firstFloatArg(wn); ok {
							cfg.Scoring.Weights.Structure = v
						}
					case "graph":
						if v, ok := firstFloatArg(wn); ok {
							cfg.Scoring.Weights.Graph = v
						}
					case "coverage":
						if v, ok := firstFloatArg(wn); ok {
							cfg.Scoring.Weights.Coverage = v
						}
					}
				}
			}
		case "quality_gates":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_complexity":
					if v, ok := firstIntArg(cn); ok {
						cfg.Gates.MaxComplexity = v
					}
				case "min_health":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Gates.MinHealth = v
					}
				case "max_debt":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Gates.MaxDebt = v
					}
				case "max_issues":
					if v, ok := firstIntArg(cn); ok {
						cfg.Gates.MaxIssues = v
					}
				case "max_critical":
					if v, ok := firstIntArg(cn); ok {
						cfg.Gates.MaxCritical = v
					}
				case "max_high_priority":
					if v, ok := firstIntArg(cn); ok {
						cfg.Gates.MaxHighPriority = v
					}
				}
			}
		}
	}
	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func collectStringArgs(n *document.Node) []string {
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func collectFloatArgs(n *document.Node) []float64 {
	out := make([]float64, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		switch v := a.Value.(type) {
		case float64:
			out = append(out, v)
		case int64:
			out = append(out, float64(v))
		}
	}
	return out
}
