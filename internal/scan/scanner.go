package scan

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"golang.org/x/text/cases"

	"drivemover/internal/config"
	"drivemover/internal/logging"
	"drivemover/internal/remote"
	"drivemover/internal/retry"
)

// FileCandidate is a file selected for moving.
type FileCandidate struct {
	ID   string
	Name string
	Size int64
	Path string
}

// Stats counts how the listed files were classified.
type Stats struct {
	Total    int
	Excluded int
	TooSmall int
}

// Result is the outcome of one scan.
type Result struct {
	Candidates []FileCandidate
	Stats      Stats
}

// Rules holds the selection criteria.
type Rules struct {
	MinSize  int64
	Excluded []string
}

// RulesFromConfig derives selection rules from configuration.
func RulesFromConfig(cfg *config.Config) Rules {
	return Rules{MinSize: cfg.MinFileSizeBytes, Excluded: cfg.Filter.ExcludeExtensions}
}

// Scanner lists folders through the retry executor.
type Scanner struct {
	client remote.Client
	exec   *retry.Executor
	logger *slog.Logger
}

// New constructs a scanner.
func New(client remote.Client, exec *retry.Executor, logger *slog.Logger) *Scanner {
	return &Scanner{
		client: client,
		exec:   exec,
		logger: logging.NewComponentLogger(logger, "scan"),
	}
}

// Scan lists folderID recursively and applies rules. Listing errors are
// returned as classified by the executor.
func (s *Scanner) Scan(ctx context.Context, folderID remote.FolderID, rules Rules) (Result, error) {
	files, err := retry.Execute(ctx, s.exec, "list files under "+string(folderID), func(ctx context.Context) ([]remote.File, error) {
		return s.client.ListFiles(ctx, folderID, true)
	})
	if err != nil {
		return Result{}, fmt.Errorf("scan folder %s: %w", folderID, err)
	}

	result := Filter(files, rules)
	logging.WithContext(ctx, s.logger).Info("scan complete",
		logging.Int("total", result.Stats.Total),
		logging.Int("candidates", len(result.Candidates)),
		logging.Int("excluded", result.Stats.Excluded),
		logging.Int("too_small", result.Stats.TooSmall),
	)
	return result, nil
}

// Filter classifies files without touching the drive.
func Filter(files []remote.File, rules Rules) Result {
	excluded := newExtensionSet(rules.Excluded)
	result := Result{Stats: Stats{Total: len(files)}}
	for _, file := range files {
		if excluded.matches(file.Name) {
			result.Stats.Excluded++
			continue
		}
		if file.Size < rules.MinSize {
			result.Stats.TooSmall++
			continue
		}
		result.Candidates = append(result.Candidates, FileCandidate{
			ID:   file.ID,
			Name: file.Name,
			Size: file.Size,
			Path: file.Path,
		})
	}
	return result
}

type extensionSet struct {
	folder cases.Caser
	exts   map[string]struct{}
}

func newExtensionSet(values []string) extensionSet {
	set := extensionSet{folder: cases.Fold(), exts: make(map[string]struct{}, len(values))}
	for _, raw := range values {
		ext := strings.TrimSpace(raw)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set.exts[set.folder.String(ext)] = struct{}{}
	}
	return set
}

func (s extensionSet) matches(name string) bool {
	if len(s.exts) == 0 {
		return false
	}
	ext := path.Ext(name)
	if ext == "" {
		return false
	}
	_, ok := s.exts[s.folder.String(ext)]
	return ok
}
