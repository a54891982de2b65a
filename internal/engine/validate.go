package engine

import (
	"fmt"
	"os"

	"github.com/Nas4146/brief/internal/discovery"
	"github.com/Nas4146/brief/internal/document"
	"github.com/Nas4146/brief/internal/validator"
	"go.uber.org/zap"
)

// FileEntry describes one discovered instruction file.
type FileEntry struct {
	Path    string          `json:"path"`
	RelPath string          `json:"rel_path"`
	Format  document.Format `json:"format"`
	Tool    string          `json:"tool"`
	Size    int64           `json:"size"`
}

// Validate reads every instruction file under root and reports which files
// lack instructions others carry, plus structural issues. Files that cannot
// be read are reported, not returned as errors.
func (e *Engine) Validate(root string) (*validator.Report, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	p := e.load(root)
	paths := e.discover(p, nil)

	inputs := make([]validator.Input, 0, len(paths))
	for _, path := range paths {
		in := validator.Input{Path: path}
		data, err := os.ReadFile(path)
		if err != nil {
			e.logger.Warn("cannot read instruction file", zap.String("path", path), zap.Error(err))
			in.Err = fmt.Errorf("reading instruction file: %w", err)
		} else {
			in.File = document.Parse(discovery.FormatFor(path), string(data))
			in.File.Path = path
		}
		inputs = append(inputs, in)
	}

	report := validator.Validate(inputs)
	e.logger.Debug("validated instruction files",
		zap.Int("files", len(inputs)),
		zap.Int("instructions", len(report.Texts)),
		zap.Bool("consistent", report.Consistent()),
	)
	return report, nil
}

// ListFiles describes the instruction files under root.
func (e *Engine) ListFiles(root string) ([]FileEntry, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	p := e.load(root)
	paths := e.discover(p, nil)

	entries := make([]FileEntry, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			e.logger.Warn("cannot stat instruction file", zap.String("path", path), zap.Error(err))
			continue
		}
		entries = append(entries, FileEntry{
			Path:    path,
			RelPath: relPath(root, path),
			Format:  discovery.FormatFor(path),
			Tool:    discovery.ToolFor(path),
			Size:    info.Size(),
		})
	}

	return entries, nil
}
