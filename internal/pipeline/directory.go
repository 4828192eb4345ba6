package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/market-views/constants"
	"github.com/joseph-ayodele/market-views/internal/common"
	"github.com/joseph-ayodele/market-views/internal/extract"
)

type FileResult struct {
	Path   string
	Result Result
	Err    string
}

type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	NoViews   uint32
	Pending   uint32
	Failed    uint32
}

// ProcessFile reads path and runs it through Process.
func (p *Processor) ProcessFile(ctx context.Context, path string, opts Options) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		res := Result{Document: filepath.Base(path), Stage: StageExtract, Status: constants.RunStatusFailed}
		res.Err = common.NewAppError(common.KindUnreadableDocument, "read "+path, err)
		return res, res.Err
	}
	return p.Process(ctx, extract.Document{Name: filepath.Base(path), Data: data}, opts)
}

// ProcessDirectory walks root for report files, skipping hidden entries, and processes
// them one at a time. A failing document never stops the walk.
func (p *Processor) ProcessDirectory(ctx context.Context, root string, opts Options) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !constants.IsAllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		res, err := p.ProcessFile(ctx, path, opts)
		fr := FileResult{Path: path, Result: res}
		if err != nil {
			fr.Err = err.Error()
		}
		results = append(results, fr)

		switch res.Status {
		case constants.RunStatusOK:
			stats.Succeeded++
		case constants.RunStatusNoViews:
			stats.NoViews++
		case constants.RunStatusPending:
			stats.Pending++
		default:
			stats.Failed++
		}
		return nil
	})

	if err != nil {
		return results, stats, common.WrapError(err, "walk "+root)
	}
	p.logger.Info("pipeline.dir.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"no_views", stats.NoViews,
		"pending", stats.Pending,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
