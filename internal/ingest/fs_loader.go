package ingest

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klinikops/sgk-docflow/constants"
	"github.com/klinikops/sgk-docflow/internal/common"
	"github.com/klinikops/sgk-docflow/internal/entity"
)

// maxUploadBytes caps a single capture. Phone scans land well under this;
// anything bigger is a misdirected file.
const maxUploadBytes = 64 << 20

// FSLoader reads captures from the local filesystem.
type FSLoader struct {
	AllowedExts map[string]struct{} // lowercased sans '.'; nil -> default set
	logger      *slog.Logger
}

func NewFSLoader(logger *slog.Logger) *FSLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSLoader{logger: logger}
}

func (l *FSLoader) FromPath(ctx context.Context, path string) (*entity.RawUpload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, common.WrapError(err, "resolve path")
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if !l.allowed(ext) {
		return nil, common.NewAppError("INGEST_ERROR",
			fmt.Sprintf("unsupported or missing extension %q", ext), common.ErrInvalidInput)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, common.WrapError(err, "stat capture")
	}
	if info.Size() > maxUploadBytes {
		return nil, common.NewAppError("INGEST_ERROR",
			fmt.Sprintf("file exceeds %d byte limit", maxUploadBytes), common.ErrInvalidInput)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, common.WrapError(err, "read capture")
	}

	sum := sha256.Sum256(data)
	upload := &entity.RawUpload{
		Data:        data,
		Filename:    filepath.Base(abs),
		MediaType:   constants.MapExtToFormat(ext),
		Size:        len(data),
		ContentHash: sum[:],
		UploadedAt:  time.Now().UTC(),
	}
	l.logger.Debug("capture loaded", "path", abs, "size", upload.Size, "media_type", upload.MediaType)
	return upload, nil
}

// FromDirectory walks root, skips hidden entries if requested, and loads each
// allowed file. Per-file failures are recorded, not fatal.
func (l *FSLoader) FromDirectory(ctx context.Context, root string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !l.allowed(constants.NormalizeExt(filepath.Ext(path))) {
			return nil
		}
		stats.Matched++

		upload, err := l.FromPath(ctx, path)
		if err != nil {
			results = append(results, FileResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		results = append(results, FileResult{SourcePath: path, Upload: upload})
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

func (l *FSLoader) allowed(ext string) bool {
	exts := l.AllowedExts
	if exts == nil {
		exts = constants.AllowedExtensions
	}
	_, ok := exts[ext]
	return ok
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
