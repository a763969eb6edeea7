package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/tally/internal/config"
	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/store"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string // optional, default: ~/.tally/exports/polls-<ulid>.jsonl
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader is the header line in a JSONL export file.
type ExportHeader struct {
	TallyExport   bool   `json:"_tally_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// exportSchemaVersion is bumped when the record layout changes.
const exportSchemaVersion = "1.0"

// Export writes every stored poll to a JSONL file: one header line followed
// by one poll document per line. The file is written to a temp path and
// renamed into place, so a failed export never clobbers an existing backup.
func Export(ctx context.Context, st store.Store, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()
	exportedAt := now.Unix()

	exportPath := input.Path
	if exportPath == "" {
		var err error
		exportPath, err = defaultExportPath(now)
		if err != nil {
			return nil, err
		}
	}

	// Default paths go through the same validation as user-provided ones.
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	// Clean up the temp file on failure; the original file is preserved.
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	header := ExportHeader{
		TallyExport:   true,
		SchemaVersion: exportSchemaVersion,
		ExportedAt:    exportedAt,
	}
	if err := writeJSONLine(file, header); err != nil {
		return nil, err
	}

	ids, err := st.List(ctx)
	if err != nil {
		return nil, err
	}

	count := 0
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return nil, errors.NewInternal(fmt.Errorf("export cancelled: %w", ctx.Err()))
		default:
		}

		p, err := st.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := writeJSONLine(file, p); err != nil {
			return nil, err
		}
		count++
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Close before the rename (required on Windows, fine elsewhere).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink destination.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: exportedAt,
	}, nil
}

// defaultExportPath names the snapshot with a ULID so repeated exports sort
// chronologically and never collide.
func defaultExportPath(now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	id := strings.ToLower(ulid.MustNew(ulid.Timestamp(now), rand.Reader).String())
	return filepath.Join(dir, "polls-"+id+".jsonl"), nil
}

func writeJSONLine(file *os.File, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.NewInternal(err)
	}
	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := file.Write([]byte("\n")); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
