package ops

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/hpungsan/tally/internal/config"
	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/poll"
	"github.com/hpungsan/tally/internal/store"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on id collision
	ImportModeReplace ImportMode = "replace" // overwrite on collision
	ImportModeSkip    ImportMode = "skip"    // keep the existing record
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError represents an error that occurred during import.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import restores polls from a JSONL export file. In error mode any parse
// failure or id collision aborts before the first write; replace overwrites
// colliding records; skip keeps the existing ones.
func Import(ctx context.Context, st store.Store, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, skip")
	}

	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		var tErr *errors.Error
		if stderrors.As(err, &tErr) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file)

	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		return &ImportOutput{Errors: parseErrors}, nil
	}

	// Error mode is all-or-nothing: scan for collisions before writing.
	if input.Mode == ImportModeError {
		for _, rec := range records {
			exists, err := st.Exists(ctx, rec.poll.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				return &ImportOutput{
					Errors: []ImportError{{
						Line:    rec.line,
						ID:      rec.poll.ID,
						Code:    string(errors.ErrConflict),
						Message: fmt.Sprintf("poll %q already exists", rec.poll.ID),
					}},
				}, nil
			}
		}
	}

	out := &ImportOutput{Errors: parseErrors}
	for _, rec := range records {
		select {
		case <-ctx.Done():
			return nil, errors.NewInternal(fmt.Errorf("import cancelled: %w", ctx.Err()))
		default:
		}

		switch input.Mode {
		case ImportModeReplace:
			if err := st.Save(ctx, rec.poll.ID, rec.poll); err != nil {
				return nil, err
			}
			out.Imported++
		default:
			err := st.Create(ctx, rec.poll.ID, rec.poll)
			if errors.Is(err, errors.ErrConflict) {
				if input.Mode == ImportModeSkip {
					out.Skipped++
					continue
				}
				// error mode: the pre-scan raced with a concurrent create
				return nil, err
			}
			if err != nil {
				return nil, err
			}
			out.Imported++
		}
	}

	if out.Errors == nil {
		out.Errors = []ImportError{}
	}
	return out, nil
}

// importRecord pairs a parsed poll with its source line for error reporting.
type importRecord struct {
	line int
	poll *poll.Poll
}

// parseExportFile parses a JSONL export file. The header line is recognized
// and skipped; every other non-empty line must be a valid poll document
// with a well-formed id.
func parseExportFile(file *os.File) ([]importRecord, []ImportError) {
	var records []importRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if lineNum == 1 {
			var header ExportHeader
			if err := json.Unmarshal(line, &header); err == nil && header.TallyExport {
				continue
			}
		}

		var p poll.Poll
		if err := json.Unmarshal(line, &p); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    string(errors.ErrInvalidRequest),
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if !store.ValidID(p.ID, 1) {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				ID:      p.ID,
				Code:    string(errors.ErrMalformedID),
				Message: "record has a malformed poll id",
			})
			continue
		}
		if p.Votes == nil {
			p.Votes = []poll.Vote{}
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		records = append(records, importRecord{line: lineNum, poll: &p})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    string(errors.ErrInternal),
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}
