package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	apperrors "github.com/rencanakan/ahsmatch/internal/errors"
)

// Column headers of the reference AHS spreadsheet export. The code lives
// in the NO column, the work item name in URAIAN PEKERJAAN.
const (
	headerCodeColumn = "NO"
	headerNameColumn = "URAIAN PEKERJAAN"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// CSVRepository serves catalog reads from a semicolon-delimited CSV
// export. The file is parsed once into an in-memory snapshot; queries
// never touch the disk. Reload swaps the snapshot atomically, so readers
// always see a complete catalog.
type CSVRepository struct {
	path        string
	expectedSHA string
	nameCap     int
	allCap      int
	log         *zap.Logger

	snapshot atomic.Pointer[csvSnapshot]

	watch     *watchState
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type csvSnapshot struct {
	index       queryIndex
	fingerprint uint64
}

// NewCSVRepository builds a repository over the file at path. The
// expected SHA-256 digest is optional: when empty, Load logs a warning
// and skips the integrity check. Call Load before serving queries.
func NewCSVRepository(path, expectedSHA256 string, log *zap.Logger) *CSVRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &CSVRepository{
		path:        path,
		expectedSHA: strings.TrimSpace(expectedSHA256),
		nameCap:     DefaultNameCandidateCap,
		allCap:      DefaultGetAllCap,
		log:         log,
	}
}

// WithCaps overrides the result caps. Non-positive values keep the
// defaults. Call before Load.
func (r *CSVRepository) WithCaps(nameCandidateCap, getAllCap int) *CSVRepository {
	if nameCandidateCap > 0 {
		r.nameCap = nameCandidateCap
	}
	if getAllCap > 0 {
		r.allCap = getAllCap
	}
	return r
}

// Load reads and parses the catalog file, replacing the cached snapshot.
// An integrity failure leaves the previous snapshot in place; on first
// load that means an empty catalog. Unchanged file content is detected by
// fingerprint and skips the parse.
func (r *CSVRepository) Load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return apperrors.NewCatalogError("load", r.path, err)
	}

	if r.expectedSHA == "" {
		r.log.Warn("catalog integrity check skipped, no expected digest configured",
			zap.String("path", r.path))
	} else {
		sum := sha256.Sum256(data)
		digest := hex.EncodeToString(sum[:])
		if !strings.EqualFold(digest, r.expectedSHA) {
			return apperrors.NewIntegrityError(r.path,
				fmt.Errorf("sha256 mismatch: got %s, want %s", digest, r.expectedSHA))
		}
	}

	fingerprint := xxhash.Sum64(data)
	if snap := r.snapshot.Load(); snap != nil && snap.fingerprint == fingerprint {
		r.log.Debug("catalog content unchanged, keeping cached rows",
			zap.String("path", r.path))
		return nil
	}

	rows, err := parseCatalogCSV(data)
	if err != nil {
		return apperrors.NewCatalogError("parse", r.path, err)
	}

	r.snapshot.Store(&csvSnapshot{
		index:       queryIndex{rows: rows, nameCap: r.nameCap, allCap: r.allCap},
		fingerprint: fingerprint,
	})
	r.log.Info("catalog loaded",
		zap.String("path", r.path), zap.Int("rows", len(rows)))
	return nil
}

// Fingerprint returns the xxhash64 of the last loaded file content, or 0
// before the first successful load.
func (r *CSVRepository) Fingerprint() uint64 {
	if snap := r.snapshot.Load(); snap != nil {
		return snap.fingerprint
	}
	return 0
}

// Len reports the number of cached rows.
func (r *CSVRepository) Len() int {
	if snap := r.snapshot.Load(); snap != nil {
		return len(snap.index.rows)
	}
	return 0
}

// ByCodeLike returns cached rows whose code contains any separator
// variant of the fragment.
func (r *CSVRepository) ByCodeLike(code string) []Row {
	if snap := r.snapshot.Load(); snap != nil {
		return snap.index.byCodeLike(code)
	}
	return nil
}

// ByNameCandidates returns cached rows whose name starts with the
// prefix.
func (r *CSVRepository) ByNameCandidates(prefix string) []Row {
	if snap := r.snapshot.Load(); snap != nil {
		return snap.index.byNameCandidates(prefix)
	}
	return nil
}

// GetAll returns the cached rows up to the catalog cap.
func (r *CSVRepository) GetAll() []Row {
	if snap := r.snapshot.Load(); snap != nil {
		return snap.index.getAll()
	}
	return nil
}

// parseCatalogCSV parses a semicolon-delimited export. The header row is
// located by its NO and URAIAN PEKERJAAN cells, wherever the spreadsheet
// preamble leaves it; rows with a blank code or name are skipped. Row IDs
// are assigned sequentially in file order.
func parseCatalogCSV(data []byte) ([]Row, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	codeIdx, nameIdx, start := -1, -1, 0
	for i, record := range records {
		ci, ni := headerIndices(record)
		if ci >= 0 && ni >= 0 {
			codeIdx, nameIdx, start = ci, ni, i+1
			break
		}
	}
	if codeIdx < 0 {
		return nil, fmt.Errorf("header row with %q and %q columns not found",
			headerCodeColumn, headerNameColumn)
	}

	var rows []Row
	for _, record := range records[start:] {
		if codeIdx >= len(record) || nameIdx >= len(record) {
			continue
		}
		code := canonicalCode(record[codeIdx])
		name := strings.Join(strings.Fields(record[nameIdx]), " ")
		if code == "" || name == "" {
			continue
		}
		rows = append(rows, Row{ID: int64(len(rows) + 1), Code: code, Name: name})
	}
	return rows, nil
}

func headerIndices(record []string) (codeIdx, nameIdx int) {
	codeIdx, nameIdx = -1, -1
	for i, cell := range record {
		switch strings.ToUpper(strings.TrimSpace(cell)) {
		case headerCodeColumn:
			if codeIdx < 0 {
				codeIdx = i
			}
		case headerNameColumn:
			if nameIdx < 0 {
				nameIdx = i
			}
		}
	}
	return codeIdx, nameIdx
}

// canonicalCode folds separator and spacing variants of a catalog code
// to the dotted form used throughout the system.
func canonicalCode(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, "-", ".")
	return strings.ReplaceAll(code, " ", "")
}
