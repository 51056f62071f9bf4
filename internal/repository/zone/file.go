package zone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	domain "github.com/oshokin/zone-intrusion/internal/domain/zone"
)

// Repository defines persistence operations for restricted zones.
type Repository interface {
	Load(ctx context.Context) ([]*domain.Zone, error)
	Save(ctx context.Context, zones []*domain.Zone) error
}

// FileRepository persists zones to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the zones file.
	path string
	// mu serializes reads and writes of the zones file.
	mu sync.Mutex
}

const (
	// DefaultFileMode is the permission of a newly written zones file.
	DefaultFileMode os.FileMode = 0o644

	// DefaultDirMode is the permission of directories created for the zones file.
	DefaultDirMode os.FileMode = 0o755
)

// ErrParse is matched by every ParseError.
var ErrParse = errors.New("malformed zones file")

// ParseError reports a zones file that exists but cannot be decoded.
type ParseError struct {
	// Path is the zones file location.
	Path string
	// Err is the underlying decoding problem.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse zones file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying decoding error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrParse) true for any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// filePoint is the on-disk vertex representation.
type filePoint struct {
	X json.Number `json:"x"`
	Y json.Number `json:"y"`
}

// fileZone is the on-disk zone representation.
type fileZone struct {
	Name   *string     `json:"name"`
	Points []filePoint `json:"points"`
}

// savedPoint and savedZone fix the field order of written files.
type savedPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type savedZone struct {
	Name   string       `json:"name"`
	Points []savedPoint `json:"points"`
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the zones file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads zones from disk.
//
// A missing or blank file means no zones are configured and is not an error.
// Entries without points are skipped.
func (r *FileRepository) Load(_ context.Context) ([]*domain.Zone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*domain.Zone{}, nil
		}

		return nil, fmt.Errorf("read zones file: %w", err)
	}

	contents = bytes.TrimSpace(contents)
	if len(contents) == 0 {
		return []*domain.Zone{}, nil
	}

	var entries []*fileZone
	if err = json.Unmarshal(contents, &entries); err != nil {
		return nil, &ParseError{Path: r.path, Err: err}
	}

	zones := make([]*domain.Zone, 0, len(entries))

	for i, entry := range entries {
		if entry == nil {
			return nil, &ParseError{Path: r.path, Err: fmt.Errorf("entry %d is null", i)}
		}

		z, err := entry.toDomain()
		if err != nil {
			return nil, &ParseError{Path: r.path, Err: fmt.Errorf("entry %d: %w", i, err)}
		}

		if z != nil {
			zones = append(zones, z)
		}
	}

	return zones, nil
}

// Save replaces the zones file atomically, creating parent directories as needed.
func (r *FileRepository) Save(_ context.Context, zones []*domain.Zone) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	payload := make([]savedZone, 0, len(zones))
	for _, z := range zones {
		if z == nil {
			continue
		}

		payload = append(payload, fromDomain(z))
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode zones: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err = os.MkdirAll(dir, DefaultDirMode); err != nil {
		return fmt.Errorf("create zones directory: %w", err)
	}

	return writeFileAtomic(r.path, append(data, '\n'))
}

// toDomain converts an on-disk entry, returning nil for entries without points.
func (f *fileZone) toDomain() (*domain.Zone, error) {
	if len(f.Points) == 0 {
		return nil, nil //nolint:nilnil // Skipped entries are not an error.
	}

	name := domain.DefaultName
	if f.Name != nil {
		name = *f.Name
	}

	points := make([]domain.Point, 0, len(f.Points))

	for i, p := range f.Points {
		x, err := parseCoordinate(p.X)
		if err != nil {
			return nil, fmt.Errorf("point %d x: %w", i, err)
		}

		y, err := parseCoordinate(p.Y)
		if err != nil {
			return nil, fmt.Errorf("point %d y: %w", i, err)
		}

		points = append(points, domain.Point{X: x, Y: y})
	}

	return domain.New(name, points), nil
}

// errMissingCoordinate is returned for point objects without x or y.
var errMissingCoordinate = errors.New("coordinate is missing")

// parseCoordinate accepts JSON numbers with no fractional part, such as 12, 12.0 or 1e2.
func parseCoordinate(n json.Number) (int, error) {
	if n == "" {
		return 0, errMissingCoordinate
	}

	if v, err := n.Int64(); err == nil {
		return int(v), nil
	}

	v, err := n.Float64()
	if err != nil || v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("coordinate %q is not an integer", n.String())
	}

	return int(v), nil
}

// fromDomain converts a zone into its on-disk representation.
func fromDomain(z *domain.Zone) savedZone {
	points := z.Points()

	saved := savedZone{
		Name:   z.Name(),
		Points: make([]savedPoint, 0, len(points)),
	}

	for _, p := range points {
		saved.Points = append(saved.Points, savedPoint{X: p.X, Y: p.Y})
	}

	return saved
}

// writeFileAtomic writes data to a temporary sibling file and renames it over path,
// so readers see either the old or the new contents.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary zones file: %w", err)
	}

	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write zones file: %w", err)
	}

	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync zones file: %w", err)
	}

	if err = tmp.Chmod(DefaultFileMode); err != nil {
		return fmt.Errorf("chmod zones file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close zones file: %w", err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace zones file: %w", err)
	}

	return nil
}
