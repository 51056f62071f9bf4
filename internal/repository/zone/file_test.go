package zone

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/zone-intrusion/internal/domain/zone"
)

// zoneComparer lets cmp.Diff compare zones with unexported fields.
var zoneComparer = cmp.Comparer(func(a, b *domain.Zone) bool { return a.Equal(b) })

// writeZonesFile writes raw contents to a temporary zones file and returns its repository.
func writeZonesFile(t *testing.T, contents string) *FileRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "zones.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), DefaultFileMode))

	return NewFileRepository(path)
}

// TestFileRepository_MissingOrBlank verifies missing and blank files load as zero zones.
func TestFileRepository_MissingOrBlank(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))
	zones, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, zones)
	require.NotNil(t, zones)

	for _, contents := range []string{"", "   \n\t", "[]"} {
		zones, err = writeZonesFile(t, contents).Load(context.Background())
		require.NoError(t, err)
		require.Empty(t, zones)
	}
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns equal zones.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	// Nested directory does not exist yet.
	file := filepath.Join(t.TempDir(), "data", "nested", "zones.json")
	repo := NewFileRepository(file)

	want := []*domain.Zone{
		domain.New("gate", []domain.Point{{X: 10, Y: 20}, {X: 200, Y: 20}, {X: 200, Y: 300}}),
		domain.New("yard", []domain.Point{{X: -5, Y: 0}, {X: 50, Y: 0}, {X: 50, Y: 50}, {X: 0, Y: 50}}),
	}

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(want, got, zoneComparer))

	// No temporary files are left next to the target.
	entries, err := os.ReadDir(filepath.Dir(file))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

// TestFileRepository_SaveOverwrites checks that a second save fully replaces the first.
func TestFileRepository_SaveOverwrites(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "zones.json"))
	first := []*domain.Zone{
		domain.New("a", []domain.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}),
		domain.New("b", []domain.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}}),
	}
	second := []*domain.Zone{
		domain.New("c", []domain.Point{{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 6, Y: 6}}),
	}

	require.NoError(t, repo.Save(context.Background(), first))
	require.NoError(t, repo.Save(context.Background(), second))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(second, got, zoneComparer))
}

// TestFileRepository_Defaults covers missing names and skipped entries without points.
func TestFileRepository_Defaults(t *testing.T) {
	t.Parallel()

	repo := writeZonesFile(t, `[
  {"points": [{"x": 1, "y": 2}, {"x": 3, "y": 4}, {"x": 5, "y": 0}]},
  {"name": "empty", "points": []},
  {"name": "no-points"},
  {"name": "named", "points": [{"x": 0, "y": 0}, {"x": 9, "y": 0}, {"x": 9, "y": 9}]}
]`)

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, domain.DefaultName, got[0].Name())
	require.Equal(t, []domain.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 0}}, got[0].Points())
	require.Equal(t, "named", got[1].Name())
}

// TestFileRepository_WholeNumberCoordinates accepts coordinates written as whole floats.
func TestFileRepository_WholeNumberCoordinates(t *testing.T) {
	t.Parallel()

	repo := writeZonesFile(t, `[{"name": "gate", "points": [{"x": 12.0, "y": 1e2}, {"x": "3.0", "y": -4}, {"x": 5, "y": 0.0}]}]`)

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, []domain.Point{{X: 12, Y: 100}, {X: 3, Y: -4}, {X: 5, Y: 0}}, got[0].Points())
}

// TestFileRepository_ParseErrors asserts malformed contents produce a ParseError.
func TestFileRepository_ParseErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"syntax":        `[{"name": "x", "points": [`,
		"object":        `{"name": "x"}`,
		"float":         `[{"points": [{"x": 1.5, "y": 2}, {"x": 3, "y": 4}, {"x": 5, "y": 0}]}]`,
		"string":        `[{"points": [{"x": "a", "y": 2}]}]`,
		"huge":          `[{"points": [{"x": 1e40, "y": 2}, {"x": 3, "y": 4}, {"x": 5, "y": 0}]}]`,
		"missing y":     `[{"points": [{"x": 1}]}]`,
		"null entry":    `[null]`,
		"points object": `[{"points": {"x": 1, "y": 2}}]`,
	}

	for name, contents := range cases {
		repo := writeZonesFile(t, contents)

		zones, err := repo.Load(context.Background())
		require.ErrorIs(t, err, ErrParse, name)
		require.Nil(t, zones, name)

		var parseErr *ParseError

		require.ErrorAs(t, err, &parseErr, name)
		require.Equal(t, repo.Path(), parseErr.Path, name)
	}
}

// TestFileRepository_SaveFormat verifies the on-disk layout is an indented JSON array of name/points.
func TestFileRepository_SaveFormat(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "zones.json")
	repo := NewFileRepository(file)

	require.NoError(t, repo.Save(context.Background(), []*domain.Zone{
		domain.New("gate", []domain.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}}),
	}))

	contents, err := os.ReadFile(file)
	require.NoError(t, err)
	require.JSONEq(t,
		`[{"name":"gate","points":[{"x":1,"y":2},{"x":3,"y":4},{"x":5,"y":6}]}]`,
		string(contents))
	require.Contains(t, string(contents), "\n  {")

	// Empty input writes an empty array.
	require.NoError(t, repo.Save(context.Background(), nil))

	contents, err = os.ReadFile(file)
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(contents))
}
