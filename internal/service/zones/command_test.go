package zones

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/zone-intrusion/internal/domain/zone"
	zonerepo "github.com/oshokin/zone-intrusion/internal/repository/zone"
)

// testOptions points the editor at a fresh zones file and captures output.
func testOptions(t *testing.T) (*Options, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	out := new(bytes.Buffer)

	return &Options{
		ConfigPath: filepath.Join(dir, "missing.yaml"),
		ZonesFile:  filepath.Join(dir, "data", "zones.json"),
		Out:        out,
	}, out
}

// triangle returns three points forming a triangle.
func triangle(offset int) []zone.Point {
	return []zone.Point{{X: offset, Y: 0}, {X: offset + 100, Y: 0}, {X: offset + 100, Y: 100}}
}

// TestAdd_ReplaceAndList stores zones and replaces one with the same name.
func TestAdd_ReplaceAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	opts, out := testOptions(t)

	require.NoError(t, Add(ctx, opts, "gate", triangle(0)))
	require.NoError(t, Add(ctx, opts, "yard", triangle(200)))
	require.NoError(t, Add(ctx, opts, "gate", triangle(50)))

	zones, err := zonerepo.NewFileRepository(opts.ZonesFile).Load(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	require.True(t, zones[0].Equal(zone.New("gate", triangle(50))))
	require.Equal(t, "yard", zones[1].Name())

	out.Reset()
	require.NoError(t, List(ctx, opts))
	require.Equal(t, "gate[{50 0} {150 0} {150 100}]\nyard[{200 0} {300 0} {300 100}]\n", out.String())
}

// TestAdd_TooFewPoints refuses zones that could never contain a point.
func TestAdd_TooFewPoints(t *testing.T) {
	t.Parallel()

	opts, _ := testOptions(t)

	err := Add(context.Background(), opts, "line", []zone.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	require.ErrorIs(t, err, zone.ErrTooFewPoints)
}

// TestAdd_DefaultName uses the default zone name when none is given.
func TestAdd_DefaultName(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	opts, _ := testOptions(t)

	require.NoError(t, Add(ctx, opts, "", triangle(0)))

	zones, err := zonerepo.NewFileRepository(opts.ZonesFile).Load(ctx)
	require.NoError(t, err)
	require.Equal(t, zone.DefaultName, zones[0].Name())
}

// TestRemove deletes existing zones and reports missing ones.
func TestRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	opts, out := testOptions(t)

	require.NoError(t, Add(ctx, opts, "gate", triangle(0)))
	require.ErrorIs(t, Remove(ctx, opts, "roof"), ErrZoneNotFound)
	require.NoError(t, Remove(ctx, opts, "gate"))

	out.Reset()
	require.NoError(t, List(ctx, opts))
	require.Contains(t, out.String(), "no zones in")
}

// TestCheck prints containment per zone, boundary included.
func TestCheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	opts, out := testOptions(t)

	require.NoError(t, Add(ctx, opts, "gate", triangle(0)))
	require.NoError(t, Add(ctx, opts, "yard", triangle(200)))

	out.Reset()
	require.NoError(t, Check(ctx, opts, 100, 50))
	require.Equal(t, "inside gate\noutside yard\n", out.String())
}

// TestParsePoint accepts integer pairs only.
func TestParsePoint(t *testing.T) {
	t.Parallel()

	p, err := ParsePoint(" 10, -20")
	require.NoError(t, err)
	require.Equal(t, zone.Point{X: 10, Y: -20}, p)

	for _, bad := range []string{"10", "a,1", "1,b", "1.5,2"} {
		_, err = ParsePoint(bad)
		require.ErrorIs(t, err, errBadPoint, bad)
	}
}
