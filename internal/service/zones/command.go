package zones

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/oshokin/zone-intrusion/internal/config"
	"github.com/oshokin/zone-intrusion/internal/domain/zone"
	"github.com/oshokin/zone-intrusion/internal/logger"
	zonerepo "github.com/oshokin/zone-intrusion/internal/repository/zone"
	"github.com/oshokin/zone-intrusion/internal/service/common"
)

// Options selects the zones file and the output of the editor.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ZonesFile overrides the zones file location.
	ZonesFile string
	// Out receives command output; defaults to stdout.
	Out io.Writer
}

var (
	// ErrZoneNotFound is returned when removing a zone that does not exist.
	ErrZoneNotFound = errors.New("zone not found")
	// errBadPoint is returned for points not in x,y form.
	errBadPoint = errors.New("point must be in x,y form")
)

// editor bundles what every command needs.
type editor struct {
	// repo stores the zones.
	repo zonerepo.Repository
	// path is the zones file location, for messages.
	path string
	// out receives command output.
	out io.Writer
}

// open loads settings and prepares the zone repository.
func open(opts *Options) (*editor, error) {
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	path := cfg.ZonesFile
	if opts.ZonesFile != "" {
		path = opts.ZonesFile
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return &editor{
		repo: zonerepo.NewFileRepository(path),
		path: path,
		out:  out,
	}, nil
}

// Add stores a zone, replacing any zone with the same name.
// At least three points are required.
func Add(ctx context.Context, opts *Options, name string, points []zone.Point) error {
	ctx = logger.WithName(ctx, "zone-editor")

	z := zone.New(name, points)
	if err := z.Validate(); err != nil {
		return err
	}

	e, err := open(opts)
	if err != nil {
		return err
	}

	zones, err := e.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load zones: %w", err)
	}

	replaced := false

	for i, existing := range zones {
		if existing.Name() == z.Name() {
			zones[i] = z
			replaced = true
		}
	}

	if !replaced {
		zones = append(zones, z)
	}

	if err = e.repo.Save(ctx, zones); err != nil {
		return fmt.Errorf("save zones: %w", err)
	}

	logger.InfoKV(ctx, "Zone saved",
		"zone", z.Name(),
		"points", z.Len(),
		"replaced", replaced,
		"zones_file", e.path,
		"actor", actorName(ctx))

	_, _ = fmt.Fprintf(e.out, "saved %s\n", z)

	warnIfMonitorRunning(ctx)

	return nil
}

// Remove deletes the named zone.
func Remove(ctx context.Context, opts *Options, name string) error {
	ctx = logger.WithName(ctx, "zone-editor")

	e, err := open(opts)
	if err != nil {
		return err
	}

	zones, err := e.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load zones: %w", err)
	}

	kept := make([]*zone.Zone, 0, len(zones))
	for _, z := range zones {
		if z.Name() != name {
			kept = append(kept, z)
		}
	}

	if len(kept) == len(zones) {
		return fmt.Errorf("%w: %q in %s", ErrZoneNotFound, name, e.path)
	}

	if err = e.repo.Save(ctx, kept); err != nil {
		return fmt.Errorf("save zones: %w", err)
	}

	logger.InfoKV(ctx, "Zone removed", "zone", name, "zones_file", e.path, "actor", actorName(ctx))

	_, _ = fmt.Fprintf(e.out, "removed %s\n", name)

	warnIfMonitorRunning(ctx)

	return nil
}

// List prints every zone with its points.
func List(ctx context.Context, opts *Options) error {
	e, err := open(opts)
	if err != nil {
		return err
	}

	zones, err := e.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load zones: %w", err)
	}

	if len(zones) == 0 {
		_, _ = fmt.Fprintf(e.out, "no zones in %s\n", e.path)

		return nil
	}

	for _, z := range zones {
		suffix := ""
		if z.Validate() != nil {
			suffix = " (invalid, needs at least 3 points)"
		}

		_, _ = fmt.Fprintf(e.out, "%s%s\n", z, suffix)
	}

	return nil
}

// Check prints, for every zone, whether the point lies inside it.
func Check(ctx context.Context, opts *Options, x, y float64) error {
	e, err := open(opts)
	if err != nil {
		return err
	}

	zones, err := e.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load zones: %w", err)
	}

	for _, z := range zones {
		where := "outside"
		if z.Contains(x, y) {
			where = "inside"
		}

		_, _ = fmt.Fprintf(e.out, "%s %s\n", where, z.Name())
	}

	return nil
}

// ParsePoint parses an "x,y" pair of integers.
func ParsePoint(s string) (zone.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return zone.Point{}, fmt.Errorf("%w: %q", errBadPoint, s)
	}

	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return zone.Point{}, fmt.Errorf("%w: %q: %w", errBadPoint, s, err)
	}

	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return zone.Point{}, fmt.Errorf("%w: %q: %w", errBadPoint, s, err)
	}

	return zone.Point{X: x, Y: y}, nil
}

// actorName returns user@host for audit logs, or "unknown".
func actorName(ctx context.Context) string {
	actor, err := common.DetectActor()
	if err != nil {
		logger.DebugKV(ctx, "Cannot detect actor", "error", err)

		return "unknown"
	}

	return actor.String()
}
