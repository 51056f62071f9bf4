package zone

// Contains reports whether the point lies inside the zone or on its boundary.
//
// Points on an edge or vertex always count as inside. The test is done in two
// passes: an exact on-segment check for every edge, then even-odd ray casting
// with a half-open crossing rule, so identical inputs always give identical
// results. Zones with fewer than MinPoints vertices never contain anything.
func (z *Zone) Contains(x, y float64) bool {
	if z == nil || len(z.points) < MinPoints {
		return false
	}

	n := len(z.points)

	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if onSegment(z.points[j], z.points[i], x, y) {
			return true
		}
	}

	inside := false

	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := float64(z.points[i].X), float64(z.points[i].Y)
		xj, yj := float64(z.points[j].X), float64(z.points[j].Y)

		if (yi > y) == (yj > y) {
			continue
		}

		crossX := xj + (y-yj)*(xi-xj)/(yi-yj)
		if x < crossX {
			inside = !inside
		}
	}

	return inside
}

// onSegment reports whether (x, y) lies on the closed segment a-b.
func onSegment(a, b Point, x, y float64) bool {
	ax, ay := float64(a.X), float64(a.Y)
	bx, by := float64(b.X), float64(b.Y)

	cross := (bx-ax)*(y-ay) - (by-ay)*(x-ax)
	if cross != 0 {
		return false
	}

	return x >= min(ax, bx) && x <= max(ax, bx) &&
		y >= min(ay, by) && y <= max(ay, by)
}
