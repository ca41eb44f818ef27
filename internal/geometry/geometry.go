// Package geometry implements the planar polygon operations the zone pipeline
// needs: ring validation, shoelace area, ray-casting containment, and
// Sutherland-Hodgman clipping for intersection area. Coordinates are pixel
// space; no projection is involved.
package geometry

import "math"

// Point is a 2D pixel-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Ring is an ordered open ring of polygon vertices. The closing edge from the
// last vertex back to the first is implicit. Winding order does not matter;
// area computations take the absolute value.
type Ring []Point

// Area returns the absolute area of the ring via the shoelace formula.
// Rings with fewer than 3 vertices have zero area.
func (r Ring) Area() float64 {
	if len(r) < 3 {
		return 0
	}
	sum := 0.0
	for i := range r {
		j := (i + 1) % len(r)
		sum += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return math.Abs(sum) / 2
}

// Contains reports whether p lies strictly inside the ring, using the
// even-odd ray-casting rule with a ray cast in the +X direction. Points on an
// edge may land on either side; callers needing edge guarantees should use
// area overlap instead.
func (r Ring) Contains(p Point) bool {
	if len(r) < 3 {
		return false
	}
	inside := false
	j := len(r) - 1
	for i := 0; i < len(r); i++ {
		pi, pj := r[i], r[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			cross := (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y) + pi.X
			if p.X < cross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// IntersectionArea returns the area of the overlap between subject and a
// convex clip ring, computed by Sutherland-Hodgman clipping. The subject may
// be any simple ring; the clip ring must be convex (detection bounding boxes
// always are). Returns 0 when the rings do not overlap.
func IntersectionArea(subject, clip Ring) float64 {
	clipped := clipRing(subject, clip)
	return clipped.Area()
}

// clipRing clips subject against each directed edge of the convex clip ring.
func clipRing(subject, clip Ring) Ring {
	if len(subject) < 3 || len(clip) < 3 {
		return nil
	}
	// Orient the clip ring counter-clockwise so "inside" is a consistent side.
	c := clip
	if signedArea(c) < 0 {
		c = reversed(c)
	}

	output := subject
	for i := 0; i < len(c) && len(output) > 0; i++ {
		a := c[i]
		b := c[(i+1)%len(c)]
		input := output
		output = nil
		for j := 0; j < len(input); j++ {
			cur := input[j]
			prev := input[(j+len(input)-1)%len(input)]
			curIn := isLeftOrOn(a, b, cur)
			prevIn := isLeftOrOn(a, b, prev)
			switch {
			case curIn && prevIn:
				output = append(output, cur)
			case curIn && !prevIn:
				output = append(output, lineIntersect(a, b, prev, cur), cur)
			case !curIn && prevIn:
				output = append(output, lineIntersect(a, b, prev, cur))
			}
		}
	}
	return output
}

func signedArea(r Ring) float64 {
	sum := 0.0
	for i := range r {
		j := (i + 1) % len(r)
		sum += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return sum / 2
}

func reversed(r Ring) Ring {
	out := make(Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// isLeftOrOn reports whether p is on or to the left of the directed edge a->b.
func isLeftOrOn(a, b, p Point) bool {
	return (b.X-a.X)*(p.Y-a.Y)-(b.Y-a.Y)*(p.X-a.X) >= 0
}

// lineIntersect returns the intersection of the infinite line a->b with the
// segment p->q. Callers only invoke it when the segment is known to cross.
func lineIntersect(a, b, p, q Point) Point {
	a1 := b.Y - a.Y
	b1 := a.X - b.X
	c1 := a1*a.X + b1*a.Y

	a2 := q.Y - p.Y
	b2 := p.X - q.X
	c2 := a2*p.X + b2*p.Y

	det := a1*b2 - a2*b1
	if det == 0 {
		// Parallel; fall back to the segment start.
		return p
	}
	return Point{
		X: (b2*c1 - b1*c2) / det,
		Y: (a1*c2 - a2*c1) / det,
	}
}
