package fusion

import (
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Box is a raw detector box in frame pixels. X and Y locate the box center.
type Box struct {
	X      int
	Y      int
	Width  int
	Height int
}

// BoxFromRect converts a top-left anchored rectangle, the form cascade
// classifiers report, into a center based Box.
func BoxFromRect(r image.Rectangle) Box {
	r = r.Canon()
	return Box{
		X:      r.Min.X + r.Dx()/2,
		Y:      r.Min.Y + r.Dy()/2,
		Width:  r.Dx(),
		Height: r.Dy(),
	}
}

// Rect returns the top-left anchored rectangle of b.
func (b Box) Rect() image.Rectangle {
	return newDetection(b, Undefined).Rect()
}

// Detection is an immutable detected region tagged with the source that
// produced it.
type Detection struct {
	Center image.Point
	Width  int
	Height int
	Source Source
	// Exact is set only on merges corroborated by enough distinct sources.
	Exact bool
}

func newDetection(b Box, src Source) Detection {
	return Detection{
		Center: image.Pt(b.X, b.Y),
		Width:  b.Width,
		Height: b.Height,
		Source: src,
	}
}

// Rect returns the rectangle of d in frame pixels.
func (d Detection) Rect() image.Rectangle {
	topLeft := image.Pt(d.Center.X-d.Width/2, d.Center.Y-d.Height/2)
	return image.Rectangle{Min: topLeft, Max: topLeft.Add(image.Pt(d.Width, d.Height))}
}

// CenterInside reports whether the center of d lies strictly inside other
// after other has been scaled by scale around its own center.
func (d Detection) CenterInside(other Detection, scale float64) bool {
	dx := math.Abs(float64(d.Center.X - other.Center.X))
	dy := math.Abs(float64(d.Center.Y - other.Center.Y))
	return offsetWithin(dx, dy, float64(other.Width)*scale/2, float64(other.Height)*scale/2)
}

// CenterIn is CenterInside with a scale of 1.
func (d Detection) CenterIn(other Detection) bool {
	return d.CenterInside(other, 1)
}

// FullyInside reports whether d fits entirely within other scaled by scale.
func (d Detection) FullyInside(other Detection, scale float64) bool {
	dx := math.Abs(float64(d.Center.X - other.Center.X))
	dy := math.Abs(float64(d.Center.Y - other.Center.Y))
	return offsetWithin(dx, dy,
		float64(other.Width)*scale-float64(d.Width),
		float64(other.Height)*scale-float64(d.Height))
}

// FullyIn is FullyInside with a scale of 1.
func (d Detection) FullyIn(other Detection) bool {
	return d.FullyInside(other, 1)
}

// offsetWithin is the strict comparison shared by the containment tests.
// An offset equal to the limit is outside.
func offsetWithin(dx, dy, limitX, limitY float64) bool {
	return dx < limitX && dy < limitY
}

// Distance is the Euclidean distance between the centers of d and other.
func (d Detection) Distance(other Detection) float64 {
	return distanceTo(d.Center, float64(other.Center.X), float64(other.Center.Y))
}

// LegacyDistance reproduces the historical metric sqrt(d.x² + other.y²),
// which mixes the x of one center with the y of the other. It is kept for
// comparing against old numeric output and is not used for selection.
func (d Detection) LegacyDistance(other Detection) float64 {
	return math.Hypot(float64(d.Center.X), float64(other.Center.Y))
}

func distanceTo(p image.Point, x, y float64) float64 {
	return floats.Distance([]float64{float64(p.X), float64(p.Y)}, []float64{x, y}, 2)
}

// Perimeter returns 2*(width+height).
func (d Detection) Perimeter() int {
	return 2 * (d.Width + d.Height)
}

// Area returns width*height.
func (d Detection) Area() int {
	return d.Width * d.Height
}

// DimensionSimilarity scores how alike the extents of d and other are.
// 1 means identical, lower is less similar.
func (d Detection) DimensionSimilarity(other Detection) float64 {
	diff := absInt(d.Width-other.Width) + absInt(d.Height-other.Height)
	return 1 - 2*float64(diff)/float64(d.Perimeter()+other.Perimeter())
}

// AreaSimilarity scores how alike the areas of d and other are.
// 1 means identical, lower is less similar.
func (d Detection) AreaSimilarity(other Detection) float64 {
	diff := absInt(d.Area() - other.Area())
	return 1 - float64(diff)/float64(d.Area()+other.Area())
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
