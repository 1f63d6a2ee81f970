package model

// Point represents a 2D point in layout units
type Point struct {
	X, Y float64
}

// BBox represents a bounding box (rectangle). The origin is the top-left of
// the page; Y grows downward, matching flow order.
type BBox struct {
	X      float64 // Left
	Y      float64 // Top
	Width  float64
	Height float64
}

// NewBBox creates a bounding box from coordinates
func NewBBox(x, y, width, height float64) BBox {
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// Left returns the left edge X coordinate
func (b BBox) Left() float64 {
	return b.X
}

// Right returns the right edge X coordinate
func (b BBox) Right() float64 {
	return b.X + b.Width
}

// Top returns the top edge Y coordinate
func (b BBox) Top() float64 {
	return b.Y
}

// Bottom returns the bottom edge Y coordinate
func (b BBox) Bottom() float64 {
	return b.Y + b.Height
}

// Contains checks if a point is inside the bounding box
func (b BBox) Contains(p Point) bool {
	return p.X >= b.Left() && p.X <= b.Right() &&
		p.Y >= b.Top() && p.Y <= b.Bottom()
}

// Intersects checks if two bounding boxes intersect
func (b BBox) Intersects(other BBox) bool {
	return !(b.Right() < other.Left() ||
		b.Left() > other.Right() ||
		b.Bottom() < other.Top() ||
		b.Top() > other.Bottom())
}

// Orientation is the page orientation of a section
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "Landscape"
	}
	return "Portrait"
}

// PageSize is a page size in layout units (points), stored portrait-relative.
type PageSize struct {
	Width  float64
	Height float64
}

// Standard page sizes in points.
var (
	PageLetter  = PageSize{Width: 612, Height: 792}
	PageLegal   = PageSize{Width: 612, Height: 1008}
	PageTabloid = PageSize{Width: 792, Height: 1224}
	PageA4      = PageSize{Width: 595.28, Height: 841.89}
	PageA5      = PageSize{Width: 419.53, Height: 595.28}
)

// Landscape returns the size rotated to landscape (wide edge horizontal)
func (p PageSize) Landscape() PageSize {
	if p.Width >= p.Height {
		return p
	}
	return PageSize{Width: p.Height, Height: p.Width}
}

// Portrait returns the size rotated to portrait (tall edge vertical)
func (p PageSize) Portrait() PageSize {
	if p.Height >= p.Width {
		return p
	}
	return PageSize{Width: p.Height, Height: p.Width}
}

// IsLandscape reports whether width exceeds height
func (p PageSize) IsLandscape() bool {
	return p.Width > p.Height
}

// Oriented returns the size rotated per the given orientation
func (p PageSize) Oriented(o Orientation) PageSize {
	if o == Landscape {
		return p.Landscape()
	}
	return p.Portrait()
}

// Margins holds the page margins of a section in layout units
type Margins struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// DefaultMargins returns one-inch margins on all sides
func DefaultMargins() Margins {
	return Margins{Top: 72, Bottom: 72, Left: 72, Right: 72}
}
