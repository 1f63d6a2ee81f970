package measure

import (
	"math"

	"github.com/tsawler/quire/model"
)

// MinLineWidth is the hard floor applied to every computed line width. No
// combination of indents may drive a measured width below it; the floor is
// what prevents zero- or negative-width measurement loops.
const MinLineWidth = 1.0

// ContentWidth computes the width available to a paragraph's body lines.
// Positive left/right indents subtract from maxWidth; negative indents add
// their absolute value, independently per side. Decimal values pass through
// exactly; only the final floor adjusts the result.
func ContentWidth(maxWidth float64, ind model.Indents) float64 {
	w := maxWidth +
		math.Max(0, -ind.Left) + math.Max(0, -ind.Right) -
		math.Max(0, ind.Left) - math.Max(0, ind.Right)
	return floorWidth(w)
}

// FirstLineOffset computes the extra indentation of the first line. Hanging
// offsets count against the first-line indent but never push it negative.
func FirstLineOffset(ind model.Indents) float64 {
	return math.Max(0, ind.FirstLine-ind.Hanging)
}

// ParagraphWidths returns the first-line and body-line widths for a
// paragraph laid out at maxWidth. Body lines always get the full content
// width; hanging indents move where body text is anchored, never how much
// width it measures against. Both results are floored at MinLineWidth.
func ParagraphWidths(maxWidth float64, ind model.Indents) (first, body float64) {
	body = ContentWidth(maxWidth, ind)
	first = floorWidth(body - FirstLineOffset(ind))
	return first, body
}

func floorWidth(w float64) float64 {
	if w < MinLineWidth {
		return MinLineWidth
	}
	return w
}
