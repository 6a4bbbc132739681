package geo

import (
	"fmt"

	"github.com/dhconnelly/rtreego"
)

const (
	dimensions  = 2
	minChildren = 4
	maxChildren = 16
	tolerance   = 1e-9
)

// boxItem wraps a BoundingBox for R-tree indexing.
type boxItem struct {
	box  BoundingBox
	rect *rtreego.Rect
}

func (bi *boxItem) Bounds() *rtreego.Rect {
	return bi.rect
}

// BoxIndex answers "which boxes contain this point" with an R-tree.
type BoxIndex struct {
	tree *rtreego.Rtree
	size int
}

// NewBoxIndex indexes the given boxes. Boxes must have non-zero area.
func NewBoxIndex(boxes []BoundingBox) (*BoxIndex, error) {
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	for _, b := range boxes {
		if b.Height() <= 0 || b.Width() <= 0 {
			return nil, fmt.Errorf("invalid bounding box %s: zero area", b)
		}
		rect, err := rtreego.NewRect(
			rtreego.Point{b.MinLat, b.MinLon},
			[]float64{b.Height(), b.Width()},
		)
		if err != nil {
			return nil, fmt.Errorf("invalid bounding box %s: %w", b, err)
		}
		tree.Insert(&boxItem{box: b, rect: rect})
	}
	return &BoxIndex{tree: tree, size: len(boxes)}, nil
}

// Locate returns every indexed box containing p.
func (ix *BoxIndex) Locate(p Point) []BoundingBox {
	query := rtreego.Point{p.Lat, p.Lon}.ToRect(tolerance)

	var out []BoundingBox
	for _, result := range ix.tree.SearchIntersect(query) {
		item, ok := result.(*boxItem)
		if !ok {
			continue
		}
		// The query rect is padded; keep only exact containment.
		if item.box.Contains(p) {
			out = append(out, item.box)
		}
	}
	return out
}

// Size returns the number of indexed boxes.
func (ix *BoxIndex) Size() int {
	return ix.size
}
