package termgfx

// DirtyRegion is the bounding box of cells changed during a frame.
// MaxCol and MaxRow are col+width and row+height of the widest mark.
type DirtyRegion struct {
	MinCol int
	MinRow int
	MaxCol int
	MaxRow int
	Dirty  bool
}

// MarkAll marks the whole screen of cols x rows dirty.
func (d *DirtyRegion) MarkAll(cols, rows int) {
	d.MinCol, d.MinRow = 0, 0
	d.MaxCol, d.MaxRow = cols, rows
	d.Dirty = true
}

// MarkRegion grows the region to include the width x height rect at col, row.
func (d *DirtyRegion) MarkRegion(col, row, width, height int) {
	maxCol := col + width
	maxRow := row + height
	if !d.Dirty {
		d.MinCol, d.MinRow, d.MaxCol, d.MaxRow = col, row, maxCol, maxRow
		d.Dirty = true
		return
	}
	d.MinCol = min(d.MinCol, col)
	d.MinRow = min(d.MinRow, row)
	d.MaxCol = max(d.MaxCol, maxCol)
	d.MaxRow = max(d.MaxRow, maxRow)
}

// Clear resets the region to clean.
func (d *DirtyRegion) Clear() {
	*d = DirtyRegion{}
}

// Intersects reports whether the rect at col, row overlaps the region.
func (d DirtyRegion) Intersects(col, row, width, height int) bool {
	if !d.Dirty {
		return false
	}
	return !(col+width < d.MinCol || col > d.MaxCol || row+height < d.MinRow || row > d.MaxRow)
}
