package xcorr

import "fmt"

// Variant selects which correlation kernel a launch runs.
type Variant int

const (
	// VariantDirect reads source matrices from device memory in place.
	VariantDirect Variant = iota
	// VariantTiled stages the rows each tile needs into tile-local
	// memory before searching.
	VariantTiled
)

// String returns the variant name used in reports and CLI flags.
func (v Variant) String() string {
	switch v {
	case VariantDirect:
		return "direct"
	case VariantTiled:
		return "tiled"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant maps a flag value to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "direct":
		return VariantDirect, nil
	case "tiled":
		return VariantTiled, nil
	}
	return 0, NewInvalidArgError("ParseVariant", fmt.Sprintf("unknown variant %q", s))
}

// LaunchConfig is the caller-declared launch geometry: the tile shape in
// threads and the kernel variant. Grid extents are always derived from
// the destination extents, never supplied, so a launch can cover the
// destination exactly or not at all.
type LaunchConfig struct {
	TileWidth  int // threads per tile along destination columns
	TileHeight int // threads per tile along destination rows
	Variant    Variant
}

// DefaultLaunchConfig returns a square direct-kernel geometry clamped to
// the destination extents.
func DefaultLaunchConfig(destRows, destCols int) LaunchConfig {
	cfg := LaunchConfig{TileWidth: DefaultTileEdge, TileHeight: DefaultTileEdge}
	if destCols > 0 && cfg.TileWidth > destCols {
		cfg.TileWidth = destCols
	}
	if destRows > 0 && cfg.TileHeight > destRows {
		cfg.TileHeight = destRows
	}
	return cfg
}

// Tile returns the thread extents of one tile.
func (c LaunchConfig) Tile() Dim2 {
	return Dim2{X: c.TileWidth, Y: c.TileHeight}
}

// Grid returns the tile grid covering a destination of the given extents:
// enough tiles along each axis that width covers destCols and height
// covers destRows, with the last rank of tiles allowed to overhang.
func (c LaunchConfig) Grid(destRows, destCols int) Dim2 {
	return Dim2{
		X: (destCols + c.TileWidth - 1) / c.TileWidth,
		Y: (destRows + c.TileHeight - 1) / c.TileHeight,
	}
}

// Validate fails closed: any geometry the device cannot honor, or that
// cannot cover the destination meaningfully, is rejected before any
// allocation or launch happens.
func (c LaunchConfig) Validate(dev *Device, destRows, destCols int) error {
	const op = "LaunchConfig.Validate"
	if destRows < 1 || destCols < 1 {
		return NewGeometryError(op, fmt.Sprintf("empty destination %dx%d: window wider than source", destRows, destCols))
	}
	if c.TileWidth < 1 || c.TileHeight < 1 {
		return NewGeometryError(op, fmt.Sprintf("tile %dx%d: extents must be at least 1", c.TileWidth, c.TileHeight))
	}
	if threads := c.TileWidth * c.TileHeight; threads > dev.MaxThreadsPerTile {
		return NewGeometryError(op, fmt.Sprintf("tile %dx%d needs %d threads, device limit is %d",
			c.TileWidth, c.TileHeight, threads, dev.MaxThreadsPerTile))
	}
	if c.TileWidth > destCols || c.TileHeight > destRows {
		return NewGeometryError(op, fmt.Sprintf("tile %dx%d exceeds destination %dx%d",
			c.TileWidth, c.TileHeight, destRows, destCols))
	}
	return nil
}
