package xcorr

// tiledSharedBytes returns the scratch size one tile needs: two staged
// panels, one per source, each (tileHeight + kernelSize-1) rows by the
// full source width. A tile's destination rows r0..r0+tileHeight-1 read
// source rows r0..r0+tileHeight-1+(kernelSize-1) and candidate windows
// slide across the whole row, so the panel keeps full width.
func tiledSharedBytes[T Sample](kernelSize, cols, tileHeight int) int {
	panelRows := tileHeight + kernelSize - 1
	return 2 * panelRows * cols * sizeOf[T]()
}

// tiledKernel builds the staged kernel. Phase one copies the source rows
// the tile will touch into the tile-local buffer, the copy round-robined
// over the tile's threads; phase two runs the same search as the direct
// kernel against the staged panels. Output is bit-identical to the
// direct kernel's.
func tiledKernel[T Sample](src1, src2, dest []T, kernelSize, rows, cols int) TileKernelFunc {
	shift := kernelSize / 2
	destRows := rows - (kernelSize - 1)
	destCols := cols - (kernelSize - 1)
	halo := kernelSize - 1

	return func(g *TileGroup) {
		tileThreads := g.TileDim.Size()
		staged := g.TileDim.Y + halo
		panelBytes := staged * cols * sizeOf[T]()
		stage1 := SharedView[T](g, 0, panelBytes)
		stage2 := SharedView[T](g, panelBytes, panelBytes)

		// Source row the panel starts at. Tiles overhanging the
		// destination stage fewer rows; threads that would have read
		// the missing rows are out of range and never look.
		r0 := g.Tile.Y * g.TileDim.Y
		fill := staged
		if r0+fill > rows {
			fill = rows - r0
		}
		cells := fill * cols

		g.Phase(func(tid ThreadID) {
			for idx := tid.Linear(); idx < cells; idx += tileThreads {
				src := (r0+idx/cols)*cols + idx%cols
				stage1[idx] = src1[src]
				stage2[idx] = src2[src]
			}
		})

		g.Phase(func(tid ThreadID) {
			col := tid.GlobalX()
			row := tid.GlobalY()
			if row >= destRows || col >= destCols {
				return
			}

			offset := searchRow(stage1, stage2, row-r0, row-r0, cols, col+shift, kernelSize, cols)
			dest[row*destCols+col] = T(offset)
		})
	}
}
