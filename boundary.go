package brot

// Cell addresses one 2x2-corner block of the classification grid.
// I is the grid row (y index), J the column (x index).
type Cell struct {
	I, J int
}

// cellCorners are the four grid points of a cell, relative to (I, J).
var cellCorners = [4][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}

// frontierRow scans one row of the cell lattice and appends the frontier
// cells, in column order, to dst. A grid point is in-set iff its iteration
// count equals maxIters; a cell is on the frontier iff its four corners are
// neither all in-set nor all out (corner sum strictly between 0 and 4).
func frontierRow(dst []Cell, iters []int32, steps int, maxIters int32, row int) []Cell {
	for j := 0; j < steps-1; j++ {
		sum := 0
		for _, d := range cellCorners {
			if iters[(row+d[0])*steps+(j+d[1])] == maxIters {
				sum++
			}
		}
		if sum > 0 && sum < 4 {
			dst = append(dst, Cell{I: row, J: j})
		}
	}
	return dst
}

// FrontierCells scans the (steps-1)x(steps-1) cell lattice of a
// classification grid and appends every frontier cell to dst in row-major
// order (row outer, column inner). The returned slice carries the final
// count.
//
// Size dst's capacity for the worst case, (steps-1)^2 cells, when avoiding
// reallocation matters; append grows it otherwise. iters must hold
// steps*steps values in grid row-major order.
func FrontierCells(dst []Cell, iters []int32, steps int, maxIters int32) []Cell {
	for i := 0; i < steps-1; i++ {
		dst = frontierRow(dst, iters, steps, maxIters, i)
	}
	return dst
}
