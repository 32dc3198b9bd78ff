package brot

import (
	"math"
	"testing"
)

func TestDefaultViewport(t *testing.T) {
	v := DefaultViewport()
	if v.XMin != XMin || v.XRange != XRange || v.YMin != YMin || v.YRange != YRange {
		t.Errorf("DefaultViewport() = %+v, want the package constants", v)
	}
	if v.Steps != Steps {
		t.Errorf("Steps = %d, want %d", v.Steps, Steps)
	}
}

func TestViewportGridCoords(t *testing.T) {
	v := testViewport(10) // dx = dy = 0.3

	if got := v.DX(); math.Abs(got-0.3) > 1e-12 {
		t.Errorf("DX() = %v, want 0.3", got)
	}
	if got := v.DY(); math.Abs(got-0.3) > 1e-12 {
		t.Errorf("DY() = %v, want 0.3", got)
	}
	if got := v.GridX(0); got != v.XMin {
		t.Errorf("GridX(0) = %v, want %v", got, v.XMin)
	}
	if got := v.GridX(10); math.Abs(got-(v.XMin+v.XRange)) > 1e-12 {
		t.Errorf("GridX(Steps) = %v, want %v", got, v.XMin+v.XRange)
	}
	if got := v.GridY(5); math.Abs(got-(v.YMin+1.5)) > 1e-12 {
		t.Errorf("GridY(5) = %v, want %v", got, v.YMin+1.5)
	}
	if got := v.Cells(); got != 9 {
		t.Errorf("Cells() = %d, want 9", got)
	}
}

func TestViewportBin(t *testing.T) {
	v := testViewport(10)

	tests := []struct {
		name   string
		x, y   float64
		wantXi int
		wantYi int
		wantOk bool
	}{
		{"origin", 0, 0, 7, 5, true},
		{"lower left corner", v.XMin, v.YMin, 0, 0, true},
		{"left of range", v.XMin - 0.001, 0, 0, 0, false},
		{"right edge excluded", v.XMin + v.XRange, 0, 0, 0, false},
		{"below range", 0, v.YMin - 1, 0, 0, false},
		{"top edge excluded", 0, v.YMin + v.YRange, 0, 0, false},
		{"just inside top", 0, v.YMin + v.YRange - 1e-9, 7, 9, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xi, yi, ok := v.Bin(tt.x, tt.y)
			if ok != tt.wantOk {
				t.Fatalf("Bin(%v, %v) ok = %v, want %v", tt.x, tt.y, ok, tt.wantOk)
			}
			if ok && (xi != tt.wantXi || yi != tt.wantYi) {
				t.Errorf("Bin(%v, %v) = (%d, %d), want (%d, %d)",
					tt.x, tt.y, xi, yi, tt.wantXi, tt.wantYi)
			}
		})
	}
}

func TestViewportBinCoversEveryCell(t *testing.T) {
	// Every cell center must bin to its own cell indices.
	v := testViewport(16)
	dx, dy := v.DX(), v.DY()
	for yi := 0; yi < v.Steps; yi++ {
		for xi := 0; xi < v.Steps; xi++ {
			x := v.GridX(xi) + dx/2
			y := v.GridY(yi) + dy/2
			gx, gy, ok := v.Bin(x, y)
			if !ok {
				t.Fatalf("Bin(%v, %v) not ok for cell (%d, %d)", x, y, xi, yi)
			}
			if gx != xi || gy != yi {
				t.Fatalf("Bin(%v, %v) = (%d, %d), want (%d, %d)", x, y, gx, gy, xi, yi)
			}
		}
	}
}
