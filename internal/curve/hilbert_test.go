package curve

import "testing"

func TestRoundTrip(t *testing.T) {
	for order := uint(MinOrder); order <= MaxOrder; order++ {
		dim := Dimension(order)
		step := dim / 16
		if step == 0 {
			step = 1
		}
		for x := uint32(0); x < dim; x += step {
			for y := uint32(0); y < dim; y += step {
				idx := Encode(x, y, order)
				gx, gy := Decode(idx, order)
				if gx != x || gy != y {
					t.Fatalf("order %d: decode(encode(%d,%d)) = (%d,%d)", order, x, y, gx, gy)
				}
			}
		}
	}
}

func TestLocality(t *testing.T) {
	for order := uint(MinOrder); order <= 10; order++ {
		total := TotalPoints(order)
		var px, py uint32
		for i := uint64(0); i < total-1; i++ {
			x, y := Decode(i, order)
			nx, ny := Decode(i+1, order)
			dx := absDiff(x, nx)
			dy := absDiff(y, ny)
			if !(dx+dy == 1) {
				t.Fatalf("order %d: index %d -> %d jumped by (%d,%d), not unit step", order, i, i+1, dx, dy)
			}
			px, py = x, y
		}
		_ = px
		_ = py
	}
}

func TestDimensionAndTotalPoints(t *testing.T) {
	cfg, err := NewConfig(12)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dimension != 4096 {
		t.Errorf("dimension = %d, want 4096", cfg.Dimension)
	}
	if cfg.TotalPoints != 4096*4096 {
		t.Errorf("total points = %d, want %d", cfg.TotalPoints, 4096*4096)
	}
}

func TestNewConfigRejectsBadOrder(t *testing.T) {
	if _, err := NewConfig(3); err == nil {
		t.Error("expected error for order below MinOrder")
	}
	if _, err := NewConfig(17); err == nil {
		t.Error("expected error for order above MaxOrder")
	}
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
