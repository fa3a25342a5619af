package address

import "testing"

func TestIsNonRoutableKnownRoutable(t *testing.T) {
	if IsNonRoutable(NewAddr(1, 1, 1, 1)) {
		t.Error("1.1.1.1 should be routable")
	}
	if IsNonRoutable(NewAddr(8, 8, 8, 8)) {
		t.Error("8.8.8.8 should be routable")
	}
}

func TestIsNonRoutableRangeEndpoints(t *testing.T) {
	cases := []struct {
		name   string
		lo, hi Addr
	}{
		{"0.0.0.0/8", NewAddr(0, 0, 0, 0), NewAddr(0, 255, 255, 255)},
		{"10/8", NewAddr(10, 0, 0, 0), NewAddr(10, 255, 255, 255)},
		{"100.64/10", NewAddr(100, 64, 0, 0), NewAddr(100, 127, 255, 255)},
		{"127/8", NewAddr(127, 0, 0, 0), NewAddr(127, 255, 255, 255)},
		{"169.254/16", NewAddr(169, 254, 0, 0), NewAddr(169, 254, 255, 255)},
		{"172.16/12", NewAddr(172, 16, 0, 0), NewAddr(172, 31, 255, 255)},
		{"192.0.0/24", NewAddr(192, 0, 0, 0), NewAddr(192, 0, 0, 255)},
		{"192.0.2/24", NewAddr(192, 0, 2, 0), NewAddr(192, 0, 2, 255)},
		{"192.88.99/24", NewAddr(192, 88, 99, 0), NewAddr(192, 88, 99, 255)},
		{"192.168/16", NewAddr(192, 168, 0, 0), NewAddr(192, 168, 255, 255)},
		{"198.18/15", NewAddr(198, 18, 0, 0), NewAddr(198, 19, 255, 255)},
		{"198.51.100/24", NewAddr(198, 51, 100, 0), NewAddr(198, 51, 100, 255)},
		{"203.0.113/24", NewAddr(203, 0, 113, 0), NewAddr(203, 0, 113, 255)},
		{"224/4", NewAddr(224, 0, 0, 0), NewAddr(239, 255, 255, 255)},
		{"240/4", NewAddr(240, 0, 0, 0), NewAddr(255, 255, 255, 255)},
	}
	for _, c := range cases {
		if !IsNonRoutable(c.lo) {
			t.Errorf("%s: lowest address %d not classified non-routable", c.name, c.lo)
		}
		if !IsNonRoutable(c.hi) {
			t.Errorf("%s: highest address %d not classified non-routable", c.name, c.hi)
		}
	}
}

func TestOctetsRoundTrip(t *testing.T) {
	a := NewAddr(192, 168, 1, 1)
	o1, o2, o3, o4 := a.Octets()
	if o1 != 192 || o2 != 168 || o3 != 1 || o4 != 1 {
		t.Errorf("octets = %d.%d.%d.%d, want 192.168.1.1", o1, o2, o3, o4)
	}
}
