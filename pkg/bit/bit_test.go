package bit

import "testing"

func TestIsSet(t *testing.T) {
	cases := []struct {
		b    byte
		i    uint
		want bool
	}{
		{0x00, 0, false},
		{0x01, 0, true},
		{0x80, 7, true},
		{0x7F, 7, false},
		{0x40, 6, true},
		{0x40, 5, false},
	}
	for _, c := range cases {
		if got := IsSet(c.b, c.i); got != c.want {
			t.Errorf("IsSet(%02X, %d) = %v, want %v", c.b, c.i, got, c.want)
		}
	}
}

func TestSetClear(t *testing.T) {
	if got := Set(0x00, 3); got != 0x08 {
		t.Errorf("Set(0x00, 3) = %02X, want 08", got)
	}
	if got := Set(0xFF, 3); got != 0xFF {
		t.Errorf("Set(0xFF, 3) = %02X, want FF", got)
	}
	if got := Clear(0xFF, 3); got != 0xF7 {
		t.Errorf("Clear(0xFF, 3) = %02X, want F7", got)
	}
	if got := Clear(0x00, 3); got != 0x00 {
		t.Errorf("Clear(0x00, 3) = %02X, want 00", got)
	}
}

func TestAssign(t *testing.T) {
	if got := Assign(0x00, 5, true); got != 0x20 {
		t.Errorf("Assign(0x00, 5, true) = %02X, want 20", got)
	}
	if got := Assign(0x20, 5, false); got != 0x00 {
		t.Errorf("Assign(0x20, 5, false) = %02X, want 00", got)
	}
}

func TestEveryBitRoundTrips(t *testing.T) {
	var b byte
	for i := uint(0); i < 8; i++ {
		b = Set(b, i)
		if !IsSet(b, i) {
			t.Fatalf("bit %d not set after Set", i)
		}
		b = Clear(b, i)
		if IsSet(b, i) {
			t.Fatalf("bit %d still set after Clear", i)
		}
	}
}
