package utils

import "testing"

func TestMinMax(t *testing.T) {
	if Min(3, 5) != 3 || Min(5, 3) != 3 {
		t.Error("Min failed")
	}
	if Max(3, 5) != 5 || Max(5, 3) != 5 {
		t.Error("Max failed")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(10, 0, 5) != 5 {
		t.Error("Clamp above max failed")
	}
	if Clamp(-1, 0, 5) != 0 {
		t.Error("Clamp below min failed")
	}
	if Clamp(3, 0, 5) != 3 {
		t.Error("Clamp inside range failed")
	}
	if ClampFloat64(2.5, 0, 1) != 1 {
		t.Error("ClampFloat64 failed")
	}
}
