package model

import "testing"

func closeEnough(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestRootPatchIsUnitSquare(t *testing.T) {
	r := DecodeRect(1, 1)
	if !closeEnough(r.UMin, 0, 1e-6) || !closeEnough(r.UMax, 1, 1e-6) {
		t.Fatalf("root u range = [%v,%v], want [0,1]", r.UMin, r.UMax)
	}
	if !closeEnough(r.VMin, 0, 1e-6) || !closeEnough(r.VMax, 1, 1e-6) {
		t.Fatalf("root v range = [%v,%v], want [0,1]", r.VMin, r.VMax)
	}
}

func TestSplitCoversUnitInterval(t *testing.T) {
	root := RootPatch(0)
	lo, hi := root.SplitU()

	loRect := DecodeRect(lo.U, lo.V)
	hiRect := DecodeRect(hi.U, hi.V)

	if !closeEnough(loRect.UMin, 0, 1e-6) || !closeEnough(loRect.UMax, 0.5, 1e-6) {
		t.Fatalf("lo child u range = [%v,%v], want [0,0.5]", loRect.UMin, loRect.UMax)
	}
	if !closeEnough(hiRect.UMin, 0.5, 1e-6) || !closeEnough(hiRect.UMax, 1, 1e-6) {
		t.Fatalf("hi child u range = [%v,%v], want [0.5,1]", hiRect.UMin, hiRect.UMax)
	}
	// v axis untouched by a u-split.
	if loRect.VMin != 0 || loRect.VMax != 1 {
		t.Fatalf("u-split must not change v range, got [%v,%v]", loRect.VMin, loRect.VMax)
	}
}

func TestDepthKSplitsProduce2PowKDisjointRects(t *testing.T) {
	const k = 4
	frontier := []Patch{RootPatch(0)}
	for i := 0; i < k; i++ {
		var next []Patch
		for _, p := range frontier {
			lo, hi := p.SplitU()
			next = append(next, lo, hi)
		}
		frontier = next
	}
	if len(frontier) != 1<<k {
		t.Fatalf("got %d leaves after %d splits, want %d", len(frontier), k, 1<<k)
	}

	seen := make(map[[2]float32]bool)
	var total float32
	for _, p := range frontier {
		r := DecodeRect(p.U, p.V)
		width := r.UMax - r.UMin
		total += width
		key := [2]float32{r.UMin, r.UMax}
		if seen[key] {
			t.Fatalf("duplicate rect %v", key)
		}
		seen[key] = true
	}
	if !closeEnough(total, 1.0, 1e-5) {
		t.Fatalf("leaf widths sum to %v, want 1.0", total)
	}
}

func TestDecodeRootAfterTwoAxisSplits(t *testing.T) {
	root := RootPatch(7)
	_, hiU := root.SplitU()
	loV, _ := hiU.SplitV()

	r := DecodeRect(loV.U, loV.V)
	if !closeEnough(r.UMin, 0.5, 1e-6) || !closeEnough(r.UMax, 1, 1e-6) {
		t.Fatalf("u range = [%v,%v], want [0.5,1]", r.UMin, r.UMax)
	}
	if !closeEnough(r.VMin, 0, 1e-6) || !closeEnough(r.VMax, 0.5, 1e-6) {
		t.Fatalf("v range = [%v,%v], want [0,0.5]", r.VMin, r.VMax)
	}
	if loV.Instance != 7 {
		t.Fatalf("instance = %d, want 7 (split must preserve instance)", loV.Instance)
	}
}
