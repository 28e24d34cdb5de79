package config

import "testing"

func TestDefaultMatchesSourceDefaults(t *testing.T) {
	d := Default()
	if d.Hotkey != HotkeyShift {
		t.Errorf("Hotkey = %v, want shift", d.Hotkey)
	}
	if d.ScanRegion != "region" {
		t.Errorf("ScanRegion = %v, want region", d.ScanRegion)
	}
	if d.MaxLookupLength != 25 {
		t.Errorf("MaxLookupLength = %v, want 25", d.MaxLookupLength)
	}
	if d.QualityMode != QualityFast {
		t.Errorf("QualityMode = %v, want fast", d.QualityMode)
	}
	if d.AutoScanMode {
		t.Errorf("AutoScanMode = true, want false")
	}
}

func TestStoreApplyTakesEffectImmediately(t *testing.T) {
	store := NewStore(Default())

	if got := store.Load().MaxLookupLength; got != 25 {
		t.Fatalf("initial MaxLookupLength = %d, want 25", got)
	}

	next := store.Load()
	next.MaxLookupLength = 50
	store.Apply(next)

	if got := store.Load().MaxLookupLength; got != 50 {
		t.Fatalf("after Apply, MaxLookupLength = %d, want 50", got)
	}
}

func TestStoreLoadReturnsIndependentCopy(t *testing.T) {
	store := NewStore(Default())

	snap := store.Load()
	snap.MaxLookupLength = 999

	if got := store.Load().MaxLookupLength; got != 25 {
		t.Fatalf("mutating a loaded Snapshot affected the store: got %d, want 25", got)
	}
}
