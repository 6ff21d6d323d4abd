package common

import (
	"encoding/hex"
	"testing"
)

// ---------- MakeRandHexString ----------

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	n := 16
	s, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("MakeRandHexString error: %v", err)
	}
	if len(s) != n*2 {
		t.Fatalf("unexpected length: got %d want %d", len(s), n*2)
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("result is not valid hex: %v", err)
	}
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string, got %q", s)
	}
}

func TestMakeRandHexString_EntropyHint(t *testing.T) {
	n := 32
	a, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("MakeRandHexString error: %v", err)
	}
	b, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("MakeRandHexString error: %v", err)
	}
	if a == b {
		t.Logf("warning: two MakeRandHexString(%d) results are identical; extremely unlikely", n)
	}
}

// ---------- GenerateRandByteArray ----------

func TestGenerateRandByteArray_Basic(t *testing.T) {
	n := 24
	buf := GenerateRandByteArray(n)
	if len(buf) != n {
		t.Fatalf("unexpected length: got %d want %d", len(buf), n)
	}
}

func TestGenerateRandByteArray_EntropyHint(t *testing.T) {
	n := 32
	a := GenerateRandByteArray(n)
	b := GenerateRandByteArray(n)

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Logf("warning: two GenerateRandByteArray(%d) results are identical; extremely unlikely", n)
	}
}
