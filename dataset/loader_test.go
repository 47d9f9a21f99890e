package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestReadKEEL(t *testing.T) {
	path := writeFile(t, "iris.dat", `@relation test
@attribute f1 real
@attribute f2 real
@attribute class {a, b}
@inputs f1, f2
@outputs class
@data
1.0, 2.0, a
3.0, 4.0, b
5.0, 6.0, unlabeled
`)

	X, y, err := ReadKEEL(path, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(X) != 3 || len(X[0]) != 2 {
		t.Fatalf("expected 3x2 features, got %dx%d", len(X), len(X[0]))
	}
	// Categorical targets are encoded in ascending lexical order.
	if y[0] != 0 || y[1] != 1 {
		t.Fatalf("expected codes [0 1], got %v", y[:2])
	}
	if y[2] != -1 {
		t.Fatalf("expected unlabeled marker -1, got %d", y[2])
	}
}

func TestReadCSVWithHeaderAndQuestionMark(t *testing.T) {
	path := writeFile(t, "data.csv", `f1,f2,class
0.1,0.2,0
0.3,0.4,1
0.5,0.6,?
`)

	opts := DefaultLoadOptions()
	opts.Header = true
	X, y, err := ReadCSV(path, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(X) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(X))
	}
	if y[0] != 0 || y[1] != 1 || y[2] != -1 {
		t.Fatalf("expected [0 1 -1], got %v", y)
	}
}

func TestSecureShiftsMinusOneClass(t *testing.T) {
	path := writeFile(t, "signed.csv", `0.1,0.2,-1
0.3,0.4,1
0.5,0.6,unlabeled
`)

	X, y, err := ReadCSV(path, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(X) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(X))
	}
	// -1 is a genuine class here, so every class shifts by +2 and -1 stays
	// reserved for the unlabeled instance.
	if y[0] != 1 || y[1] != 3 || y[2] != -1 {
		t.Fatalf("expected [1 3 -1], got %v", y)
	}
}

func TestSplitLabeled(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	y := []int{0, -1, 1}

	XL, yL, XU := SplitLabeled(X, y)
	if len(XL) != 2 || len(yL) != 2 || len(XU) != 1 {
		t.Fatalf("bad split: %d labeled, %d unlabeled", len(XL), len(XU))
	}
	if XU[0][0] != 2 {
		t.Fatalf("wrong instance in unlabeled part: %v", XU[0])
	}
}
