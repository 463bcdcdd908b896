// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// CubeTriangles returns the twelve triangles of an axis-aligned cube with the
// given side length and its minimum corner at the origin. Winding is
// outward-facing but the rasterizer only needs a watertight surface.
func CubeTriangles(side float64) []r3.Triangle {
	s := side
	v := [8]r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: s, Y: 0, Z: 0},
		{X: s, Y: s, Z: 0},
		{X: 0, Y: s, Z: 0},
		{X: 0, Y: 0, Z: s},
		{X: s, Y: 0, Z: s},
		{X: s, Y: s, Z: s},
		{X: 0, Y: s, Z: s},
	}
	quads := [6][4]int{
		{0, 3, 2, 1}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4}, // front
		{2, 3, 7, 6}, // back
		{1, 2, 6, 5}, // right
		{3, 0, 4, 7}, // left
	}
	tris := make([]r3.Triangle, 0, 12)
	for _, q := range quads {
		tris = append(tris,
			r3.Triangle{v[q[0]], v[q[1]], v[q[2]]},
			r3.Triangle{v[q[0]], v[q[2]], v[q[3]]},
		)
	}
	return tris
}

// ASCIISTL renders triangles as an ASCII STL document.
func ASCIISTL(name string, tris []r3.Triangle) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "solid %s\n", name)
	for _, t := range tris {
		buf.WriteString("  facet normal 0 0 0\n    outer loop\n")
		for _, p := range t {
			fmt.Fprintf(&buf, "      vertex %g %g %g\n", p.X, p.Y, p.Z)
		}
		buf.WriteString("    endloop\n  endfacet\n")
	}
	fmt.Fprintf(&buf, "endsolid %s\n", name)
	return buf.Bytes()
}

// WriteCubeSTL writes an ASCII STL cube into dir and returns its filename.
func WriteCubeSTL(t *testing.T, dir string, side float64) string {
	t.Helper()
	name := "cube.stl"
	data := ASCIISTL("cube", CubeTriangles(side))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write cube stl: %v", err)
	}
	return name
}
