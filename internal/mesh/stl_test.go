package mesh_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/voxelforge/internal/mesh"
	"github.com/banshee-data/voxelforge/internal/testutil"
)

func TestDecodeASCII(t *testing.T) {
	want := testutil.CubeTriangles(2)
	got, err := mesh.Decode(testutil.ASCIISTL("cube", want))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("triangles mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeBinary(t *testing.T) {
	want := testutil.CubeTriangles(1.5)
	got, err := mesh.Decode(binarySTL(want))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("triangles mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeBinaryWithSolidHeader(t *testing.T) {
	// binary files may start with "solid" too; the length check must win
	tris := testutil.CubeTriangles(1)
	data := binarySTL(tris)
	copy(data[:5], "solid")

	got, err := mesh.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(tris) {
		t.Errorf("got %d triangles, want %d", len(got), len(tris))
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := mesh.Decode([]byte("not a mesh at all")); err == nil {
		t.Error("garbage input accepted")
	}
	if _, err := mesh.Decode(nil); err == nil {
		t.Error("empty input accepted")
	}
}

func TestDecodeASCIIBadVertex(t *testing.T) {
	doc := "solid x\nfacet normal 0 0 0\nouter loop\nvertex 1 2\nendloop\nendfacet\nendsolid x\n"
	if _, err := mesh.Decode([]byte(doc)); err == nil {
		t.Error("truncated vertex accepted")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	name := testutil.WriteCubeSTL(t, dir, 3)

	tris, err := mesh.Load(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tris) != 12 {
		t.Errorf("got %d triangles, want 12", len(tris))
	}

	if _, err := mesh.Load(filepath.Join(dir, "missing.stl")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file: got %v, want fs.ErrNotExist", err)
	}
}

// binarySTL renders triangles in the 84-byte-header binary layout.
func binarySTL(tris []r3.Triangle) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	binary.Write(&buf, binary.LittleEndian, uint32(len(tris)))
	for _, t := range tris {
		buf.Write(make([]byte, 12)) // normal, ignored by the parser
		for _, v := range t {
			binary.Write(&buf, binary.LittleEndian, float32(v.X))
			binary.Write(&buf, binary.LittleEndian, float32(v.Y))
			binary.Write(&buf, binary.LittleEndian, float32(v.Z))
		}
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}
