// Package mesh loads triangulated surface meshes from STL files, in both
// binary and ASCII form, into gonum spatial/r3 triangles.
package mesh

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// binary STL layout: 80-byte header, uint32 triangle count, then 50 bytes
// per triangle (normal, three vertices as float32 triples, uint16 attrs).
const (
	binaryHeaderLen   = 84
	binaryTriangleLen = 50
)

// Load reads an STL file and returns its triangles.
func Load(path string) ([]r3.Triangle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stl: %w", err)
	}
	return Decode(data)
}

// Decode parses STL bytes, auto-detecting the binary and ASCII variants.
// Binary files may begin with "solid" too, so detection checks that the
// declared triangle count matches the file length before falling back to
// the ASCII parser.
func Decode(data []byte) ([]r3.Triangle, error) {
	if isBinary(data) {
		return decodeBinary(data)
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return decodeASCII(data)
	}
	return nil, fmt.Errorf("unrecognised stl data (%d bytes)", len(data))
}

func isBinary(data []byte) bool {
	if len(data) < binaryHeaderLen {
		return false
	}
	count := binary.LittleEndian.Uint32(data[80:84])
	return len(data) == binaryHeaderLen+int(count)*binaryTriangleLen
}

func decodeBinary(data []byte) ([]r3.Triangle, error) {
	count := binary.LittleEndian.Uint32(data[80:84])
	tris := make([]r3.Triangle, 0, count)
	off := binaryHeaderLen
	for i := uint32(0); i < count; i++ {
		// skip the 12-byte normal; it is recomputed where needed
		var t r3.Triangle
		for v := 0; v < 3; v++ {
			base := off + 12 + v*12
			t[v] = r3.Vec{
				X: float64(readFloat32(data[base:])),
				Y: float64(readFloat32(data[base+4:])),
				Z: float64(readFloat32(data[base+8:])),
			}
		}
		tris = append(tris, t)
		off += binaryTriangleLen
	}
	return tris, nil
}

func readFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func decodeASCII(data []byte) ([]r3.Triangle, error) {
	var (
		tris []r3.Triangle
		cur  []r3.Vec
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("stl line %d: vertex needs 3 coordinates", line)
			}
			var v r3.Vec
			var err error
			if v.X, err = strconv.ParseFloat(fields[1], 64); err == nil {
				if v.Y, err = strconv.ParseFloat(fields[2], 64); err == nil {
					v.Z, err = strconv.ParseFloat(fields[3], 64)
				}
			}
			if err != nil {
				return nil, fmt.Errorf("stl line %d: bad vertex: %w", line, err)
			}
			cur = append(cur, v)
		case "endfacet":
			if len(cur) != 3 {
				return nil, fmt.Errorf("stl line %d: facet has %d vertices, want 3", line, len(cur))
			}
			tris = append(tris, r3.Triangle{cur[0], cur[1], cur[2]})
			cur = cur[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan stl: %w", err)
	}
	return tris, nil
}
