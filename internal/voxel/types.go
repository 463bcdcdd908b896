// Package voxel defines the regular-grid primitives shared by the engine:
// integer grid coordinates, per-voxel attributes, and the mapping between
// grid indices and real-space positions.
package voxel

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Defaults applied to freshly rasterized or reset voxels.
const (
	DefaultMaterial = 1

	DefaultMagnitude = 0.0
	DefaultPolar     = 90.0
	DefaultAzimuth   = 0.0
)

// Coord identifies one grid cell by its integer indices.
type Coord struct {
	X int `json:"ix"`
	Y int `json:"iy"`
	Z int `json:"iz"`
}

// Magnetization holds the stored (never simulated) magnetization parameters
// of a voxel: magnitude plus spherical direction angles in degrees.
type Magnetization struct {
	Magnitude float64 `json:"magnitude"`
	Polar     float64 `json:"polar"`
	Azimuth   float64 `json:"azimuth"`
}

// DefaultMagnetization returns the zero-magnitude default direction.
func DefaultMagnetization() Magnetization {
	return Magnetization{Magnitude: DefaultMagnitude, Polar: DefaultPolar, Azimuth: DefaultAzimuth}
}

// Validate checks the magnitude and angle ranges.
func (m Magnetization) Validate() error {
	if m.Magnitude < 0 {
		return fmt.Errorf("magnetization magnitude must be >= 0, got %g", m.Magnitude)
	}
	if m.Polar < 0 || m.Polar > 180 {
		return fmt.Errorf("magnetization polar angle must be in [0,180], got %g", m.Polar)
	}
	if m.Azimuth < 0 || m.Azimuth >= 360 {
		return fmt.Errorf("magnetization azimuth angle must be in [0,360), got %g", m.Azimuth)
	}
	return nil
}

// Attributes is the complete per-voxel record. Every stored voxel carries a
// full set; there are no partial records.
type Attributes struct {
	Material int           `json:"material"`
	Magnet   Magnetization `json:"magnetization"`
}

// DefaultAttributes returns the attributes assigned by the rasterizer.
func DefaultAttributes() Attributes {
	return Attributes{Material: DefaultMaterial, Magnet: DefaultMagnetization()}
}

// Validate checks the material ID and magnetization ranges.
func (a Attributes) Validate() error {
	if a.Material <= 0 {
		return fmt.Errorf("material id must be positive, got %d", a.Material)
	}
	return a.Magnet.Validate()
}

// Voxel combines a grid coordinate with its attributes.
type Voxel struct {
	Coord
	Attributes
}

// Axis selects one of the three grid axes for layer queries.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// ParseAxis converts the wire representation ("x", "y" or "z").
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("axis must be \"x\", \"y\" or \"z\", got %q", s)
}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Component returns the coordinate's index along the axis.
func (a Axis) Component(c Coord) int {
	switch a {
	case AxisX:
		return c.X
	case AxisY:
		return c.Y
	}
	return c.Z
}

// Planar returns the two in-plane components of c for a layer perpendicular
// to the axis: (iy,iz) for X, (ix,iz) for Y, (ix,iy) for Z.
func (a Axis) Planar(c Coord) (u, v int) {
	switch a {
	case AxisX:
		return c.Y, c.Z
	case AxisY:
		return c.X, c.Z
	}
	return c.X, c.Y
}

// Grid anchors integer coordinates in real space. Origin is the minimum
// corner of the rasterized mesh's bounding box; it is derived once per
// project and shared by all of its partitions.
type Grid struct {
	Origin r3.Vec  `json:"origin"`
	Size   float64 `json:"voxel_size"`
}

// Center returns the real-space centre of the cell at c.
func (g Grid) Center(c Coord) r3.Vec {
	return r3.Vec{
		X: g.Origin.X + (float64(c.X)+0.5)*g.Size,
		Y: g.Origin.Y + (float64(c.Y)+0.5)*g.Size,
		Z: g.Origin.Z + (float64(c.Z)+0.5)*g.Size,
	}
}

// AxisCoordinate returns the real-space centre coordinate of the layer at
// the given grid index along the axis.
func (g Grid) AxisCoordinate(a Axis, index int) float64 {
	base := g.Origin.Z
	switch a {
	case AxisX:
		base = g.Origin.X
	case AxisY:
		base = g.Origin.Y
	}
	return base + (float64(index)+0.5)*g.Size
}
