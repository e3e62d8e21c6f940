/*
Package npspec computes the optical spectra of layered nanoparticles.

Given the geometry of a particle, the material of each layer and the
surrounding medium, Compute returns the extinction, scattering and
absorption over a fixed grid of 800 wavelengths (200 to 999 nm). Spheres are
solved exactly with Mie theory (package mie) and one or two layer spheroids
with the quasistatic approximation (package quasi). Materials come from a
material.Catalog and spectra can be turned into colors with package
colorimetry.
*/
package npspec

import "fmt"

type NPSpecVersion struct {
	Major, Minor, Patch uint
}

func (v NPSpecVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v NPSpecVersion) Equal(o NPSpecVersion) bool {
	return v.Major == o.Major && v.Minor == o.Minor && v.Patch == o.Patch
}

func (v NPSpecVersion) After(o NPSpecVersion) bool {
	switch {
	case v.Major != o.Major:
		return v.Major > o.Major
	case v.Minor != o.Minor:
		return v.Minor > o.Minor
	}
	return v.Patch > o.Patch
}

func (v NPSpecVersion) Before(o NPSpecVersion) bool {
	return !v.Equal(o) && !v.After(o)
}

var Version = NPSpecVersion{1, 0, 0}
