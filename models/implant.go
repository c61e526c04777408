// Package models provides the data structures shared by the phosphene client,
// the terminal view, and the development stub backend.
//
// This file defines the fixed set of retinal implants the backend simulates.
// The set is known at build time and the order of Implants is the display order.
package models

import "fmt"

// Implant identifies one simulated retinal prosthesis
type Implant string

const (
	AlphaAMS Implant = "AlphaAMS"
	ArgusII  Implant = "ArgusII"
	PRIMA    Implant = "PRIMA"
)

// Implants lists every implant in display order
var Implants = []Implant{AlphaAMS, ArgusII, PRIMA}

// ParseImplant returns the implant with the given name
func ParseImplant(name string) (Implant, error) {
	for _, i := range Implants {
		if string(i) == name {
			return i, nil
		}
	}
	return "", fmt.Errorf("unknown implant %q", name)
}

// Filename is the name a saved percept for this implant gets
func (i Implant) Filename() string {
	return string(i) + ".png"
}

func (i Implant) index() int {
	for n, known := range Implants {
		if known == i {
			return n
		}
	}
	return -1
}
