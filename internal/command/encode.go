// Package command builds the valve codes sent to the actuation endpoint.
package command

import (
	"errors"
	"fmt"
	"strconv"

	"crossline/internal/zone"
)

// Bank markers prefixed to every code, one per actuator bank.
const (
	LeftMarker  = 3
	RightMarker = 2
)

var (
	ErrNoSide          = errors.New("no side for command")
	ErrNegativeClassID = errors.New("class id must not be negative")
)

// Code is the numeric valve id understood by the actuator.
type Code int

func (c Code) String() string {
	return strconv.Itoa(int(c))
}

// Marker returns the bank marker for a side.
func Marker(side zone.Side) (int, error) {
	switch side {
	case zone.SideLeft:
		return LeftMarker, nil
	case zone.SideRight:
		return RightMarker, nil
	default:
		return 0, ErrNoSide
	}
}

// Encode concatenates the bank marker and classID+1 as decimal digits, so
// class 9 on the right is 2|10 = 210, not 2*10+10.
func Encode(side zone.Side, classID int) (Code, error) {
	marker, err := Marker(side)
	if err != nil {
		return 0, err
	}
	if classID < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeClassID, classID)
	}

	code, err := strconv.Atoi(strconv.Itoa(marker) + strconv.Itoa(classID+1))
	if err != nil {
		return 0, fmt.Errorf("failed to build command for class %d: %w", classID, err)
	}
	return Code(code), nil
}
