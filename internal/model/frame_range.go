package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrInvalidFrameRange is returned when frame range text doesn't match
// "start" or "start-end". The message is shown to the artist as-is.
var ErrInvalidFrameRange = errors.New("Invalid frame range")

var frameRangePattern = regexp.MustCompile(`^(\d+)(?:-(\d+))?$`)

// FrameRange is an inclusive start-end frame interval walked with a step.
type FrameRange struct {
	Start int
	End   int
	Step  int
}

// ParseFrameRange parses "start" or "start-end" text with the given step.
// A single number is a one-frame range.
func ParseFrameRange(text string, step int) (FrameRange, error) {
	match := frameRangePattern.FindStringSubmatch(text)
	if match == nil {
		return FrameRange{}, ErrInvalidFrameRange
	}
	start, err := strconv.Atoi(match[1])
	if err != nil {
		return FrameRange{}, ErrInvalidFrameRange
	}
	end := start
	if match[2] != "" {
		end, err = strconv.Atoi(match[2])
		if err != nil {
			return FrameRange{}, ErrInvalidFrameRange
		}
	}
	return FrameRange{Start: start, End: end, Step: step}, nil
}

// StringWithoutStep formats the range as "start-end".
func (r FrameRange) StringWithoutStep() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// String formats the range as "start-endxstep".
func (r FrameRange) String() string {
	return fmt.Sprintf("%sx%d", r.StringWithoutStep(), r.Step)
}
