package model

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxtoaVersion is a MAXtoA (3ds Max to Arnold) plugin version triple.
type MaxtoaVersion struct {
	Major int
	Minor int
	Patch int
}

// ParseMaxtoaVersion parses a "major.minor.patch" version string. Exactly
// three numeric components are accepted.
func ParseMaxtoaVersion(text string) (MaxtoaVersion, error) {
	parts := strings.Split(text, ".")
	if len(parts) != 3 {
		return MaxtoaVersion{}, fmt.Errorf("Invalid MaxToA version %s", text)
	}
	numbers := make([]int, len(parts))
	for i, part := range parts {
		number, err := strconv.Atoi(part)
		if err != nil {
			return MaxtoaVersion{}, fmt.Errorf("Invalid MaxToA version %s", text)
		}
		numbers[i] = number
	}
	return MaxtoaVersion{Major: numbers[0], Minor: numbers[1], Patch: numbers[2]}, nil
}

// Less reports whether v is older than other.
func (v MaxtoaVersion) Less(other MaxtoaVersion) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

// String formats the version as "major.minor.patch".
func (v MaxtoaVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
