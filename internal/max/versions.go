package max

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	maxVersionPattern    = regexp.MustCompile(`^(\d+),(\d+),.*`)
	arnoldVersionPattern = regexp.MustCompile(`^(\d+,\d+,\d+),.*`)
)

// Major file versions mapped to 3ds Max product years.
var maxVersionYears = map[string]string{
	"19": "2017",
	"20": "2018",
	"21": "2019",
}

// PrettyMaxVersion turns the raw "major,minor,..." version the host
// reports into the product version, e.g. "20,4,0,0" into "2018.4".
func PrettyMaxVersion(raw string) (string, error) {
	match := maxVersionPattern.FindStringSubmatch(raw)
	if match == nil {
		return "", errors.New("Unable to retrieve Max version")
	}
	year, ok := maxVersionYears[match[1]]
	if !ok {
		return "", errors.New("Unsupported Max version")
	}
	return year + "." + match[2], nil
}

// ParseArnoldVersion extracts the dotted MAXtoA version from the raw
// "major,minor,patch,build" string of the Arnold plugin DLL.
func ParseArnoldVersion(raw string) (string, error) {
	match := arnoldVersionPattern.FindStringSubmatch(raw)
	if match == nil {
		return "", fmt.Errorf("Can't parse Arnold version string %s", raw)
	}
	return strings.ReplaceAll(match[1], ",", "."), nil
}

// TrimVrayVersion keeps the first three dot components of a raw V-Ray
// version string.
func TrimVrayVersion(raw string) string {
	parts := strings.Split(raw, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, ".")
}

func isVrayRTRendererName(rendererName string) bool {
	name := strings.ToLower(rendererName)
	return strings.Contains(name, "v-ray") && strings.Contains(name, "rt")
}
