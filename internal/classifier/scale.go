package classifier

import (
	"regexp"
	"strconv"
	"strings"
)

// imperialScalePattern matches fraction-equals-feet scale notations such as
// 1/8" = 1'-0" or 1"=40'-0".
var imperialScalePattern = regexp.MustCompile(`(\d+)(?:/(\d+))?\s*"\s*=\s*(\d+)\s*'(?:\s*-\s*(\d+)\s*")?`)

// metricScalePattern matches ratio notations such as 1:100 or 1 : 50.
var metricScalePattern = regexp.MustCompile(`\b1\s*:\s*(\d+)\b`)

// ParseScale extracts the drawing scale from page text. It returns the
// matched scale string and the drawing ratio: for imperial scales the
// ratio is (feet*12 + inches) / (numerator/denominator), so 1/8" = 1'-0"
// yields 96; for metric scales it is the raw ratio, so 1:100 yields 100.
// An unrecognized or absent scale returns ("", nil) — not an error.
func ParseScale(text string) (string, *float64) {
	if m := imperialScalePattern.FindStringSubmatch(text); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den := 1.0
		if m[2] != "" {
			den, _ = strconv.ParseFloat(m[2], 64)
		}
		feet, _ := strconv.ParseFloat(m[3], 64)
		inches := 0.0
		if m[4] != "" {
			inches, _ = strconv.ParseFloat(m[4], 64)
		}
		if num == 0 || den == 0 {
			return "", nil
		}
		ratio := (feet*12 + inches) / (num / den)
		return strings.TrimSpace(m[0]), &ratio
	}

	if m := metricScalePattern.FindStringSubmatch(text); m != nil {
		ratio, _ := strconv.ParseFloat(m[1], 64)
		if ratio == 0 {
			return "", nil
		}
		return strings.TrimSpace(m[0]), &ratio
	}

	return "", nil
}

// detectUnits infers the measurement system from the scale notation:
// foot/inch marks or an equals sign read as imperial, metric unit tokens
// or a colon as metric. An empty scale leaves units undetermined.
func detectUnits(scale string) string {
	if scale == "" {
		return ""
	}
	if strings.ContainsAny(scale, `"'`) || strings.Contains(scale, "=") {
		return "imperial"
	}
	if strings.Contains(scale, ":") || strings.Contains(scale, "mm") || strings.Contains(scale, "cm") {
		return "metric"
	}
	return ""
}
