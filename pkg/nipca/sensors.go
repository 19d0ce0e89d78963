package nipca

import (
	"fmt"
	"strconv"
	"strings"
)

// SensorCategory is the device class a binary sensor is exposed with.
type SensorCategory string

const (
	CategoryMotion SensorCategory = "motion"
	CategorySound  SensorCategory = "sound"
	CategoryLight  SensorCategory = "light"
	CategoryNone   SensorCategory = ""
)

// SensorDescriptor names one binary sensor a camera supports.
type SensorDescriptor struct {
	Category SensorCategory `json:"category"`
	Name     string         `json:"name"`
}

// DeriveSensors lists the sensors a camera exposes given its attributes.
// The order is stable and significant.
func DeriveSensors(attrs Attributes) []SensorDescriptor {
	sensors := []SensorDescriptor{{Category: CategoryMotion, Name: "md1"}}

	flags := []struct {
		attr     string
		category SensorCategory
		name     string
	}{
		{"mic", CategorySound, "audio_detected"},
		{"pir", CategorySound, "pir"},
		{"led", CategoryLight, "led"},
		{"ir", CategoryLight, "irled"},
	}
	for _, f := range flags {
		if attrs[f.attr] == "yes" {
			sensors = append(sensors, SensorDescriptor{Category: f.category, Name: f.name})
		}
	}

	for i := 1; i <= count(attrs["inputs"]); i++ {
		sensors = append(sensors, SensorDescriptor{Category: CategoryNone, Name: fmt.Sprintf("input%d", i)})
	}
	for i := 1; i <= count(attrs["outputs"]); i++ {
		sensors = append(sensors, SensorDescriptor{Category: CategoryNone, Name: fmt.Sprintf("output%d", i)})
	}
	return sensors
}

// MaxPins caps the input and output counts a camera may report.
const MaxPins = 64

// count parses an I/O pin count. Missing or malformed values count as zero and
// larger counts are clamped to MaxPins.
func count(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return min(n, MaxPins)
}
