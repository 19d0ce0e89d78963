package camera

import (
	"strings"

	"github.com/urmzd/nipcam/pkg/device"
	"github.com/urmzd/nipcam/pkg/nipca"
)

// sensorUniqueID is stable across restarts and renames: the camera MAC
// address, the sensor key and a "sensor" suffix joined by underscores.
func sensorUniqueID(attrs nipca.Attributes, key string) string {
	mac := strings.ReplaceAll(attrs["macaddr"], ".", "_")
	return strings.Join([]string{mac, key, "sensor"}, "_")
}

// sensorName is the camera's own name followed by the sensor key.
func sensorName(attrs nipca.Attributes, key string) string {
	return strings.Join([]string{attrs["name"], key, "sensor"}, " ")
}

// sensorState reports the last event value for key. Without motion
// detection, or before the first event, the state is unknown.
func sensorState(motionEnabled bool, events map[string]string, key string) string {
	if !motionEnabled {
		return device.StateUnknown
	}
	if v, ok := events[key]; ok {
		return v
	}
	return device.StateUnknown
}

// sensorAttributes returns the events sharing the sensor key's two letter
// prefix, e.g. md1 and mdv1.
func sensorAttributes(events map[string]string, key string) map[string]string {
	prefix := key
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}

	out := make(map[string]string)
	for k, v := range events {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out
}

func buildSensors(attrs nipca.Attributes, motionEnabled bool, events map[string]string, descs []nipca.SensorDescriptor) []device.Sensor {
	sensors := make([]device.Sensor, 0, len(descs))
	for _, d := range descs {
		sensors = append(sensors, device.Sensor{
			ID:         sensorUniqueID(attrs, d.Name),
			Key:        d.Name,
			Name:       sensorName(attrs, d.Name),
			Class:      string(d.Category),
			State:      sensorState(motionEnabled, events, d.Name),
			Attributes: sensorAttributes(events, d.Name),
		})
	}
	return sensors
}
