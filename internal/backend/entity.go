package backend

import (
	"fmt"
	"strings"
)

// The backend packs a sensor identifier and an entity name into one
// entity_id string ("<sensor>_<EntityName>"). All parsing of that raw
// string is isolated here; the rest of the codebase only sees the
// structured (sensor, entity name) pair.

// ParseEntityID extracts the entity name from a raw backend entity_id,
// validating that it belongs to the given sensor.
func ParseEntityID(sensorName, raw string) (string, error) {
	prefix := sensorName + "_"
	if !strings.HasPrefix(raw, prefix) {
		return "", fmt.Errorf("entity id %q does not belong to sensor %q", raw, sensorName)
	}
	name := raw[len(prefix):]
	if name == "" {
		return "", fmt.Errorf("entity id %q has an empty entity name", raw)
	}
	return name, nil
}

// EntityID builds the backend's composite identifier for a sensor entity.
func EntityID(sensorName, entityName string) string {
	return sensorName + "_" + entityName
}
