package amqp

import (
	"encoding/json"
	"fmt"

	"financas/internal/events"
)

// DueRoutingKey routes due notifications. Changes are routed by
// ChangeRoutingKey so subscribers can bind on "change.transactions.*" and
// similar patterns.
const DueRoutingKey = "due"

func ChangeRoutingKey(c events.Change) string {
	return fmt.Sprintf("change.%s.%s", c.Resource, c.Kind)
}

func encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// ChangeFromJSON decodes a change message body.
func ChangeFromJSON(data []byte) (events.Change, error) {
	var c events.Change
	if err := json.Unmarshal(data, &c); err != nil {
		return events.Change{}, err
	}
	return c, nil
}

// DueFromJSON decodes a due message body.
func DueFromJSON(data []byte) (events.Due, error) {
	var d events.Due
	if err := json.Unmarshal(data, &d); err != nil {
		return events.Due{}, err
	}
	return d, nil
}
