package socketio_utils

// Payload extracts the first event argument as an object. Every inbound
// intent of the wire protocol carries a single JSON object payload.
func Payload(args []interface{}) (map[string]interface{}, bool) {
	if len(args) < 1 {
		return nil, false
	}
	m, ok := args[0].(map[string]interface{})
	return m, ok
}

// StringField reads an optional string field, returning "" when absent or
// of the wrong type. Handlers validate requiredness themselves.
func StringField(payload map[string]interface{}, key string) string {
	v, _ := payload[key].(string)
	return v
}

// ObjectField reads a nested object field (e.g. moveData).
func ObjectField(payload map[string]interface{}, key string) map[string]interface{} {
	v, _ := payload[key].(map[string]interface{})
	return v
}
