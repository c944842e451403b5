package tools

import "maps"

// Helpers for assembling JSON Schema tool inputs.

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

// ObjectSchema builds an object schema over the given properties. Names
// listed in required become the schema's required array.
func ObjectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// StringProperty builds a described string property.
func StringProperty(description string) map[string]interface{} {
	return prop("string", description)
}

// StringEnumProperty builds a string property restricted to the given values.
func StringEnumProperty(description string, values ...string) map[string]interface{} {
	p := prop("string", description)
	p["enum"] = values
	return p
}

// NumberProperty builds a described number property.
func NumberProperty(description string) map[string]interface{} {
	return prop("number", description)
}

// IntegerProperty builds a described integer property.
func IntegerProperty(description string) map[string]interface{} {
	return prop("integer", description)
}

// BooleanProperty builds a described boolean property.
func BooleanProperty(description string) map[string]interface{} {
	return prop("boolean", description)
}

const thoughtDescription = "Your reasoning about why you're using this tool and what you expect to accomplish. " +
	"For transaction writes, explain why the transaction should be recorded or removed."

// WithThought returns a copy of schema extended with a thought property.
// When requireThought is true the property is also marked required.
func WithThought(schema map[string]interface{}, requireThought bool) map[string]interface{} {
	out := maps.Clone(schema)

	props, ok := out["properties"].(map[string]interface{})
	if !ok {
		props = make(map[string]interface{})
	} else {
		props = maps.Clone(props)
	}
	props["thought"] = StringProperty(thoughtDescription)
	out["properties"] = props

	if requireThought {
		required, _ := out["required"].([]string)
		out["required"] = append(append([]string(nil), required...), "thought")
	}
	return out
}

// BuildSchemaWithThought is ObjectSchema followed by WithThought.
func BuildSchemaWithThought(properties map[string]interface{}, requireThought bool, required ...string) map[string]interface{} {
	return WithThought(ObjectSchema(properties, required...), requireThought)
}
