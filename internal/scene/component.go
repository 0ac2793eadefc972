package scene

// Component kinds attached by generation. Backends switch on Kind to
// decide what to materialize.
const (
	KindRaster     = "raster"     // server-rendered substitute image
	KindImage      = "image"      // image fill
	KindBackground = "background" // solid fill color
	KindText       = "text"       // text content
)

// Component is a typed property bag attached to a generated node. Field
// values are JSON-compatible scalars; merge copies them field by field,
// filling defaults from backups without overwriting generated values.
type Component struct {
	Kind   string         `json:"kind"`
	Fields map[string]any `json:"fields,omitempty"`
}

// NewComponent creates a component of the given kind.
func NewComponent(kind string) *Component {
	return &Component{Kind: kind, Fields: make(map[string]any)}
}

// Clone deep-copies the component. Nested maps and slices of scalars are
// copied; other values are copied by assignment.
func (c *Component) Clone() *Component {
	out := &Component{Kind: c.Kind, Fields: make(map[string]any, len(c.Fields))}
	for k, v := range c.Fields {
		out.Fields[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// Set stores a field value.
func (c *Component) Set(key string, v any) {
	if c.Fields == nil {
		c.Fields = make(map[string]any)
	}
	c.Fields[key] = v
}

// String returns a string field, or "" when absent or mistyped.
func (c *Component) String(key string) string {
	if s, ok := c.Fields[key].(string); ok {
		return s
	}
	return ""
}

// Float returns a numeric field, or 0 when absent or mistyped. JSON
// round-trips land numbers as float64.
func (c *Component) Float(key string) float64 {
	switch t := c.Fields[key].(type) {
	case float64:
		return t
	case int:
		return float64(t)
	}
	return 0
}

// Bool returns a boolean field, or false when absent or mistyped.
func (c *Component) Bool(key string) bool {
	if b, ok := c.Fields[key].(bool); ok {
		return b
	}
	return false
}

// IsZeroValue reports whether a field value is a default: nil, empty
// string, zero number, false, or an empty map/slice.
func IsZeroValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case int:
		return t == 0
	case bool:
		return !t
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}
