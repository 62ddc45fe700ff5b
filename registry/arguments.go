package registry

// Arguments holds tool-call arguments after validation. Integers are int64,
// numbers are float64, absent and null optional fields are not present.
type Arguments map[string]interface{}

func (a Arguments) Has(key string) bool {
	_, ok := a[key]
	return ok
}

func (a Arguments) String(key string) (string, bool) {
	v, ok := a[key].(string)
	return v, ok
}

func (a Arguments) Int(key string) (int64, bool) {
	v, ok := a[key].(int64)
	return v, ok
}

func (a Arguments) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (a Arguments) Bool(key string) (bool, bool) {
	v, ok := a[key].(bool)
	return v, ok
}
