package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Pagination *PageMeta   `json:"pagination"`
}

// Fields is a JSON object that keeps the insertion order of its keys.
type Fields = orderedmap.OrderedMap[string, any]

// NewFields returns an empty ordered object.
func NewFields() *Fields {
	return orderedmap.New[string, any]()
}

// nonFieldKeys are consulted, in this order, before falling back to the first key.
var nonFieldKeys = []string{"non_field_errors", "detail", "details"}

const successMessage = "Success"

// NewResponse wraps data into an Envelope. Without an explicit message a
// status below 400 reads "Success"; otherwise the message is derived from
// data and data is reset to an empty object.
func NewResponse(data interface{}, status int, message string, pagination *PageMeta) Envelope {
	switch {
	case message != "":
	case status < http.StatusBadRequest:
		message = successMessage
	default:
		message = deriveMessage(data)
		if message == "" {
			message = http.StatusText(status)
		}
		data = nil
	}

	if data == nil {
		data = struct{}{}
	}
	return Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Pagination: pagination,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

func deriveMessage(data interface{}) string {
	if isNil(data) {
		return ""
	}
	if m, ok := asFields(data); ok {
		return mappingMessage(m)
	}
	if s, ok := data.(string); ok {
		return s
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Len() == 0 {
			return ""
		}
		first := rv.Index(0).Interface()
		if m, ok := asFields(first); ok {
			return mappingMessage(m)
		}
		return stringify(first)
	}
	return stringify(data)
}

func mappingMessage(m *Fields) string {
	for _, key := range nonFieldKeys {
		if v, ok := m.Get(key); ok {
			return valueMessage(v)
		}
	}
	if first := m.Oldest(); first != nil {
		return valueMessage(first.Value)
	}
	return ""
}

// valueMessage reads one entry of an error mapping: the first element of a
// sequence, otherwise the value itself. Nested mappings are not searched.
func valueMessage(v interface{}) string {
	if isNil(v) {
		return ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Len() == 0 {
			return ""
		}
		return stringify(rv.Index(0).Interface())
	}
	return stringify(v)
}

// stringify returns strings unchanged and renders everything else as JSON.
func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if isNil(v) {
		return ""
	}
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(out)
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

type fielder interface {
	Fields() *Fields
}

// asFields views v as an ordered mapping. Plain Go maps with string keys are
// accepted and ordered by key since they carry no insertion order.
func asFields(v interface{}) (*Fields, bool) {
	switch m := v.(type) {
	case *Fields:
		return m, m != nil
	case fielder:
		return m.Fields(), true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)

	out := NewFields()
	for _, k := range keys {
		out.Set(k, rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
	}
	return out, true
}
