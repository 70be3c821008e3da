package api

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

type (
	// FieldError describes a single offending field of a request
	FieldError struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}

	// ValidationError is returned when a request body does not conform to
	// its schema. It lists every offending field
	ValidationError struct {
		Schema string       `json:"schema"`
		Fields []FieldError `json:"fields"`
	}

	fieldErrors []FieldError
)

const (
	msgExtraField = "extra fields not permitted"
	msgNotObject  = "expected a JSON object"

	tagInputType  = "input_type"
	tagOutputType = "output_type"
)

var (
	ErrValidation = errors.New("request validation failed")
	ErrNotObject  = errors.New(msgNotObject)
)

var validate = newValidator()

// Error implements error
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s: %s: %s",
		ErrValidation, e.Schema, strings.Join(parts, "; "))
}

// Unwrap allows errors.Is(err, ErrValidation)
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Prefixed returns the error's fields qualified by the given path
func (e *ValidationError) Prefixed(path string) []FieldError {
	res := make([]FieldError, len(e.Fields))
	for i, f := range e.Fields {
		res[i] = FieldError{Field: path + "." + f.Field, Message: f.Message}
	}
	return res
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation(tagInputType, func(fl validator.FieldLevel) bool {
		return InputType(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation(tagOutputType, func(fl validator.FieldLevel) bool {
		return OutputType(fl.Field().String()).IsValid()
	})
	return v
}

func (e *fieldErrors) add(field, msg string) {
	*e = append(*e, FieldError{Field: field, Message: msg})
}

// rejectUnknown reports every key of data that is not a declared field
func (e *fieldErrors) rejectUnknown(data map[string]any, declared []string) {
	for _, k := range slices.Sorted(maps.Keys(data)) {
		if !slices.Contains(declared, k) {
			e.add(k, msgExtraField)
		}
	}
}

// check runs the struct's validate tags and records each failure against
// the JSON name of the failing field
func (e *fieldErrors) check(v any) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		e.add("", err.Error())
		return
	}
	for _, fe := range ve {
		e.add(fe.Field(), tagMessage(fe))
	}
}

func (e fieldErrors) err(schema string) error {
	if len(e) == 0 {
		return nil
	}
	return &ValidationError{Schema: schema, Fields: e}
}

// decodeField decodes data[name] into dst. A missing key or an explicit null
// leaves the default in place. Values are never weakly coerced, so a number
// is not accepted where a string is declared
func decodeField[T any](
	e *fieldErrors, data map[string]any, name string, dst *T,
) {
	raw, ok := data[name]
	if !ok || raw == nil {
		return
	}
	if hasNullElement(e, name, raw, reflect.TypeFor[T]()) {
		return
	}
	var val T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &val,
		TagName: "json",
	})
	if err == nil {
		err = dec.Decode(raw)
	}
	if err != nil {
		e.add(name, "expected "+typeLabel(reflect.TypeFor[T]()))
		return
	}
	*dst = val
}

// hasNullElement reports each null entry of a list whose declared element
// type cannot hold one
func hasNullElement(
	e *fieldErrors, name string, raw any, t reflect.Type,
) bool {
	list, ok := raw.([]any)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if !ok || t.Kind() != reflect.Slice ||
		t.Elem().Kind() == reflect.Interface {
		return false
	}
	found := false
	for i, el := range list {
		if el == nil {
			e.add(fmt.Sprintf("%s[%d]", name, i),
				"expected "+typeLabel(t.Elem()))
			found = true
		}
	}
	return found
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case tagInputType:
		return oneOfMessage(enumStrings(InputTypes), fe.Value())
	case tagOutputType:
		return oneOfMessage(enumStrings(OutputTypes), fe.Value())
	case "required":
		return "field required"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func oneOfMessage(opts []string, got any) string {
	return fmt.Sprintf("must be one of %s, got %q",
		strings.Join(opts, ", "), fmt.Sprint(got))
}

func typeLabel(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Slice:
		return "array of " + typeLabel(t.Elem())
	case reflect.Map:
		return "object"
	case reflect.Bool:
		return "boolean"
	case reflect.Interface:
		return "value"
	default:
		return t.Kind().String()
	}
}

func notObjectError(schema string) error {
	return fmt.Errorf("%w: %s: %w", ErrValidation, schema, ErrNotObject)
}
