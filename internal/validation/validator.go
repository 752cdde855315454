// Package validation checks create/update forms before they are sent to the
// backend. Results are keyed by the JSON field name the UI binds to.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalid is returned by Errors.Err when at least one field failed.
var ErrInvalid = errors.New("validation: invalid input")

// Errors maps field name to a single message. An empty map means valid.
type Errors map[string]string

// Valid reports whether no field failed.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// Clear returns a copy without field, used when the user edits that field.
func (e Errors) Clear(field string) Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		if k != field {
			out[k] = v
		}
	}
	return out
}

// First returns the message of the alphabetically first field.
func (e Errors) First() (string, string) {
	if len(e) == 0 {
		return "", ""
	}
	keys := e.fields()
	return keys[0], e[keys[0]]
}

// Err wraps the messages into a *Failure, nil when valid.
func (e Errors) Err() error {
	if e.Valid() {
		return nil
	}
	return &Failure{Fields: e}
}

// Failure carries field errors through error returns. It matches ErrInvalid.
type Failure struct {
	Fields Errors
}

func (f *Failure) Error() string {
	parts := make([]string, 0, len(f.Fields))
	for _, k := range f.Fields.fields() {
		parts = append(parts, k+": "+f.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(parts, "; "))
}

func (f *Failure) Unwrap() error { return ErrInvalid }

func (e Errors) fields() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	once     sync.Once
	validate *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.InexactFloat64()
			}
			return nil
		}, decimal.Decimal{})
		validate = v
	})
	return validate
}

// Validate runs the struct tags of form and returns the failing fields.
func Validate(form any) Errors {
	out := Errors{}
	err := engine().Struct(form)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["form"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		key := fieldKey(fe)
		if _, seen := out[key]; seen {
			continue
		}
		out[key] = message(fe)
	}
	return out
}

// fieldKey drops the root struct name from the namespace, giving keys such as
// "items[0].quantity".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func message(fe validator.FieldError) string {
	name := label(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email address"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must not exceed %s", name, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("at least %s %s required", fe.Param(), name)
		}
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", name, label(toSnake(fe.Param())))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fe.Error()
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
