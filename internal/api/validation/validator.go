// Package validation checks inbound payloads against declared schemas and
// normalises their string fields before business logic sees them.
//
// A schema is a Go struct type. Field constraints use go-playground/validator
// tags, string normalisation uses a `sanitize:"text"` or `sanitize:"email"`
// tag, and cross-field rules are expressed by implementing Refiner.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
	"github.com/realtyhub/marketplace-api/internal/core/service"
)

// Rules is the subset of the credential service the validator relies on.
type Rules interface {
	SanitizeInput(s string) string
	ValidateEmail(s string) bool
	ValidatePassword(s string) service.PasswordCheck
}

// Schema describes one payload type. Use For to declare one.
type Schema interface {
	Name() string
	New() any
}

type schema[T any] struct{ name string }

func (s schema[T]) Name() string { return s.name }
func (s schema[T]) New() any     { return new(T) }

// For declares a schema backed by struct type T.
func For[T any](name string) Schema {
	return schema[T]{name: name}
}

// Refiner is implemented by schemas with rules spanning several fields. Refine
// runs only once every per-field constraint holds, and returns "field: message"
// strings.
type Refiner interface {
	Refine() []string
}

// Result is the outcome of ValidateInput. Data holds a pointer to the parsed
// and normalised schema value when Success is true.
type Result struct {
	Success bool
	Data    any
	Errors  []string
}

// Validator wraps go-playground/validator with the marketplace rules and
// satisfies echo.Validator.
type Validator struct {
	v     *validator.Validate
	rules Rules
}

// New returns a Validator whose custom tags are backed by rules.
func New(rules Rules) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)

	// Overrides the built-in tag so that schemas and the credential service
	// agree on what an email address is.
	_ = v.RegisterValidation("email", func(fl validator.FieldLevel) bool {
		return rules.ValidateEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return rules.ValidatePassword(fl.Field().String()).Valid
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("selfrole", func(fl validator.FieldLevel) bool {
		r := domain.Role(fl.Field().String())
		return r.Valid() && r != domain.RoleAdmin
	})
	_ = v.RegisterValidation("tier", func(fl validator.FieldLevel) bool {
		return domain.Tier(fl.Field().String()).Valid()
	})

	return &Validator{v: v, rules: rules}
}

// ValidateInput decodes payload into a fresh value of schema, normalises its
// string fields and checks every constraint. It never panics on absent or null
// input: an empty body decodes to the zero value and the missing fields are
// reported like any other violation.
func (v *Validator) ValidateInput(s Schema, payload []byte) Result {
	target := s.New()

	var typeErrs []string
	mistyped := map[string]bool{}
	if body := bytes.TrimSpace(payload); len(body) > 0 && !bytes.Equal(body, []byte("null")) {
		var ok bool
		if typeErrs, mistyped, ok = decode(body, target); !ok {
			return Result{Errors: typeErrs}
		}
	}

	msgs := typeErrs
	for _, msg := range v.check(target) {
		if !mistyped[rootField(msg)] {
			msgs = append(msgs, msg)
		}
	}
	if len(msgs) > 0 {
		return Result{Errors: msgs}
	}
	return Result{Success: true, Data: target}
}

// decode unmarshals body into target. Type mismatches do not stop decoding:
// each mismatched top-level field is reported and left at its zero value. ok
// is false when body is not a JSON object at all.
func decode(body []byte, target any) (errs []string, mistyped map[string]bool, ok bool) {
	mistyped = map[string]bool{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return []string{"body: must be a valid JSON object"}, mistyped, false
	}

	err := json.Unmarshal(body, target)
	if err == nil {
		return nil, mistyped, true
	}
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return []string{decodeError(err)}, mistyped, false
	}

	rv := reflect.ValueOf(target).Elem()
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := jsonName(f)
		if !f.IsExported() || name == "" {
			continue
		}
		msg, found := lookup(raw, name)
		if !found {
			continue
		}
		fresh := reflect.New(f.Type)
		if err := json.Unmarshal(msg, fresh.Interface()); err != nil {
			errs = append(errs, fieldDecodeError(name, err))
			mistyped[name] = true
			rv.Field(i).Set(reflect.Zero(f.Type))
		}
	}
	if len(errs) == 0 {
		errs = []string{decodeError(err)}
	}
	return errs, mistyped, true
}

// lookup finds key the way encoding/json matches object keys to fields:
// exact first, then case-insensitively.
func lookup(raw map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	if msg, ok := raw[key]; ok {
		return msg, true
	}
	for k, msg := range raw {
		if strings.EqualFold(k, key) {
			return msg, true
		}
	}
	return nil, false
}

func rootField(msg string) string {
	path, _, _ := strings.Cut(msg, ": ")
	root, _, _ := strings.Cut(path, ".")
	return root
}

// Validate satisfies echo.Validator. Violations are returned as a
// *domain.ValidationError.
func (v *Validator) Validate(i any) error {
	if msgs := v.check(i); len(msgs) > 0 {
		return domain.NewValidationError(msgs...)
	}
	return nil
}

func (v *Validator) check(target any) []string {
	v.normalize(reflect.ValueOf(target))

	if err := v.v.Struct(target); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return []string{"body: " + err.Error()}
		}
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, v.fieldErrors(fe)...)
		}
		return msgs
	}

	if r, ok := target.(Refiner); ok {
		return r.Refine()
	}
	return nil
}

// fieldErrors converts one validator failure into "field: message" strings.
// A weak password yields one entry per violated strength rule.
func (v *Validator) fieldErrors(fe validator.FieldError) []string {
	field := fieldPath(fe)

	if fe.Tag() == "strongpassword" {
		pw, _ := fe.Value().(string)
		check := v.rules.ValidatePassword(pw)
		out := make([]string, 0, len(check.Errors))
		for _, msg := range check.Errors {
			out = append(out, field+": "+msg)
		}
		return out
	}

	return []string{field + ": " + message(fe)}
}

func message(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	// "a|b" alternatives are reported under their first rule.
	tag, _, _ := strings.Cut(fe.Tag(), "|")
	switch tag {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s%s", fe.Param(), unit)
	case "max":
		return fmt.Sprintf("must be at most %s%s", fe.Param(), unit)
	case "len":
		return fmt.Sprintf("must be exactly %s%s", fe.Param(), unit)
	case "eq":
		return "must equal " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "e164":
		return "must be a phone number in E.164 format"
	case "url", "http_url":
		return "must be a valid URL"
	case "iso4217":
		return "must be an ISO 4217 currency code"
	case "role":
		return "must be one of: " + joinValues(domain.Roles)
	case "selfrole":
		return "must be one of: " + joinValues(selfRoles())
	case "tier":
		return "must be one of: " + joinValues(domain.Tiers)
	default:
		return fmt.Sprintf("failed the %q rule", fe.Tag())
	}
}

// normalize walks a struct and rewrites fields tagged with `sanitize`.
func (v *Validator) normalize(rv reflect.Value) {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return
	}

	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		fv := rv.Field(i)
		if mode := f.Tag.Get("sanitize"); mode != "" {
			v.sanitize(fv, mode)
			continue
		}
		v.normalize(fv)
	}
}

func (v *Validator) sanitize(fv reflect.Value, mode string) {
	switch fv.Kind() {
	case reflect.Pointer:
		if !fv.IsNil() {
			v.sanitize(fv.Elem(), mode)
		}
	case reflect.String:
		if fv.CanSet() {
			fv.SetString(v.clean(fv.String(), mode))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < fv.Len(); i++ {
			v.sanitize(fv.Index(i), mode)
		}
	}
}

func (v *Validator) clean(s, mode string) string {
	switch mode {
	case "email":
		return strings.ToLower(strings.TrimSpace(s))
	case "trim":
		return strings.TrimSpace(s)
	default:
		return v.rules.SanitizeInput(s)
	}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// fieldPath drops the root struct name from the validator namespace, so
// "RegisterRequest.profile.firstName" becomes "profile.firstName".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldDecodeError(name string, err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := name
		if typeErr.Field != "" {
			field += "." + typeErr.Field
		}
		return fmt.Sprintf("%s: must be of type %s", field, typeErr.Type.Kind())
	}
	return name + ": must be valid JSON"
}

func decodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s: must be of type %s", typeErr.Field, typeErr.Type.Kind())
	}
	return "body: must be a valid JSON object"
}

func selfRoles() []domain.Role {
	out := make([]domain.Role, 0, len(domain.Roles))
	for _, r := range domain.Roles {
		if r != domain.RoleAdmin {
			out = append(out, r)
		}
	}
	return out
}

func joinValues[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
