package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"slices"
	"sort"
	"strings"

	val "github.com/go-playground/validator/v10"

	"bistro/shared/failure"
)

var validate *val.Validate

func init() {
	validate = val.New(val.WithRequiredStructEnabled())

	// Error messages report the wire-level field names, not Go identifiers.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	err := validate.RegisterValidation("empty", func(fl val.FieldLevel) bool {
		return fl.Field().IsZero()
	})
	if err != nil {
		panic(err)
	}
}

// Validate reads from the given io.Reader into the given struct, and then performs validation
// on the struct using the validator package. If the struct is invalid according to the
// validation rules, an error is returned. Otherwise, nil is returned.
// https://github.com/go-playground/validator
func Validate[T any](r io.Reader, data *T) error {
	decoder := json.NewDecoder(r)
	err := decoder.Decode(data)

	if err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

// ValidateAllowed behaves like Validate but first rejects any request body
// keys outside the allowed set, reporting every offending key.
func ValidateAllowed[T any](r io.Reader, data *T, allowed ...string) error {
	raw := map[string]json.RawMessage{}

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&raw); err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	unknown := []string{}

	for key := range raw {
		if !slices.Contains(allowed, key) {
			unknown = append(unknown, key)
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)

		return failure.BadRequestFromString(fmt.Sprintf("unknown fields: %s", strings.Join(unknown, ", "))) //nolint:wrapcheck
	}

	body, err := json.Marshal(raw)
	if err != nil {
		return failure.BadRequest(fmt.Errorf("failed to re-encode request body: %w", err)) //nolint:wrapcheck
	}

	if err := json.Unmarshal(body, data); err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	err := validate.Struct(data)

	if err != nil {
		msg := message(err)

		return failure.BadRequestFromString(msg) //nolint:wrapcheck
	}

	return nil
}

func ValidateVar(field any, tag string) error {
	err := validate.Var(field, tag)

	if err != nil {
		msg := message(err)

		return failure.BadRequestFromString(msg) //nolint:wrapcheck
	}

	return nil
}
