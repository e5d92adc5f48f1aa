package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

// GetSchemaFromConfig returns the JSON schema of config with every type inlined.
func GetSchemaFromConfig(config any) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true

	jsonSchemaBytes, err := json.Marshal(r.Reflect(config))
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}

	return string(jsonSchemaBytes), nil
}

// GetKeychainFields returns the json names of the struct fields tagged keychain:"true",
// descending into embedded structs. Non-struct values have none.
func GetKeychainFields(config any) []string {
	t := reflect.TypeOf(config)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return []string{}
	}

	return keychainFields(t)
}

func keychainFields(t reflect.Type) []string {
	fields := []string{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			fields = append(fields, keychainFields(field.Type)...)

			continue
		}

		if field.Tag.Get("keychain") != "true" {
			continue
		}

		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" {
			name = field.Name
		}

		fields = append(fields, name)
	}

	return fields
}
