package api

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed profile_patch.schema.json
var profilePatchSchemaBytes []byte

var (
	profilePatchSchema     *gojsonschema.Schema
	profilePatchSchemaOnce sync.Once
	profilePatchSchemaErr  error
)

// ErrInvalidPatch wraps every profile patch validation failure.
var ErrInvalidPatch = errors.New("invalid profile patch")

func loadProfilePatchSchema() (*gojsonschema.Schema, error) {
	profilePatchSchemaOnce.Do(func() {
		loader := gojsonschema.NewBytesLoader(profilePatchSchemaBytes)
		profilePatchSchema, profilePatchSchemaErr = gojsonschema.NewSchema(loader)
		if profilePatchSchemaErr != nil {
			profilePatchSchemaErr = fmt.Errorf("compile profile patch schema: %w", profilePatchSchemaErr)
		}
	})
	return profilePatchSchema, profilePatchSchemaErr
}

// ValidateProfilePatch checks a patch against the embedded JSON schema.
func ValidateProfilePatch(patch ProfilePatch) error {
	return validateProfileDocument(gojsonschema.NewGoLoader(patch))
}

// ValidateProfilePatchJSON checks a raw request body against the embedded
// JSON schema. Unknown fields are rejected.
func ValidateProfilePatchJSON(body []byte) error {
	return validateProfileDocument(gojsonschema.NewBytesLoader(body))
}

func validateProfileDocument(doc gojsonschema.JSONLoader) error {
	schema, err := loadProfilePatchSchema()
	if err != nil {
		return err
	}
	result, err := schema.Validate(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "(root)" || field == "" {
			field = desc.Context().String()
		}
		problems = append(problems, fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidPatch, strings.Join(problems, "; "))
}
