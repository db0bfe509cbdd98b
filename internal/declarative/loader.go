// Package declarative loads YAML fixture documents describing profiles,
// teams, groups, entities and grants, validates them, and applies them to a
// store idempotently.
package declarative

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadOptions configures YAML loading behavior.
type LoadOptions struct {
	AllowUnknownFields bool
}

// LoadDirectory reads the fixture files in dir and returns the desired state.
// Every file is optional: profiles.yaml, teams.yaml, groups.yaml,
// entities.yaml and grants.yaml.
func LoadDirectory(dir string) (*DesiredState, error) {
	return LoadDirectoryWithOptions(dir, LoadOptions{})
}

// LoadDirectoryWithOptions reads the fixture files in dir using
// caller-provided loading options.
func LoadDirectoryWithOptions(dir string, opts LoadOptions) (*DesiredState, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("fixture directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fixture directory: %s is not a directory", dir)
	}

	state := &DesiredState{}

	var profileDoc ProfileListDoc
	if err := loadDocument(dir, "profiles.yaml", KindNameProfileList, &profileDoc, &profileDoc.APIVersion, &profileDoc.Kind, opts); err != nil {
		return nil, err
	}
	state.Profiles = profileDoc.Profiles

	var teamDoc TeamListDoc
	if err := loadDocument(dir, "teams.yaml", KindNameTeamList, &teamDoc, &teamDoc.APIVersion, &teamDoc.Kind, opts); err != nil {
		return nil, err
	}
	state.Teams = teamDoc.Teams

	var groupDoc GroupListDoc
	if err := loadDocument(dir, "groups.yaml", KindNameGroupList, &groupDoc, &groupDoc.APIVersion, &groupDoc.Kind, opts); err != nil {
		return nil, err
	}
	state.Groups = groupDoc.Groups

	var entityDoc EntityListDoc
	if err := loadDocument(dir, "entities.yaml", KindNameEntityList, &entityDoc, &entityDoc.APIVersion, &entityDoc.Kind, opts); err != nil {
		return nil, err
	}
	state.Entities = entityDoc.Entities

	var grantDoc GrantListDoc
	if err := loadDocument(dir, "grants.yaml", KindNameGrantList, &grantDoc, &grantDoc.APIVersion, &grantDoc.Kind, opts); err != nil {
		return nil, err
	}
	state.Grants = grantDoc.Grants

	return state, nil
}

// loadDocument loads one optional file and checks its envelope. apiVersion
// and kind point into target.
func loadDocument(dir, name, expectedKind string, target interface{}, apiVersion, kind *string, opts LoadOptions) error {
	path := filepath.Join(dir, name)
	found, err := loadYAMLFile(path, target, opts)
	if err != nil || !found {
		return err
	}
	return validateDocument(path, *apiVersion, *kind, expectedKind)
}

// loadYAMLFile reads and unmarshals a YAML file into the given target.
// Returns (false, nil) if file doesn't exist (optional files).
// Returns (false, err) on read/parse errors.
// Returns (true, nil) on success.
func loadYAMLFile(path string, target interface{}, opts LoadOptions) (bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // intentional: reading user-specified fixture files
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if opts.AllowUnknownFields {
		if err := yaml.Unmarshal(data, target); err != nil {
			return false, fmt.Errorf("parse %s: %w", path, err)
		}
		return true, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// validateDocument checks the apiVersion and kind fields.
func validateDocument(path string, apiVersion, kind, expectedKind string) error {
	if apiVersion != SupportedAPIVersion {
		return fmt.Errorf("%s: unsupported apiVersion %q (expected %q)", path, apiVersion, SupportedAPIVersion)
	}
	if kind != expectedKind {
		return fmt.Errorf("%s: unexpected kind %q (expected %q)", path, kind, expectedKind)
	}
	return nil
}
