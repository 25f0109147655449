package config

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// SchemaVersion is written by `config init`.
const SchemaVersion = "1.0.0"

// supportedVersions is the range of config schema versions this build reads.
const supportedVersions = ">= 1.0.0, < 2.0.0"

// ErrUnsupportedVersion is returned for config files written by an
// incompatible release.
var ErrUnsupportedVersion = errors.New("unsupported config version")

// ValidateVersion checks a config schema version against the supported range.
func ValidateVersion(version string) error {
	if version == "" {
		return fmt.Errorf("%w: version is missing", ErrUnsupportedVersion)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedVersion, version, err)
	}
	constraint, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return fmt.Errorf("parsing version constraint: %w", err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: %s (want %s)", ErrUnsupportedVersion, v, supportedVersions)
	}
	return nil
}
