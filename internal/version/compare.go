package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-router/pkg/errors"
)

// CheckCompatibility checks that a configuration written for requiredVersion
// can be run by a router built at routerVersion.
//
//   - an empty requiredVersion is always accepted
//   - "main" on either side skips the check
//   - major and minor must match, patch may differ
func CheckCompatibility(routerVersion, requiredVersion string) error {
	if requiredVersion == "" {
		return nil
	}

	routerVersion = strings.TrimPrefix(routerVersion, "v")
	requiredVersion = strings.TrimPrefix(requiredVersion, "v")

	if routerVersion == "main" || requiredVersion == "main" {
		return nil
	}

	routerSemver, err := semver.NewVersion(routerVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid router version '%s'", routerVersion)
	}

	requiredSemver, err := semver.NewVersion(requiredVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine_version '%s'", requiredVersion)
	}

	if routerSemver.Major() != requiredSemver.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "major version mismatch: router is %d.x.x but config requires %d.x.x",
			routerSemver.Major(), requiredSemver.Major())
	}

	if routerSemver.Minor() != requiredSemver.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "minor version mismatch: router is %d.%d.x but config requires %d.%d.x",
			routerSemver.Major(), routerSemver.Minor(),
			requiredSemver.Major(), requiredSemver.Minor())
	}

	return nil
}
