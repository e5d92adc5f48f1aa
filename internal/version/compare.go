package version

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// devVersion marks a development build. Configs always run on it.
const devVersion = "main"

// CheckConfigVersion reports whether engineVersion may run a config pinned to required.
//
// required is either a plain version or a semver constraint:
//   - "" -> OK (config is not pinned)
//   - "1.2.0" against engine 1.2.7 -> OK (same major and minor)
//   - "1.2.0" against engine 1.3.0 -> ERROR (minor differs)
//   - "1.2.0" against engine 2.0.0 -> ERROR (major differs)
//   - ">=1.1, <2" against engine 1.4.0 -> OK
//   - "~1.4" against engine 1.5.0 -> ERROR
//
// A "main" engine build skips the check.
func CheckConfigVersion(engineVersion, required string) error {
	required = strings.TrimSpace(required)
	if required == "" || engineVersion == devVersion {
		return nil
	}

	engine, err := semver.NewVersion(strings.TrimPrefix(engineVersion, "v"))
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	if pinned, err := semver.NewVersion(strings.TrimPrefix(required, "v")); err == nil {
		return checkPinned(engine, pinned)
	}

	constraint, err := semver.NewConstraint(required)
	if err != nil {
		return fmt.Errorf("invalid engine_version '%s': %w", required, err)
	}

	if ok, reasons := constraint.Validate(engine); !ok {
		return fmt.Errorf("engine %s does not satisfy %q: %w", engine, required, errors.Join(reasons...))
	}

	return nil
}

// checkPinned accepts any engine patch release of the pinned major.minor line.
func checkPinned(engine, pinned *semver.Version) error {
	if engine.Major() != pinned.Major() {
		return fmt.Errorf("major version mismatch: engine is %d.x.x but config was written for %d.x.x",
			engine.Major(), pinned.Major())
	}

	if engine.Minor() != pinned.Minor() {
		return fmt.Errorf("minor version mismatch: engine is %d.%d.x but config was written for %d.%d.x",
			engine.Major(), engine.Minor(), pinned.Major(), pinned.Minor())
	}

	return nil
}
