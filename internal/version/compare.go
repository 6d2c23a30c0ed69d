package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
)

// CheckCompatibility reports whether a strategy written for required can run
// on engine. Major and minor must match; patch may differ. Either side being
// "main" or empty skips the check.
func CheckCompatibility(engine, required string) error {
	engine = strings.TrimPrefix(engine, "v")
	required = strings.TrimPrefix(required, "v")

	if engine == "main" || required == "main" || engine == "" || required == "" {
		return nil
	}

	engineVersion, err := semver.NewVersion(engine)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "invalid engine version %q", engine)
	}

	requiredVersion, err := semver.NewVersion(required)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "invalid strategy engine_version %q", required)
	}

	if engineVersion.Major() != requiredVersion.Major() || engineVersion.Minor() != requiredVersion.Minor() {
		return errors.Newf(errors.ErrCodeStrategyConfigError,
			"strategy requires engine %d.%d.x but this is %s",
			requiredVersion.Major(), requiredVersion.Minor(), engineVersion.String())
	}

	return nil
}
