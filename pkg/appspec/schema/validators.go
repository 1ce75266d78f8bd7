package schema

import (
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"

	specErrors "kae-hq/kae/pkg/appspec/errors"
)

var (
	// appNamePattern: lowercase start, then lowercase alphanumerics and hyphens
	appNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

	// tagPattern allows letters of any case, digits, '-', '_' and '.'
	tagPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

	// dockerVolumePattern is two absolute paths joined by a single ':'
	dockerVolumePattern = regexp.MustCompile(`^/[^:]*:/[^:]*$`)

	percentagePattern = regexp.MustCompile(`^\d+%$`)

	envPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*=.*$`)
)

// ValidateAppName checks that s is a valid application name.
func ValidateAppName(s string) error {
	if !appNamePattern.MatchString(s) {
		return specErrors.New(specErrors.ErrorTypeFormat,
			"%q is not a valid app name (lowercase letters, digits and '-', starting with a letter)", s)
	}
	return nil
}

// ValidateTag checks that s only uses letters, digits, '-', '_' and '.'.
func ValidateTag(s string) error {
	if !tagPattern.MatchString(s) {
		return specErrors.New(specErrors.ErrorTypeFormat,
			"%q may only contain letters, digits, '-', '_' and '.'", s)
	}
	return nil
}

// ValidateDockerVolumes checks that every entry has the form /host/path:/container/path.
func ValidateDockerVolumes(volumes []string) error {
	for _, v := range volumes {
		if !dockerVolumePattern.MatchString(v) {
			return specErrors.New(specErrors.ErrorTypeFormat,
				"volume %q must be two absolute paths joined by ':' (/host/path:/container/path)", v)
		}
	}
	return nil
}

// ValidatePercentage checks that s is a non-negative integer followed by '%'.
func ValidatePercentage(s string) error {
	if !percentagePattern.MatchString(s) {
		return specErrors.New(specErrors.ErrorTypeFormat,
			"%q is not a percentage (expected a non-negative integer followed by '%%', e.g. 25%%)", s)
	}
	return nil
}

// ValidateAbsolutePath checks that s starts with '/'.
func ValidateAbsolutePath(s string) error {
	if !strings.HasPrefix(s, "/") {
		return specErrors.New(specErrors.ErrorTypeFormat, "%q is not an absolute path", s)
	}
	return nil
}

// ValidateEnv checks that s has the form KEY=VALUE.
func ValidateEnv(s string) error {
	if !envPattern.MatchString(s) {
		return specErrors.New(specErrors.ErrorTypeFormat, "%q must have the form KEY=VALUE", s)
	}
	return nil
}

// ValidatePort checks that n is a valid TCP port.
func ValidatePort(n int) error {
	if msgs := validation.IsValidPortNum(n); len(msgs) > 0 {
		return specErrors.New(specErrors.ErrorTypeRange, "%d: %s", n, strings.Join(msgs, "; "))
	}
	return nil
}

// ValidatePortName checks that s is a valid IANA service name.
func ValidatePortName(s string) error {
	if msgs := validation.IsValidPortName(s); len(msgs) > 0 {
		return specErrors.New(specErrors.ErrorTypeFormat, "%q: %s", s, strings.Join(msgs, "; "))
	}
	return nil
}

// ValidateLabel checks that s has the form key=value with a qualified key
// and a valid label value.
func ValidateLabel(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return specErrors.New(specErrors.ErrorTypeFormat, "label %q must have the form key=value", s)
	}
	if msgs := validation.IsQualifiedName(key); len(msgs) > 0 {
		return specErrors.New(specErrors.ErrorTypeFormat, "label key %q: %s", key, strings.Join(msgs, "; "))
	}
	if msgs := validation.IsValidLabelValue(value); len(msgs) > 0 {
		return specErrors.New(specErrors.ErrorTypeFormat, "label value %q: %s", value, strings.Join(msgs, "; "))
	}
	return nil
}

// ValidateHost checks that s is a DNS-1123 subdomain.
func ValidateHost(s string) error {
	if msgs := validation.IsDNS1123Subdomain(s); len(msgs) > 0 {
		return specErrors.New(specErrors.ErrorTypeFormat, "host %q: %s", s, strings.Join(msgs, "; "))
	}
	return nil
}
