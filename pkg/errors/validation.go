package errors

import (
	"net/url"
	"slices"
	"strings"
)

// maxPackageNameLength is the longest package name the registry accepts.
const maxPackageNameLength = 214

// reservedNames can never be published or fetched as packages.
var reservedNames = []string{"node_modules", "favicon.ico"}

// coreModules are Node.js builtin module names. Packages with these names
// exist in the registry from before the restriction, so they are legacy-only.
var coreModules = []string{
	"assert", "async_hooks", "buffer", "child_process", "cluster", "console",
	"constants", "crypto", "dgram", "diagnostics_channel", "dns", "domain",
	"events", "fs", "http", "http2", "https", "inspector", "module", "net",
	"os", "path", "perf_hooks", "process", "punycode", "querystring",
	"readline", "repl", "stream", "string_decoder", "sys", "timers", "tls",
	"trace_events", "tty", "url", "util", "v8", "vm", "wasi", "worker_threads",
	"zlib",
}

// ValidateNpmPackageName validates name against the registry's package-name
// grammar. Names that only old packages may use (uppercase letters, the
// characters ~'!()*, core module names) are accepted, since the registry still
// serves them. Use [ValidateStrictNpmPackageName] to reject those as well.
//
// Validation rules:
//   - Not empty and at most 214 characters
//   - No leading period or underscore
//   - No leading or trailing whitespace
//   - Not a reserved name (node_modules, favicon.ico)
//   - Only URL-safe characters, with an optional @scope/ prefix
func ValidateNpmPackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "package name cannot be empty")
	}
	if len(name) > maxPackageNameLength {
		return New(ErrCodeInvalidName, "package name too long (max %d characters): %q", maxPackageNameLength, name)
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidName, "package name cannot start with a period: %q", name)
	}
	if strings.HasPrefix(name, "_") {
		return New(ErrCodeInvalidName, "package name cannot start with an underscore: %q", name)
	}
	if strings.TrimSpace(name) != name {
		return New(ErrCodeInvalidName, "package name cannot contain leading or trailing spaces: %q", name)
	}
	if slices.Contains(reservedNames, strings.ToLower(name)) {
		return New(ErrCodeInvalidName, "package name is reserved: %q", name)
	}

	scope, pkg, scoped := SplitScope(name)
	if scoped {
		if scope == "" || pkg == "" || strings.Contains(pkg, "/") {
			return New(ErrCodeInvalidName, "invalid scoped package name: %q", name)
		}
		if !urlSafe(scope) || !urlSafe(pkg) {
			return New(ErrCodeInvalidName, "package name can only contain URL-friendly characters: %q", name)
		}
		if strings.HasPrefix(pkg, ".") || strings.HasPrefix(pkg, "_") {
			return New(ErrCodeInvalidName, "package name cannot start with a period or underscore: %q", name)
		}
		return nil
	}
	if !urlSafe(name) {
		return New(ErrCodeInvalidName, "package name can only contain URL-friendly characters: %q", name)
	}
	return nil
}

// ValidateStrictNpmPackageName validates name like [ValidateNpmPackageName]
// and additionally rejects names that new packages can no longer use.
func ValidateStrictNpmPackageName(name string) error {
	if err := ValidateNpmPackageName(name); err != nil {
		return err
	}
	if strings.ToLower(name) != name {
		return New(ErrCodeInvalidName, "new package names must be lowercase: %q", name)
	}
	_, pkg, _ := SplitScope(name)
	if strings.ContainsAny(pkg, "~'!()*") {
		return New(ErrCodeInvalidName, "new package names cannot contain special characters (\"~'!()*\"): %q", name)
	}
	if slices.Contains(coreModules, name) {
		return New(ErrCodeInvalidName, "package name is a core module name: %q", name)
	}
	return nil
}

// SplitScope splits "@scope/name" into its parts. For unscoped names it
// returns ("", name, false).
func SplitScope(name string) (scope, pkg string, scoped bool) {
	if !strings.HasPrefix(name, "@") {
		return "", name, false
	}
	scope, pkg, _ = strings.Cut(name[1:], "/")
	return scope, pkg, true
}

// urlSafe reports whether s survives percent-encoding unchanged, i.e. it only
// contains ASCII letters, digits and -_.!~*'().
func urlSafe(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_.!~*'()", r):
		default:
			return false
		}
	}
	return true
}

// ValidateURL validates a base URL for safety.
// It ensures the URL parses and has an http or https scheme and a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidURL, "URL must use http or https scheme: %q", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidURL, "URL must have a host: %q", rawURL)
	}
	return nil
}
