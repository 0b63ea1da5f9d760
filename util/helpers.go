// Package util provides small helpers shared by the dashboard server and the CLI.
package util

import (
	"os"
	"strings"

	"github.com/ortelius/sbom-finder-dashboard/model"
	"github.com/package-url/packageurl-go"
)

// GetEnvDefault is a convenience function for handling env vars
func GetEnvDefault(key, defVal string) string {
	val, ex := os.LookupEnv(key) // get the env var
	if !ex {                     // not found return default
		return defVal
	}
	return val // return value for env var
}

// IsEmpty checks if a string is empty or contains only whitespace
func IsEmpty(s string) bool {
	return len(strings.TrimSpace(s)) == 0
}

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// GetStringOrDefault returns value or default if empty
func GetStringOrDefault(value, defaultValue string) string {
	if IsEmpty(value) {
		return defaultValue
	}
	return value
}

// LastPathSegment returns the text after the final "/" of a locator,
// or the locator itself when it has no usable segment
func LastPathSegment(locator string) string {
	trimmed := strings.TrimRight(locator, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 && i < len(trimmed)-1 {
		return trimmed[i+1:]
	}
	return locator
}

// ParsePURL parses a PURL string and returns the parsed PackageURL
func ParsePURL(purlStr string) (*packageurl.PackageURL, error) {
	parsed, err := packageurl.FromString(purlStr)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// GetBasePURL removes the version component from a PURL to create a base package identifier
// Example: pkg:npm/lodash@4.17.20 -> pkg:npm/lodash
func GetBasePURL(purlStr string) (string, error) {
	parsed, err := packageurl.FromString(purlStr)
	if err != nil {
		return "", err
	}

	base := packageurl.PackageURL{
		Type:      parsed.Type,
		Namespace: parsed.Namespace,
		Name:      parsed.Name,
	}

	return strings.ToLower(base.ToString()), nil
}

// PackagePURL derives the package identity used to match packages between devices.
// Names that already are package URLs keep their type and namespace; plain names
// become pkg:generic entries.
func PackagePURL(name, version string) model.PURL {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "pkg:") {
		if parsed, err := ParsePURL(name); err == nil {
			base, _ := GetBasePURL(name)
			v := parsed.Version
			if v == "" {
				v = version
			}
			return model.PURL{Base: base, Version: v}
		}
	}

	base := packageurl.NewPackageURL(packageurl.TypeGeneric, "", strings.ToLower(name), "", nil, "")
	return model.PURL{Base: base.ToString(), Version: strings.TrimSpace(version)}
}
