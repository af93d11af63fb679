package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Source is the environment/property lookup contract consumed by the engine.
// Implementations return the raw string value and whether the property exists.
type Source interface {
	GetProperty(name string) (string, bool)
}

// MapSource is a static, in-memory property source. Useful for tests and for
// hosts that assemble properties programmatically.
type MapSource map[string]string

// GetProperty returns the property value from the map.
func (m MapSource) GetProperty(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// EnvSource reads properties from process environment variables. Property
// names are translated to environment form: "cache.default_ttl" with prefix
// "GUARDRAIL" becomes "GUARDRAIL_CACHE_DEFAULT_TTL".
type EnvSource struct {
	prefix string
}

// NewEnvSource creates an environment-backed property source. The prefix may
// be empty for unprefixed lookups.
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{prefix: strings.TrimSuffix(prefix, "_")}
}

// LoadDotEnv loads variables from the given .env files into the process
// environment before lookups. Existing variables are never overwritten.
// A missing file is not an error when no paths are given.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); os.IsNotExist(err) {
			return nil
		}
	}
	return godotenv.Load(paths...)
}

// GetProperty translates the property name to environment form and reads it.
func (e *EnvSource) GetProperty(name string) (string, bool) {
	return os.LookupEnv(e.envName(name))
}

func (e *EnvSource) envName(name string) string {
	key := strings.NewReplacer(".", "_", "-", "_").Replace(name)
	key = strings.ToUpper(key)
	if e.prefix != "" {
		return e.prefix + "_" + key
	}
	return key
}

// Layered chains property sources with first-match-wins semantics.
type Layered []Source

// GetProperty returns the first value found across the layers.
func (l Layered) GetProperty(name string) (string, bool) {
	for _, src := range l {
		if src == nil {
			continue
		}
		if v, ok := src.GetProperty(name); ok {
			return v, true
		}
	}
	return "", false
}

// Pre-compiled patterns for ${VAR:-default} and ${VAR} expansion in
// property values.
var (
	expandWithDefault = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*):-(.*?)\}`)
	expandBraced      = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
)

// ExpandEnv expands ${VAR:-default} and ${VAR} references in a property
// value against the process environment.
func ExpandEnv(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	s = expandWithDefault.ReplaceAllStringFunc(s, func(match string) string {
		parts := expandWithDefault.FindStringSubmatch(match)
		if len(parts) == 3 {
			if val := os.Getenv(parts[1]); val != "" {
				return val
			}
			return parts[2]
		}
		return match
	})
	s = expandBraced.ReplaceAllStringFunc(s, func(match string) string {
		parts := expandBraced.FindStringSubmatch(match)
		if len(parts) == 2 {
			return os.Getenv(parts[1])
		}
		return match
	})
	return s
}

// GetInt reads a property as an integer. Returns false when the property is
// absent or not parseable.
func GetInt(src Source, name string) (int, bool) {
	raw, ok := src.GetProperty(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}

// GetBool reads a property as a boolean ("true"/"false", "1"/"0", "yes"/"no").
func GetBool(src Source, name string) (bool, bool) {
	raw, ok := src.GetProperty(name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}

// GetFloat64 reads a property as a float.
func GetFloat64(src Source, name string) (float64, bool) {
	raw, ok := src.GetProperty(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// GetDuration reads a property as a duration. Accepts Go duration syntax plus
// a "d" suffix for days ("7d", "1.5d").
func GetDuration(src Source, name string) (time.Duration, bool) {
	raw, ok := src.GetProperty(name)
	if !ok {
		return 0, false
	}
	d, err := ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return d, true
}

// ParseDuration parses a duration string, extending time.ParseDuration with a
// day suffix. Plain integers are treated as seconds.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		f, err := strconv.ParseFloat(days, 64)
		if err == nil {
			return time.Duration(f * 24 * float64(time.Hour)), nil
		}
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}
