package envfile

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/core-tools/hsu-service-go/pkg/errors"

	"github.com/joho/godotenv"
)

// DefaultFileName is merged into every unit's environment before the unit's own file
const DefaultFileName = "default"

// Parse reads dotenv-formatted variables from path
func Parse(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError("failed to open env file", err).WithContext("path", path)
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return nil, errors.NewValidationError("failed to parse env file", err).WithContext("path", path)
	}
	return values, nil
}

// LoadUnitEnv merges <envDir>/default and <envDir>/<unitName>; later keys win.
// Files that do not exist are skipped.
func LoadUnitEnv(envDir, unitName string) (map[string]string, error) {
	merged := make(map[string]string)

	for _, name := range []string{DefaultFileName, unitName} {
		path := filepath.Join(envDir, name)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.NewIOError("failed to stat env file", err).WithContext("path", path)
		}

		values, err := Parse(path)
		if err != nil {
			return nil, err
		}
		for k, v := range values {
			merged[k] = v
		}
	}

	return merged, nil
}

// Environ renders a variable map as sorted KEY=VALUE entries
func Environ(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+values[k])
	}
	return env
}
