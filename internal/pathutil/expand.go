package pathutil

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// Expand resolves environment variables and the "~" home shortcut, then
// cleans the result. An empty or whitespace-only input stays empty.
func Expand(path string) (string, error) {
	p := os.ExpandEnv(strings.TrimSpace(path))
	if p == "" {
		return "", nil
	}

	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := homeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}

	return filepath.Clean(p), nil
}

// homeDir tries os.UserHomeDir, the passwd database, and $HOME in that
// order, skipping any answer that is itself an unresolved "~".
func homeDir() (string, error) {
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, home)
	}
	if current, err := user.Current(); err == nil {
		candidates = append(candidates, current.HomeDir)
	}
	candidates = append(candidates, os.Getenv("HOME"))

	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || c == "~" || strings.HasPrefix(c, "~/") {
			continue
		}
		return c, nil
	}
	return "", fmt.Errorf("no usable home directory")
}
