// Package plugin discovers and runs external m365-* subcommands from PATH.
package plugin

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const prefix = "m365-"

// FindPlugin looks for an m365-* plugin in the PATH
func FindPlugin(name string) (string, error) {
	pluginName := prefix + name
	path, err := exec.LookPath(pluginName)
	if err != nil {
		return "", fmt.Errorf("plugin '%s' not found in PATH", pluginName)
	}
	return path, nil
}

// ExecutePlugin runs an m365-* plugin with the given arguments
func ExecutePlugin(name string, args []string) error {
	pluginPath, err := FindPlugin(name)
	if err != nil {
		return err
	}

	cmd := exec.Command(pluginPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	return cmd.Run()
}

// ListPlugins returns a list of available m365-* plugins in PATH
func ListPlugins() ([]string, error) {
	pathEnv := os.Getenv("PATH")
	if pathEnv == "" {
		return nil, nil
	}

	paths := strings.Split(pathEnv, string(os.PathListSeparator))
	plugins := make(map[string]bool)

	for _, dir := range paths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, prefix) && !entry.IsDir() {
				fullPath := dir + string(os.PathSeparator) + name
				info, err := os.Stat(fullPath)
				if err != nil {
					continue
				}

				if info.Mode()&0111 != 0 {
					plugins[strings.TrimPrefix(name, prefix)] = true
				}
			}
		}
	}

	result := make([]string, 0, len(plugins))
	for plugin := range plugins {
		result = append(result, plugin)
	}

	return result, nil
}
