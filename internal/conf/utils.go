// conf/utils.go various util functions for configuration package
package conf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/logger"
)

// appDirName is the per-user and system-wide config directory name.
const appDirName = "roulette-client"

// GetDefaultConfigPaths returns the configuration directories for the current
// operating system. When one of them already holds a config.yaml only that
// directory is returned.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	var configPaths []string
	switch runtime.GOOS {
	case "windows":
		exePath, err := os.Executable()
		if err != nil {
			return nil, errors.New(err).
				Component("configuration").
				Category(errors.CategoryConfiguration).
				Context("operation", "get-executable-path").
				Build()
		}
		configPaths = []string{
			filepath.Dir(exePath),
			filepath.Join(homeDir, "AppData", "Roaming", appDirName),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", appDirName),
			filepath.Join("/etc", appDirName),
		}
	}

	for _, path := range configPaths {
		if _, err := os.Stat(filepath.Join(path, ConfigFileName)); err == nil {
			return []string{path}, nil
		}
	}

	return configPaths, nil
}

// FindConfigFile locates the configuration file in the default paths.
func FindConfigFile() (string, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range configPaths {
		configFilePath := filepath.Join(path, ConfigFileName)
		if _, err := os.Stat(configFilePath); err == nil {
			return configFilePath, nil
		}
	}

	return "", errors.Newf("config file not found").
		Component("configuration").
		Category(errors.CategoryNotFound).
		Context("operation", "find-config-file").
		Build()
}

// moveFile moves a file from src to dst, working across devices
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("error resolving source path: %w", err)
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("error resolving destination path: %w", err)
	}

	srcFile, err := os.Open(srcAbs) //nolint:gosec // G304: srcAbs is filepath.Abs resolved path
	if err != nil {
		return fmt.Errorf("error opening source file: %w", err)
	}
	defer func() {
		if err := srcFile.Close(); err != nil {
			GetLogger().Warn("Failed to close source file", logger.Error(err))
		}
	}()

	dstFile, err := os.Create(dstAbs) //nolint:gosec // G304: dstAbs is filepath.Abs resolved path
	if err != nil {
		return fmt.Errorf("error creating destination file: %w", err)
	}
	defer func() {
		if err := dstFile.Close(); err != nil {
			GetLogger().Warn("Failed to close destination file", logger.Error(err))
		}
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("error copying file contents: %w", err)
	}

	// the copy succeeded, a leftover source is still an error for the caller
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("error removing source file after copy: %w", err)
	}

	return nil
}
