package platform

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Operating system constants
const (
	OSWindows = "windows"
	OSAndroid = "android"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Default binary names
const (
	DefaultBinary       = "yt-dlp"
	WindowsBinarySuffix = ".exe"
)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// GetHomeDownloadsDir returns the standard Downloads directory for the user
func GetHomeDownloadsDir() (string, error) {
	isAndroid := runtime.GOOS == OSAndroid ||
		os.Getenv("ANDROID_DATA") != "" ||
		os.Getenv("ANDROID_ROOT") != ""

	if isAndroid {
		return "/sdcard/Download", nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, "Downloads"), nil
}

// LookupBinary resolves the downloader executable. Names without a path
// separator are searched in PATH; on Windows the .exe suffix is tried too.
func LookupBinary(binary string) (string, error) {
	if binary == "" {
		binary = DefaultBinary
	}

	path, err := exec.LookPath(binary)
	if err == nil {
		return path, nil
	}

	if runtime.GOOS == OSWindows && filepath.Ext(binary) == "" {
		if path, winErr := exec.LookPath(binary + WindowsBinarySuffix); winErr == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("failed to locate %s: %w", binary, err)
}
