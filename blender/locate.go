package blender

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// FindExecutable locates the Blender binary. An explicit path wins, then
// $PATH, then the usual install locations for the current platform.
func FindExecutable(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("configured Blender path %s not found: %w", explicit, err)
		}
		return explicit, nil
	}

	if path, err := exec.LookPath("blender"); err == nil {
		return path, nil
	}

	for _, path := range defaultPaths() {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("blender executable not found; install Blender or set blender_path")
}

func defaultPaths() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\Program Files\Blender Foundation\Blender 4.2\blender.exe`,
			`C:\Program Files\Blender Foundation\Blender 4.1\blender.exe`,
			`C:\Program Files\Blender Foundation\Blender 4.0\blender.exe`,
			`C:\Program Files\Blender Foundation\Blender 3.6\blender.exe`,
		}
	case "darwin":
		return []string{
			"/Applications/Blender.app/Contents/MacOS/Blender",
		}
	default:
		return []string{
			"/usr/bin/blender",
			"/usr/local/bin/blender",
			"/snap/bin/blender",
		}
	}
}
