package core

import (
	"fmt"
	"path/filepath"
)

func HashContent(content []byte) string {
	result := 0
	for _, b := range content {
		result = (result*31 + int(b)) % 1000000007
	}
	return fmt.Sprintf("%d", result)
}

// LockFileName names the capture lock for an output directory. The lock
// lives outside the output tree so it never ends up in a deployment.
func LockFileName(outDir string) string {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		abs = outDir
	}
	return "ogimage-" + HashContent([]byte(filepath.Clean(abs))) + ".lock"
}
