package env

import (
	"os"

	"github.com/3-lines-studio/ogimage/internal/core"
)

const DevEnvVar = "OGIMAGE_DEV"

func DetectMode() core.Mode {
	if os.Getenv(DevEnvVar) == "1" {
		return core.ModeDev
	}
	return core.ModeProd
}
