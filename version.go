package governor

import (
	"fmt"
	"runtime"
)

// Set at build time through -ldflags "-X".
var (
	CurrentCommit  = ""
	CurrentBranch  = ""
	CurrentVersion = ""
	BuildDate      = ""

	GoVersion = runtime.Version()
	Platform  = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
)
