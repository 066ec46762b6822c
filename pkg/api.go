package blockdupes

// InitDebugFlags initialises debug flags - for CLI compatibility
func InitDebugFlags(flagsStr string) {
	if flagsStr != "" {
		SetDebugFlags(flagsStr)
	}
}

// LogDebugFlags logs which debug flags are active
func LogDebugFlags() {
	if globalVerboseLevel == 0 || len(debugFlags) == 0 {
		return
	}
	for _, flag := range []string{DebugWalk, DebugClassify, DebugGroup, DebugHash, DebugReport} {
		if IsDebugEnabled(flag) {
			VerboseLog(1, "debug flag enabled: %s", flag)
		}
	}
}

// GetDebugEnabled returns whether a debug flag is enabled - public alternative to IsDebugEnabled
func GetDebugEnabled(flag string) bool {
	return IsDebugEnabled(flag)
}

// GetVerbose returns the current verbose level - public alternative
func GetVerbose() int {
	return GetVerboseLevel()
}
