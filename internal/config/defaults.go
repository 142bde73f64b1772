package config

const (
	defaultDataDir   = "~/hcp/preprocessed"
	defaultAtlasDir  = "~/hcp/standard_mesh_atlases"
	defaultOutputDir = "~/hcp/resampled"
	defaultLogDir    = "~/.local/share/surfbatch/logs"
	defaultLogFormat = "console"
	defaultLogLevel  = "info"
	defaultJobs      = 1
)

func defaultTasks() []string {
	return []string{"EMOTION", "SOCIAL", "WM", "GAMBLING", "LANGUAGE", "MOTOR", "RELATIONAL"}
}

func defaultRuns() []string {
	return []string{"LR", "RL"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		// Path fields stay empty so the SURFBATCH_* environment overlay can
		// fill them in normalize; the defaults apply after that.
		Paths: Paths{},
		Batch: Batch{
			Tasks: defaultTasks(),
			Runs:  defaultRuns(),
			// Jobs is left zero so SURFBATCH_JOBS can fill it in normalize.
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
