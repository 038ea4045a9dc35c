package domain

// Stage is the terminal outcome of one download attempt
type Stage int

// Attempt stages
const (
	StageUnknownURL Stage = iota
	StageFailToConnection
	StageFailToCreateFile
	StageFailToDownload
	StageFailToWrite
	StageFailToResumeFile
	StageFileCorrupted
	StageFailToResumeConnection
	StageInterrupted
	StageAbort
	StageFinished
	StageUnknownError
)

var stageNames = map[Stage]string{
	StageUnknownURL:             "Unknown URL",
	StageFailToConnection:       "Connection Failed",
	StageFailToCreateFile:       "Failed to create file",
	StageFailToDownload:         "Failed to download",
	StageFailToWrite:            "Failed to write to file",
	StageFailToResumeFile:       "Cannot open file",
	StageFileCorrupted:          "File corrupted",
	StageFailToResumeConnection: "Connection failed",
	StageInterrupted:            "Stopped",
	StageAbort:                  "Abort",
	StageFinished:               "Finished",
	StageUnknownError:           "Unknown error",
}

// stageKeys are stable identifiers used for persistence
var stageKeys = map[Stage]string{
	StageUnknownURL:             "unknown_url",
	StageFailToConnection:       "fail_to_connection",
	StageFailToCreateFile:       "fail_to_create_file",
	StageFailToDownload:         "fail_to_download",
	StageFailToWrite:            "fail_to_write",
	StageFailToResumeFile:       "fail_to_resume_file",
	StageFileCorrupted:          "file_corrupted",
	StageFailToResumeConnection: "fail_to_resume_connection",
	StageInterrupted:            "interrupted",
	StageAbort:                  "abort",
	StageFinished:               "finished",
	StageUnknownError:           "unknown_error",
}

// Key returns the stable identifier of the stage
func (s Stage) Key() string {
	if key, ok := stageKeys[s]; ok {
		return key
	}
	return stageKeys[StageUnknownError]
}

// ParseStage maps a key produced by Key back to its stage.
// Unrecognized keys yield StageUnknownError.
func ParseStage(key string) Stage {
	for stage, k := range stageKeys {
		if k == key {
			return stage
		}
	}
	return StageUnknownError
}

// String returns the display name of the stage
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return stageNames[StageUnknownError]
}

// Resumable reports whether a task that ended with this stage keeps enough
// state to be resumed by the user
func (s Stage) Resumable() bool {
	switch s {
	case StageFailToDownload, StageFailToWrite, StageFailToResumeFile,
		StageFailToResumeConnection, StageInterrupted:
		return true
	default:
		return false
	}
}

// Result is the outcome of one attempt. It is delivered exactly once.
type Result struct {
	Stage   Stage
	Message string
}

// NewResult creates a new Result
func NewResult(stage Stage, message string) Result {
	return Result{Stage: stage, Message: message}
}

// Success returns true if the attempt finished the download
func (r Result) Success() bool {
	return r.Stage == StageFinished
}

// String returns "<stage>" or "<stage>: <message>"
func (r Result) String() string {
	if r.Message == "" {
		return r.Stage.String()
	}
	return r.Stage.String() + ": " + r.Message
}

// Command is a control message sent to a running attempt
type Command int

// Commands
const (
	CommandStop Command = iota
	CommandAbort
)

// String returns the command name
func (c Command) String() string {
	switch c {
	case CommandStop:
		return "stop"
	case CommandAbort:
		return "abort"
	default:
		return "unknown"
	}
}
