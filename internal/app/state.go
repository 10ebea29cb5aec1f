package app

type State string

const (
	StateReceived        State = "received"
	StateScriptGenerated State = "script_generated"
	StateAudioGenerated  State = "audio_generated"
	StateVideoGenerated  State = "video_generated"
	StateVideoDownloaded State = "video_downloaded"
	StateUploaded        State = "uploaded"
	StateMetadataSaved   State = "metadata_saved"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
)

func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Transition is reported once per state change. Err is set only when To is
// StateFailed.
type Transition struct {
	From State
	To   State
	Err  error
}

type Observer func(Transition)
