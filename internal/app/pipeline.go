package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"newsreel/internal/avatar"
	"newsreel/internal/speech"
)

type Pipeline struct {
	service  *Service
	observer Observer
}

type GenerateResult struct {
	VideoURL  string
	Script    string
	Key       string
	RecordID  string
	RemoteURL string
}

// generation carries one request's intermediate artifacts between steps.
type generation struct {
	businessData string
	script       string
	audio        *speech.Audio
	remoteURL    string
	video        []byte
	key          string
	publicURL    string
	recordID     string
}

type step struct {
	stage string
	kind  Kind
	next  State
	run   func(ctx context.Context, gen *generation) error
}

func NewPipeline(service *Service) *Pipeline {
	return &Pipeline{service: service}
}

// WithObserver returns a copy of the pipeline that reports every transition.
func (pipeline *Pipeline) WithObserver(observer Observer) *Pipeline {
	return &Pipeline{service: pipeline.service, observer: observer}
}

// Generate runs every stage in order and stops at the first failure. The
// public URL is returned only after both upload and metadata insert succeed.
func (pipeline *Pipeline) Generate(ctx context.Context, businessData string) (*GenerateResult, error) {
	state := StateReceived

	if strings.TrimSpace(businessData) == "" {
		err := &Error{Kind: KindValidation, Stage: "validate", Err: ErrBusinessDataRequired}
		pipeline.transition(state, StateFailed, err)
		return nil, err
	}

	gen := &generation{businessData: businessData}
	for _, s := range pipeline.steps() {
		if err := s.run(ctx, gen); err != nil {
			appErr := classify(s, err)
			slog.Error("Stage failed", "stage", s.stage, "kind", appErr.Kind, "error", err)
			pipeline.transition(state, StateFailed, appErr)
			return nil, appErr
		}
		pipeline.transition(state, s.next, nil)
		state = s.next
	}

	pipeline.transition(state, StateCompleted, nil)
	slog.Info("Video published", "url", gen.publicURL, "key", gen.key)

	return &GenerateResult{
		VideoURL:  gen.publicURL,
		Script:    gen.script,
		Key:       gen.key,
		RecordID:  gen.recordID,
		RemoteURL: gen.remoteURL,
	}, nil
}

func (pipeline *Pipeline) steps() []step {
	return []step{
		{stage: "generate script", kind: KindProvider, next: StateScriptGenerated, run: pipeline.generateScript},
		{stage: "synthesize speech", kind: KindProvider, next: StateAudioGenerated, run: pipeline.synthesizeSpeech},
		{stage: "synthesize video", kind: KindProvider, next: StateVideoGenerated, run: pipeline.synthesizeVideo},
		{stage: "download video", kind: KindDownload, next: StateVideoDownloaded, run: pipeline.downloadVideo},
		{stage: "upload video", kind: KindUpload, next: StateUploaded, run: pipeline.uploadVideo},
		{stage: "save metadata", kind: KindMetadata, next: StateMetadataSaved, run: pipeline.saveMetadata},
	}
}

func (pipeline *Pipeline) generateScript(ctx context.Context, gen *generation) error {
	slog.Info("Generating script...")
	script, err := pipeline.service.LLM().GenerateScript(ctx, gen.businessData)
	if err != nil {
		return err
	}
	gen.script = script
	slog.Info("Script generated", "preview", preview(script, 100))
	return nil
}

func (pipeline *Pipeline) synthesizeSpeech(ctx context.Context, gen *generation) error {
	slog.Info("Generating audio...")
	audio, err := pipeline.service.TTS().Synthesize(ctx, gen.script)
	if err != nil {
		return err
	}
	gen.audio = audio
	slog.Info("Audio generated", "bytes", len(audio.Data), "mime", audio.MIMEType)
	return nil
}

func (pipeline *Pipeline) synthesizeVideo(ctx context.Context, gen *generation) error {
	slog.Info("Generating video...")
	url, err := pipeline.service.Avatar().Synthesize(ctx, avatar.Request{
		AudioURI:       gen.audio.DataURI(),
		SourceImageURL: pipeline.service.Config().Avatar.SourceImage,
	})
	if err != nil {
		return err
	}
	gen.remoteURL = url
	slog.Info("Video generated", "url", url)
	return nil
}

func (pipeline *Pipeline) downloadVideo(ctx context.Context, gen *generation) error {
	slog.Info("Downloading video...")
	data, err := pipeline.service.Publisher().Fetch(ctx, gen.remoteURL)
	if err != nil {
		return err
	}
	gen.video = data
	slog.Debug("Video downloaded", "bytes", len(data))
	return nil
}

func (pipeline *Pipeline) uploadVideo(ctx context.Context, gen *generation) error {
	slog.Info("Uploading video...")
	key, url, err := pipeline.service.Publisher().Store(ctx, gen.video)
	if err != nil {
		return err
	}
	gen.key, gen.publicURL = key, url
	return nil
}

func (pipeline *Pipeline) saveMetadata(ctx context.Context, gen *generation) error {
	rec, err := pipeline.service.Publisher().Record(ctx, gen.script, gen.publicURL)
	if err != nil {
		return err
	}
	gen.recordID = rec.ID
	return nil
}

func (pipeline *Pipeline) transition(from, to State, err error) {
	slog.Debug("Pipeline transition", "from", from, "to", to)
	if pipeline.observer != nil {
		pipeline.observer(Transition{From: from, To: to, Err: err})
	}
}

func classify(s step, err error) *Error {
	var credits *avatar.InsufficientCreditsError
	if errors.As(err, &credits) {
		return &Error{Kind: KindInsufficientCredits, Stage: s.stage, Err: credits}
	}
	return &Error{Kind: s.kind, Stage: s.stage, Err: err}
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
