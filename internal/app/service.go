package app

import (
	"newsreel/internal/avatar"
	"newsreel/internal/llm"
	"newsreel/internal/metadata"
	"newsreel/internal/publish"
	"newsreel/internal/speech"
	"newsreel/pkg/config"
)

type Service struct {
	cfg       *config.Config
	llm       llm.Client
	tts       speech.Provider
	avatar    avatar.Synthesizer
	publisher *publish.Publisher
	records   metadata.Store
}

type ServiceOptions struct {
	Config    *config.Config
	LLM       llm.Client
	TTS       speech.Provider
	Avatar    avatar.Synthesizer
	Publisher *publish.Publisher
	Records   metadata.Store
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:       opts.Config,
		llm:       opts.LLM,
		tts:       opts.TTS,
		avatar:    opts.Avatar,
		publisher: opts.Publisher,
		records:   opts.Records,
	}
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) LLM() llm.Client {
	return s.llm
}

func (s *Service) TTS() speech.Provider {
	return s.tts
}

func (s *Service) Avatar() avatar.Synthesizer {
	return s.avatar
}

func (s *Service) Publisher() *publish.Publisher {
	return s.publisher
}

func (s *Service) Records() metadata.Store {
	return s.records
}
