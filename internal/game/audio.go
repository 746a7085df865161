package game

import (
	"github.com/hajimehoshi/ebiten/v2/audio"
	"go.uber.org/zap"

	"pulsepath-go/internal/config"
	"pulsepath-go/internal/experiment"
	"pulsepath-go/internal/game/scene"
)

// AudioSpeaker plays the pre-rendered bip tone.
type AudioSpeaker struct {
	player *audio.Player
	log    *zap.Logger
}

// NewSpeaker builds the bip player once. It returns nil when audio is
// disabled or cannot start; the session then runs without sound and still
// records bip times.
func NewSpeaker(conf config.GameConfig, log *zap.Logger) (sp experiment.Speaker) {
	if !conf.AudioEnabled {
		log.Warn("Audio disabled, running without bips")
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("Audio unavailable, running without bips", zap.Any("reason", r))
			sp = nil
		}
	}()

	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(conf.AudioSampleRate)
	}
	pcm := scene.BipPCM(ctx.SampleRate(), conf.BipFrequency, experiment.BipDuration, conf.BipVolume)
	log.Info("Audio initialised",
		zap.Int("sample_rate", ctx.SampleRate()),
		zap.Float64("frequency", conf.BipFrequency))
	return &AudioSpeaker{player: ctx.NewPlayerFromBytes(pcm), log: log}
}

func (s *AudioSpeaker) Bip() {
	if err := s.player.Rewind(); err != nil {
		s.log.Debug("Failed to rewind bip player", zap.Error(err))
		return
	}
	s.player.Play()
}
