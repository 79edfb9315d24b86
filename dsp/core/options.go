package core

const (
	defaultSampleRate = 48000
	defaultBlockSize  = 512
	defaultChannels   = 2
)

// ProcessorConfig defines the host-facing processing settings shared by every
// channel of a processor.
type ProcessorConfig struct {
	SampleRate float64
	// BlockSize is the largest block the host will hand over in one call.
	// Scratch buffers are sized from it up front; larger blocks are split.
	BlockSize int
	Channels  int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns a stereo 48 kHz configuration.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: defaultSampleRate,
		BlockSize:  defaultBlockSize,
		Channels:   defaultChannels,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 && IsFinite(sampleRate) {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the maximum processing block size.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// WithChannels sets the number of independent channels.
func WithChannels(channels int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if channels > 0 {
			cfg.Channels = channels
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
