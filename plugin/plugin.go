package plugin

import (
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-comp/dsp/core"
	"github.com/cwbudde/algo-comp/plugin/param"
)

type options struct {
	processor     []core.ProcessorOption
	queueCapacity int
	sendRetries   int
	logger        logrus.FieldLogger
}

// Option configures New.
type Option func(*options)

// WithProcessorOptions passes sample rate, block size and channel options
// to the processor.
func WithProcessorOptions(opts ...core.ProcessorOption) Option {
	return func(o *options) { o.processor = append(o.processor, opts...) }
}

// WithQueueCapacity sets the depth of the parameter queue.
func WithQueueCapacity(n int) Option {
	return func(o *options) { o.queueCapacity = n }
}

// WithSendRetries sets how often a control-side send retries on a full queue.
func WithSendRetries(n int) Option {
	return func(o *options) { o.sendRetries = n }
}

// WithLogger sets the control-side logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a connected Processor/Controller pair sharing one parameter
// queue. Defaults: stereo, 48 kHz, 512-sample blocks, queue depth 2048.
func New(opts ...Option) (*Processor, *Controller, error) {
	o := options{
		queueCapacity: param.DefaultQueueCapacity,
		sendRetries:   param.DefaultSendRetries,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	queue := param.NewQueue(o.queueCapacity, param.WithSendRetries(o.sendRetries))

	proc, err := NewProcessor(queue, o.processor...)
	if err != nil {
		return nil, nil, err
	}

	return proc, NewController(queue, o.logger), nil
}
