package connector

import (
	"context"
	"time"
)

type RetryOptions struct {
	MaxRetries int           `json:"max_retries" yaml:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay" yaml:"base_delay"`
	MaxDelay   time.Duration `json:"max_delay" yaml:"max_delay"`
}

func retryConnect(ctx context.Context, opts *RetryOptions, connect func(context.Context) error) error {
	delay := opts.BaseDelay
	if delay == 0 {
		delay = time.Second
	}

	var err error
	for i := 0; i < opts.MaxRetries; i++ {
		err = connect(ctx)
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
			if opts.MaxDelay > 0 && delay > opts.MaxDelay {
				delay = opts.MaxDelay
			}
		}
	}
	return err
}
