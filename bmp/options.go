package bmp

import "go.uber.org/zap"

// Options configures decoding of BMP messages.
type Options struct {
	Logger *zap.Logger
}

func (o *Options) logger() *zap.Logger {
	if o == nil || o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
