package mrt

import "go.uber.org/zap"

// Options configures decoding of MRT records.
type Options struct {
	Logger *zap.Logger
	// WarnUnsupported, when set, receives the decoder's non-fatal
	// diagnostics in place of a warn-level log line: RIB_GENERIC /
	// RIB_GENERIC_ADDPATH records (returned undecoded as a RawRecord, not as
	// an error — RFC 6396's generic RIB encoding is not decoded by this
	// package), malformed RIB entries that end a RIB record's entry list,
	// and the records SkipErrors drops.
	WarnUnsupported func(reason string)
}

func (o *Options) logger() *zap.Logger {
	if o == nil || o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o *Options) warn(reason string) {
	if o != nil && o.WarnUnsupported != nil {
		o.WarnUnsupported(reason)
		return
	}
	o.logger().Warn("mrt: unsupported record", zap.String("reason", reason))
}
