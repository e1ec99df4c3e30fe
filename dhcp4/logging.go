package dhcp4

import "go.uber.org/zap"

// log receives the codec's decode diagnostics. Decoding is best-effort by
// contract, so anomalies are logged instead of returned; by default they
// are dropped.
var log = zap.NewNop().Sugar()

// SetLogger installs lg as the codec's logger. Passing nil restores the
// no-op default.
func SetLogger(lg *zap.SugaredLogger) {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	log = lg
}
