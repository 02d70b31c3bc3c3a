package barrow

import "github.com/rs/zerolog"

// loggerFacade wraps the engine's configured zerolog.Logger with the
// handful of structured events this package emits (§9 Design Notes:
// file-level locking and tombstone detection are the two conditions
// callers most need surfaced outside of a returned error). A zero
// value logs nothing, matching zerolog.Nop semantics.
type loggerFacade struct {
	l zerolog.Logger
}

func (lf loggerFacade) lockBusy(path string) {
	lf.l.Debug().Str("path", path).Msg("lock.busy")
}

func (lf loggerFacade) compactStart(path, tmpPath string) {
	lf.l.Info().Str("path", path).Str("tmp", tmpPath).Msg("compact.start")
}

func (lf loggerFacade) compactDone(path string, oldSize, newSize int64) {
	lf.l.Info().Str("path", path).Int64("old_size", oldSize).Int64("new_size", newSize).Msg("compact.done")
}

func (lf loggerFacade) tombstoneDetected(path string) {
	lf.l.Warn().Str("path", path).Msg("meta.tombstone.detected")
}

func (lf loggerFacade) revertTruncate(path string, toSize int64) {
	lf.l.Info().Str("path", path).Int64("size", toSize).Msg("revert.truncate")
}
