// Package logfields holds the canonical slog attribute keys used across the
// generator, the content sources and the server.
package logfields

import (
	"log/slog"
	"time"
)

const (
	KeyRoute      = "route"
	KeyPageID     = "page_id"
	KeyPath       = "path"
	KeyBuildID    = "build_id"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

func Route(name string) slog.Attr     { return slog.String(KeyRoute, name) }
func PageID(id string) slog.Attr      { return slog.String(KeyPageID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Since is DurationMS measured from start.
func Since(start time.Time) slog.Attr {
	return DurationMS(float64(time.Since(start).Microseconds()) / 1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
