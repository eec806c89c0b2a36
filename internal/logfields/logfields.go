package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCollection = "collection"
	KeySlug       = "slug"
	KeyKey        = "content_key"
	KeyBranch     = "branch"
	KeyPath       = "path"
	KeyFolder     = "folder"
	KeyStatus     = "workflow_status"
	KeyOperation  = "operation"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyUser       = "user"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Collection(c string) slog.Attr   { return slog.String(KeyCollection, c) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func Key(k string) slog.Attr          { return slog.String(KeyKey, k) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Folder(f string) slog.Attr       { return slog.String(KeyFolder, f) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func Operation(op string) slog.Attr   { return slog.String(KeyOperation, op) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func User(u string) slog.Attr         { return slog.String(KeyUser, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
