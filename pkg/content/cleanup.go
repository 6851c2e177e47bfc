package content

// Cleanup is the outcome of a best-effort removal.
//
// A zero Err means the target is gone (including when it never existed).
// Callers are allowed to ignore a failed Cleanup: once a catalog record is
// removed, a leftover file is a leak, not a correctness problem.
type Cleanup struct {
	// Path is the relative path (or folder id) that was targeted.
	Path string

	// Err is the failure, or nil on success.
	Err error
}

// OK reports whether the removal succeeded.
func (c Cleanup) OK() bool {
	return c.Err == nil
}
