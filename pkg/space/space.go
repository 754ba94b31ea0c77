// Package space answers whether the target filesystem has room for the
// bytes a run wants to copy.
//
// The check is advisory: an unknown result (unsupported filesystem, failed
// query) is not an error, and an insufficient result does not block
// execution — the interactive layer decides what to do with it.
package space

// Report is the outcome of a free-space check.
type Report struct {
	// Known is false when free space could not be determined; the other
	// fields are meaningless in that case.
	Known          bool
	Sufficient     bool
	FreeBytes      int64
	ShortfallBytes int64
}

// Check queries free space on the filesystem holding path and compares it
// against bytesNeeded.
func Check(path string, bytesNeeded int64) Report {
	free, err := freeBytes(path)
	if err != nil {
		return Report{}
	}
	return reportFor(free, bytesNeeded)
}

func reportFor(free, needed int64) Report {
	r := Report{
		Known:     true,
		FreeBytes: free,
	}
	if free >= needed {
		r.Sufficient = true
	} else {
		r.ShortfallBytes = needed - free
	}
	return r
}
