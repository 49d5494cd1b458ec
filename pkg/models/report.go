package models

import "time"

// ScanFailure records one file that could not be processed
type ScanFailure struct {
	Path  string `json:"path"`
	Cause string `json:"cause"`
}

// ScanReport aggregates the outcome of one scan run. Per-file ordering is
// unspecified under concurrency; the counters are deterministic for fixed
// inputs and a fixed definition version.
type ScanReport struct {
	ScanPath          string        `json:"scan_path"`
	DefinitionVersion string        `json:"definition_version"`
	StartTime         time.Time     `json:"start_time"`
	EndTime           time.Time     `json:"end_time"`
	Duration          time.Duration `json:"duration"`

	TotalFiles int `json:"total_files"`
	Clean      int `json:"clean"`
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Errors     int `json:"errors"`
	CacheHits  int `json:"cache_hits"`

	Records  []*QuarantineRecord `json:"records,omitempty"`
	Failures []*ScanFailure      `json:"failures,omitempty"`

	Cancelled   bool `json:"cancelled"`
	WorkersUsed int  `json:"workers_used"`
}

// Count increments the counter for one verdict. Not safe for concurrent use;
// the pipeline's collector is the single caller.
func (r *ScanReport) Count(path string, v Verdict) {
	r.TotalFiles++

	switch v.Kind {
	case VerdictClean:
		r.Clean++
	case VerdictMalicious:
		r.Malicious++
	case VerdictSuspicious:
		r.Suspicious++
	case VerdictError:
		r.Errors++
		cause := "unknown"
		if v.Cause != nil {
			cause = v.Cause.Error()
		}
		r.Failures = append(r.Failures, &ScanFailure{Path: path, Cause: cause})
	}
}

// ThreatsFound returns the number of files that triggered quarantine
func (r *ScanReport) ThreatsFound() int {
	return r.Malicious + r.Suspicious
}
