package models

// VerdictKind tags the classification outcome for one file
type VerdictKind int

const (
	VerdictClean VerdictKind = iota
	VerdictMalicious
	VerdictSuspicious
	VerdictError
)

// String returns the lowercase name of the verdict kind
func (k VerdictKind) String() string {
	switch k {
	case VerdictClean:
		return "clean"
	case VerdictMalicious:
		return "malicious"
	case VerdictSuspicious:
		return "suspicious"
	case VerdictError:
		return "error"
	default:
		return "unknown"
	}
}

// Verdict is the classification outcome for one file. Only the fields for
// its kind are populated.
type Verdict struct {
	Kind VerdictKind

	// Malicious
	Signature *SignatureEntry

	// Suspicious
	Entropy         float64
	MatchedPatterns []string

	// Error
	Cause error
}

// CleanVerdict returns a Clean verdict
func CleanVerdict() Verdict {
	return Verdict{Kind: VerdictClean}
}

// MaliciousVerdict returns a Malicious verdict carrying the matched signature
func MaliciousVerdict(sig *SignatureEntry) Verdict {
	return Verdict{Kind: VerdictMalicious, Signature: sig}
}

// SuspiciousVerdict returns a Suspicious verdict with its heuristic evidence
func SuspiciousVerdict(entropy float64, patterns []string) Verdict {
	return Verdict{Kind: VerdictSuspicious, Entropy: entropy, MatchedPatterns: patterns}
}

// ErrorVerdict returns an Error verdict wrapping the cause
func ErrorVerdict(cause error) Verdict {
	return Verdict{Kind: VerdictError, Cause: cause}
}

// IsThreat reports whether the verdict should trigger quarantine
func (v Verdict) IsThreat() bool {
	return v.Kind == VerdictMalicious || v.Kind == VerdictSuspicious
}
