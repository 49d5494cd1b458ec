package engine

import "filewarden/pkg/models"

// SignatureChecker matches file hashes against the definition snapshot
type SignatureChecker struct{}

// NewSignatureChecker creates a new signature checker
func NewSignatureChecker() *SignatureChecker {
	return &SignatureChecker{}
}

// Name returns the checker name
func (c *SignatureChecker) Name() string {
	return "signature"
}

// Check returns Malicious when MatchSignature finds an entry
func (c *SignatureChecker) Check(hash models.FileHash, _ []byte, defs *models.DefinitionSet) (models.Verdict, bool) {
	if entry, ok := MatchSignature(hash, defs); ok {
		return models.MaliciousVerdict(entry), true
	}
	return models.Verdict{}, false
}

// MatchSignature looks up a hash in the definition set. The md5 index is
// consulted first for speed, but an md5 hit only counts when the entry's
// sha256 agrees with the computed sha256; a disagreement means a crafted
// md5 collision and is treated as no match. A direct sha256 hit matches
// regardless of md5.
func MatchSignature(hash models.FileHash, defs *models.DefinitionSet) (*models.SignatureEntry, bool) {
	if entry, ok := defs.ByMD5(hash.MD5); ok {
		if entry.SHA256 == hash.SHA256 {
			return entry, true
		}
	}

	if entry, ok := defs.BySHA256(hash.SHA256); ok {
		return entry, true
	}

	return nil, false
}
