package models

// Severity represents the severity of a known threat
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// SignatureEntry is a known-threat fingerprint keyed by cryptographic hash
type SignatureEntry struct {
	MD5          string   `yaml:"md5" json:"md5"`
	SHA256       string   `yaml:"sha256" json:"sha256"`
	ThreatName   string   `yaml:"name" json:"name"`
	Severity     Severity `yaml:"severity" json:"severity"`
	Family       string   `yaml:"family" json:"family"`
	AddedVersion string   `yaml:"added_version" json:"added_version"`
}

// DefinitionSet is a versioned, immutable snapshot of the signature database.
// It is built once by the loader and never mutated in place; an update builds
// a whole new set and swaps the active reference.
type DefinitionSet struct {
	version  string
	byMD5    map[string]*SignatureEntry
	bySHA256 map[string]*SignatureEntry
}

// NewDefinitionSet builds an indexed set from a list of entries. Entries
// without a sha256 are skipped: an md5-only record cannot be cross-checked
// and would weaken the collision defense.
func NewDefinitionSet(version string, entries []*SignatureEntry) *DefinitionSet {
	set := &DefinitionSet{
		version:  version,
		byMD5:    make(map[string]*SignatureEntry, len(entries)),
		bySHA256: make(map[string]*SignatureEntry, len(entries)),
	}

	for _, e := range entries {
		if e.SHA256 == "" {
			continue
		}
		if e.MD5 != "" {
			set.byMD5[e.MD5] = e
		}
		set.bySHA256[e.SHA256] = e
	}

	return set
}

// Version returns the snapshot version
func (s *DefinitionSet) Version() string {
	return s.version
}

// ByMD5 looks up an entry by md5 digest
func (s *DefinitionSet) ByMD5(digest string) (*SignatureEntry, bool) {
	e, ok := s.byMD5[digest]
	return e, ok
}

// BySHA256 looks up an entry by sha256 digest
func (s *DefinitionSet) BySHA256(digest string) (*SignatureEntry, bool) {
	e, ok := s.bySHA256[digest]
	return e, ok
}

// Len returns the number of indexed sha256 entries
func (s *DefinitionSet) Len() int {
	return len(s.bySHA256)
}
