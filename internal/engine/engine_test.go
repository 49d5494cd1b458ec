package engine

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"filewarden/pkg/models"
)

func hashOf(content []byte) models.FileHash {
	m := md5.Sum(content)
	s := sha256.Sum256(content)
	return models.FileHash{
		MD5:    hex.EncodeToString(m[:]),
		SHA256: hex.EncodeToString(s[:]),
	}
}

func defsWith(version string, entries ...*models.SignatureEntry) *models.DefinitionSet {
	return models.NewDefinitionSet(version, entries)
}

func TestMatchSignature(t *testing.T) {
	payload := []byte("malicious payload")
	hash := hashOf(payload)

	t.Run("md5 hit with agreeing sha256", func(t *testing.T) {
		defs := defsWith("1", &models.SignatureEntry{
			MD5: hash.MD5, SHA256: hash.SHA256, ThreatName: "Test.A",
		})

		entry, ok := MatchSignature(hash, defs)
		if !ok || entry.ThreatName != "Test.A" {
			t.Fatalf("MatchSignature() = %v, %v; want Test.A", entry, ok)
		}
	})

	t.Run("md5 collision with disagreeing sha256 is no match", func(t *testing.T) {
		defs := defsWith("1", &models.SignatureEntry{
			MD5:        hash.MD5,
			SHA256:     "0000000000000000000000000000000000000000000000000000000000000000",
			ThreatName: "Test.Collision",
		})

		if entry, ok := MatchSignature(hash, defs); ok {
			t.Fatalf("crafted md5 collision matched %v", entry)
		}
	})

	t.Run("sha256 hit matches independent of md5", func(t *testing.T) {
		defs := defsWith("1", &models.SignatureEntry{
			MD5: "ffffffffffffffffffffffffffffffff", SHA256: hash.SHA256, ThreatName: "Test.B",
		})

		entry, ok := MatchSignature(hash, defs)
		if !ok || entry.ThreatName != "Test.B" {
			t.Fatalf("MatchSignature() = %v, %v; want sha256-only hit Test.B", entry, ok)
		}
	})

	t.Run("unknown hash", func(t *testing.T) {
		defs := defsWith("1")
		if _, ok := MatchSignature(hash, defs); ok {
			t.Fatal("unknown hash matched")
		}
	})
}

func TestEngine_SignaturePrecedence(t *testing.T) {
	// High-entropy content that is also a known signature must be Malicious,
	// not Suspicious.
	rng := rand.New(rand.NewSource(7))
	payload := make([]byte, 64<<10)
	rng.Read(payload)
	hash := hashOf(payload)

	defs := defsWith("1", &models.SignatureEntry{
		MD5: hash.MD5, SHA256: hash.SHA256, ThreatName: "Test.Packed",
	})

	eng := New(Options{EntropyThreshold: 7.0}, zap.NewNop())
	verdict := eng.Classify(hash, payload, defs)

	if verdict.Kind != models.VerdictMalicious {
		t.Fatalf("verdict = %s, want malicious", verdict.Kind)
	}
	if verdict.Signature.ThreatName != "Test.Packed" {
		t.Errorf("ThreatName = %q, want Test.Packed", verdict.Signature.ThreatName)
	}
}

func TestEngine_HeuristicFallback(t *testing.T) {
	eng := New(Options{EntropyThreshold: 7.0}, zap.NewNop())
	defs := defsWith("1")

	rng := rand.New(rand.NewSource(9))
	noise := make([]byte, 64<<10)
	rng.Read(noise)

	verdict := eng.Classify(hashOf(noise), noise, defs)
	if verdict.Kind != models.VerdictSuspicious {
		t.Fatalf("verdict = %s, want suspicious for random bytes", verdict.Kind)
	}
	if verdict.Entropy < 7.0 || verdict.Entropy > 8 {
		t.Errorf("Entropy = %v, want within [7,8]", verdict.Entropy)
	}
}

func TestEngine_EmptyFileIsClean(t *testing.T) {
	eng := New(Options{EntropyThreshold: 7.0}, zap.NewNop())
	verdict := eng.Classify(hashOf(nil), nil, defsWith("1"))

	if verdict.Kind != models.VerdictClean {
		t.Fatalf("verdict = %s, want clean for a 0-byte file", verdict.Kind)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	eng := New(Options{EntropyThreshold: 7.0}, zap.NewNop())
	content := []byte("powershell -enc AAAA")
	hash := hashOf(content)
	defs := defsWith("1")

	first := eng.Classify(hash, content, defs)
	for i := 0; i < 10; i++ {
		again := eng.Classify(hash, content, defs)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d: verdict %+v differs from first %+v", i, again, first)
		}
	}
}
