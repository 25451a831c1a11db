package lsh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFamilyDeterministic(t *testing.T) {
	a := NewHashFamily(32)
	b := NewHashFamily(32)
	require.Equal(t, a.H(), b.H())
	for i := 0; i < 32; i++ {
		assert.Equal(t, a.hash(i, 12345), b.hash(i, 12345))
	}
}

func TestSignIdenticalShinglesProduceIdenticalSignatures(t *testing.T) {
	fam := NewHashFamily(64)
	shingles := []string{"a\x1fb\x1fc", "b\x1fc\x1fd", "c\x1fd\x1fe"}
	sigA := fam.Sign(shingles)
	sigB := fam.Sign(shingles)
	assert.Equal(t, sigA, sigB)
}

func TestEstimateJaccardHighForOverlappingSets(t *testing.T) {
	fam := NewHashFamily(128)
	shared := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	sigA := fam.Sign(shared)
	sigB := fam.Sign(shared)
	assert.Equal(t, 1.0, EstimateJaccard(sigA, sigB))
}

func TestEstimateJaccardLowForDisjointSets(t *testing.T) {
	fam := NewHashFamily(256)
	sigA := fam.Sign([]string{"alpha", "bravo", "charlie", "delta"})
	sigB := fam.Sign([]string{"zulu", "yankee", "xray", "whiskey"})
	assert.Less(t, EstimateJaccard(sigA, sigB), 0.5)
}

func TestBandsGroupsIdenticalSignaturesTogether(t *testing.T) {
	fam := NewHashFamily(32)
	shingles := []string{"a", "b", "c", "d", "e"}
	sig := fam.Sign(shingles)
	keysA := Bands(sig, 8, 4)
	keysB := Bands(sig, 8, 4)
	assert.Equal(t, keysA, keysB)
}

func TestMulModMatchesNaiveForSmallInputs(t *testing.T) {
	assert.Equal(t, uint64(6), mulMod(2, 3, 1000))
	assert.Equal(t, uint64(0), mulMod(10, 10, 10))
}
