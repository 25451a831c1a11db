package lsh

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Signature is a pooled, fixed-length MinHash vector (§4.4). Callers
// return signatures to signaturePool via Release once consumed by banding,
// eliminating per-entity allocation churn across large corpora.
type Signature []uint64

var signaturePool = sync.Pool{}

func acquireSignature(h int) Signature {
	if v := signaturePool.Get(); v != nil {
		sig := v.(Signature)
		if cap(sig) >= h {
			return sig[:h]
		}
	}
	return make(Signature, h)
}

// Release returns sig to the pool. Callers must not use sig afterward.
func (sig Signature) Release() {
	signaturePool.Put(sig)
}

// HashFamily derives H independent hash functions from two base hashes via
// hash_i(x) = (a_i*h1(x) + b_i*h2(x)) mod p (§4.4), where h1 is the
// shingle's xxhash, h2 a fixed 64-bit bit-mix of h1, and a_i/b_i are fixed,
// deterministically-seeded coefficients so signatures are reproducible
// across runs given the same H.
type HashFamily struct {
	a, b []uint64
	p    uint64
}

const mersenne61 = (uint64(1) << 61) - 1

// NewHashFamily builds H hash functions. Seeded from a fixed LCG so the
// same H always yields the same coefficients, run to run.
func NewHashFamily(h int) *HashFamily {
	fam := &HashFamily{a: make([]uint64, h), b: make([]uint64, h), p: mersenne61}
	state := uint64(0x9E3779B97F4A7C15)
	next := func() uint64 {
		state = state*6364136223846793005 + 1442695040888963407
		return state
	}
	for i := 0; i < h; i++ {
		fam.a[i] = next()%(mersenne61-1) + 1
		fam.b[i] = next() % mersenne61
	}
	return fam
}

func (fam *HashFamily) H() int { return len(fam.a) }

func (fam *HashFamily) hash(i int, x uint64) uint64 {
	h2 := x ^ (x >> 33)
	h2 *= 0xff51afd7ed558ccd
	h2 ^= h2 >> 33
	return (mulMod(fam.a[i], x, fam.p) + mulMod(fam.b[i], h2, fam.p)) % fam.p
}

// mulMod computes a*x mod p via binary doubling, avoiding a 128-bit
// multiply: a and x are both < 2^61, so a*x would overflow uint64.
func mulMod(a, x, p uint64) uint64 {
	result := uint64(0)
	a %= p
	for x > 0 {
		if x&1 == 1 {
			result = (result + a) % p
		}
		a = (a * 2) % p
		x >>= 1
	}
	return result
}

// Sign computes entity's MinHash signature over its shingle set.
func (fam *HashFamily) Sign(shingles []string) Signature {
	sig := acquireSignature(fam.H())
	for i := range sig {
		sig[i] = ^uint64(0)
	}
	for _, s := range shingles {
		base := xxhash.Sum64String(s)
		for i := 0; i < fam.H(); i++ {
			v := fam.hash(i, base)
			if v < sig[i] {
				sig[i] = v
			}
		}
	}
	return sig
}

// EstimateJaccard approximates shingle-set Jaccard similarity from two
// MinHash signatures: the fraction of matching rows.
func EstimateJaccard(a, b Signature) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(a))
}

// Bands partitions an H-dim signature into b bands of r rows each
// (H = b*r), hashing each band's r-tuple into a bucket key (§4.4).
func Bands(sig Signature, bands, rows int) []uint64 {
	keys := make([]uint64, bands)
	for band := 0; band < bands; band++ {
		h := xxhash.New()
		start := band * rows
		buf := make([]byte, 8)
		for r := 0; r < rows; r++ {
			v := sig[start+r]
			for i := 0; i < 8; i++ {
				buf[i] = byte(v >> (8 * i))
			}
			h.Write(buf)
		}
		keys[band] = h.Sum64()
	}
	return keys
}
