package types

// CloneDimension names which verification axis dominated a clone's score.
type CloneDimension string

const (
	DimStructural CloneDimension = "structural"
	DimSemantic   CloneDimension = "semantic"
	DimToken      CloneDimension = "token"
)

// CloneVerdict is the outcome of the denoising pipeline for a clone group.
type CloneVerdict string

const (
	VerdictKept                CloneVerdict = "kept"
	VerdictFilteredBoilerplate CloneVerdict = "filtered-as-boilerplate"
	VerdictFilteredIOMismatch  CloneVerdict = "filtered-as-io-mismatch"
	VerdictFilteredBlock       CloneVerdict = "filtered-as-block-structure"
	VerdictRejectedLowScore    CloneVerdict = "rejected-low-score"
)

// ClonePairScore carries the three verification dimensions for one pair
// inside a CloneGroup's similarity matrix.
type ClonePairScore struct {
	A, B       EntityID
	Structural float64
	Token      float64
	Semantic   float64
	Verified   float64
}

// CloneGroup is a set of >=2 entities judged similar above threshold.
type CloneGroup struct {
	ID              string
	Members         []EntityID
	Representative  EntityID // member maximizing tokens*(size-1)
	PairScores      []ClonePairScore
	DominantDim     CloneDimension
	SavedTokens     int
	Verdict         CloneVerdict
}

func (g *CloneGroup) Size() int { return len(g.Members) }
