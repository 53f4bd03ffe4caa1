package bigint

import (
	"math/big"
)

// RefreshAux records how a schoolbook product of an L-limb and an R-limb Fresh integer
// carries. IncreasedLimbs[i] is the number of extra limbs the value accumulated at
// position i spills into; len(IncreasedLimbs) is the limb count of the refreshed result.
type RefreshAux struct {
	LimbWidth      int
	NumLimbsL      int
	NumLimbsR      int
	IncreasedLimbs []int
}

// NewRefreshAux propagates the worst-case limb values of an L by R product.
//
// Every position starts at count(i)·(2^w−1)^2 where count(i) is the number of (j, k)
// pairs with j+k = i. Positions are then processed in order: a value needing c chunks
// keeps its low chunk and pushes chunk j to position i+j. Only the top chunk is taken
// from the bound itself, the lower ones are bounded by 2^w−1, so the pushed values stay
// upper bounds for any honest assignment. The product is below 2^(w·(L+R)), so the plan
// stops at L+R positions and no position spills past the last one. The result depends on
// L and R only through count(i), hence NewRefreshAux(w, L, R) and NewRefreshAux(w, R, L)
// agree.
func NewRefreshAux(limbWidth, numLimbsL, numLimbsR int) RefreshAux {
	if limbWidth <= 0 || numLimbsL <= 0 || numLimbsR <= 0 {
		panic("bigint: refresh aux needs positive limb width and limb counts")
	}
	maxLimb := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(limbWidth)), big.NewInt(1))
	maxProduct := new(big.Int).Mul(maxLimb, maxLimb)

	work := make([]*big.Int, numLimbsL+numLimbsR)
	for i := range work {
		work[i] = new(big.Int)
	}
	for i := 0; i < numLimbsL; i++ {
		for j := 0; j < numLimbsR; j++ {
			work[i+j].Add(work[i+j], maxProduct)
		}
	}

	increased := make([]int, 0, len(work))
	for cur := 0; cur < len(work); cur++ {
		v := work[cur]
		n := chunkCount(v, limbWidth)
		extra := min(n-1, len(work)-1-cur)
		increased = append(increased, extra)
		for j := 1; j <= extra; j++ {
			chunk := maxLimb
			if j == n-1 {
				chunk = new(big.Int).Rsh(v, uint(limbWidth*(n-1)))
			}
			work[cur+j].Add(work[cur+j], chunk)
		}
	}

	return RefreshAux{
		LimbWidth:      limbWidth,
		NumLimbsL:      numLimbsL,
		NumLimbsR:      numLimbsR,
		IncreasedLimbs: increased,
	}
}

// NumMuledLimbs is the limb count of the product this aux refreshes.
func (aux RefreshAux) NumMuledLimbs() int {
	return aux.NumLimbsL + aux.NumLimbsR - 1
}

// NumFreshLimbs is the limb count after refresh.
func (aux RefreshAux) NumFreshLimbs() int {
	return len(aux.IncreasedLimbs)
}

func chunkCount(v *big.Int, limbWidth int) int {
	bits := v.BitLen()
	if bits == 0 {
		return 1
	}
	return (bits + limbWidth - 1) / limbWidth
}
