package expect

import (
	"github.com/dzuwhf/gopsi/gauss"
)

type ruleFunc func(p *gauss.Gaussian, op1, op2 Operand, cfg *config) (*Result, error)

type rule struct {
	name string
	fn   ruleFunc
}

// table maps operand kinds to closed-form rules. Specific rules are
// registered first; generic families (sums, swaps) only fill keys left
// vacant, so the most specific rule always wins.
var table map[Key]rule

func init() { table = buildTable() }

var (
	meanKinds    = []Kind{KindZeroMean, KindConstantMean, KindLinearMean, KindIdentityMean}
	kernelKinds  = []Kind{KindRBF, KindLinearKernel, KindAddKernel, KindProdKernel}
	linearLike   = []Kind{KindLinearMean, KindIdentityMean}
	constantLike = []Kind{KindZeroMean, KindConstantMean}
)

const ip = KindInducingPoints

func buildTable() map[Key]rule {
	t := make(map[Key]rule)
	reg := func(name string, k Key, fn ruleFunc) {
		if _, dup := t[k]; dup {
			panic("expect: duplicate rule for " + k.String())
		}
		t[k] = rule{name: name, fn: fn}
	}
	regIfVacant := func(name string, k Key, fn ruleFunc) {
		if _, dup := t[k]; !dup {
			t[k] = rule{name: name, fn: fn}
		}
	}

	// Diagonal expectations E[k(x, x)].
	reg("rbf.psi0", Key{Obj1: KindRBF}, psi0RBF)
	reg("linear.psi0", Key{Obj1: KindLinearKernel}, psi0Linear)
	reg("add.sum", Key{Obj1: KindAddKernel}, addRecurse)
	reg("prod.factorize", Key{Obj1: KindProdKernel}, prodRecurse)

	// Cross-covariance expectations E[k(x, Z)].
	reg("rbf.psi1", Key{Obj1: KindRBF, Feat1: ip}, psi1RBF)
	reg("linear.psi1", Key{Obj1: KindLinearKernel, Feat1: ip}, psi1Linear)
	reg("add.sum", Key{Obj1: KindAddKernel, Feat1: ip}, addRecurse)
	reg("prod.factorize", Key{Obj1: KindProdKernel, Feat1: ip}, prodRecurse)

	// Kernel-mean cross expectations E[k(x, Z) m(x)ᵀ].
	reg("rbf.identity-mean", Key{Obj1: KindRBF, Feat1: ip, Obj2: KindIdentityMean}, rbfIdentityMean)
	reg("rbf.linear-mean", Key{Obj1: KindRBF, Feat1: ip, Obj2: KindLinearMean}, rbfLinearMean)
	reg("rbf.constant-mean", Key{Obj1: KindRBF, Feat1: ip, Obj2: KindConstantMean}, rbfConstantMean)
	reg("rbf.constant-mean", Key{Obj1: KindRBF, Feat1: ip, Obj2: KindZeroMean}, rbfConstantMean)
	for _, mk := range meanKinds {
		reg("add.sum", Key{Obj1: KindAddKernel, Feat1: ip, Obj2: mk}, addRecurse)
	}

	// Kernel-kernel second moments E[k1(x, Z) k2(x, Z)ᵀ].
	reg("rbf.psi2", Key{Obj1: KindRBF, Feat1: ip, Obj2: KindRBF, Feat2: ip}, psi2RBF)
	reg("linear.psi2", Key{Obj1: KindLinearKernel, Feat1: ip, Obj2: KindLinearKernel, Feat2: ip}, psi2Linear)
	reg("rbf.linear-cross", Key{Obj1: KindRBF, Feat1: ip, Obj2: KindLinearKernel, Feat2: ip}, rbfLinearKernel)
	reg("swap.kernels", Key{Obj1: KindLinearKernel, Feat1: ip, Obj2: KindRBF, Feat2: ip}, swapOperands)
	reg("add.psi2", Key{Obj1: KindAddKernel, Feat1: ip, Obj2: KindAddKernel, Feat2: ip}, addAdd)
	reg("prod.psi2", Key{Obj1: KindProdKernel, Feat1: ip, Obj2: KindProdKernel, Feat2: ip}, prodProd)

	// Mean first moments E[m(x)].
	for _, mk := range meanKinds {
		reg("mean.first-moment", Key{Obj1: mk}, meanFirstMoment)
	}

	// Mean second moments E[m1(x) m2(x)ᵀ].
	for _, a := range linearLike {
		for _, b := range linearLike {
			reg("mean.linear-linear", Key{Obj1: a, Obj2: b}, linLinMoment)
		}
	}
	for _, a := range constantLike {
		for _, b := range constantLike {
			reg("mean.constant-constant", Key{Obj1: a, Obj2: b}, constConstMoment)
		}
	}
	for _, a := range constantLike {
		for _, b := range linearLike {
			reg("mean.constant-general", Key{Obj1: a, Obj2: b}, constMeanMoment)
		}
	}
	for _, a := range linearLike {
		for _, b := range constantLike {
			reg("mean.general-constant", Key{Obj1: a, Obj2: b}, meanConstMoment)
		}
	}

	// Mean-kernel pairs reduce to the transposed kernel-mean rule.
	for _, mk := range meanKinds {
		for _, kk := range kernelKinds {
			regIfVacant("swap.mean-kernel", Key{Obj1: mk, Obj2: kk, Feat2: ip}, swapOperands)
		}
	}

	return t
}
