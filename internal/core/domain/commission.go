package domain

// SaleKind discriminates settlement kinds for the commission policy.
type SaleKind string

const (
	SalePurchase     SaleKind = "PURCHASE"     // one-time post purchase
	SaleTipUnlock    SaleKind = "TIP_UNLOCK"   // tip-gated private content
	SaleSubscription SaleKind = "SUBSCRIPTION" // recurring plan
)

// Platform commission in basis points. Purchases and tip unlocks retain 20%
// (seller receives 80%); subscriptions retain 30% (seller receives 70%).
const (
	purchaseSellerBP     = 8000
	subscriptionSellerBP = 7000
	basisPointDivisor    = 10000
)

// SellerShare computes the seller payout for a gross amount in minor units.
// Division by the basis-point divisor rounds half to even, so payouts are
// deterministic at minor-unit precision regardless of gross amount.
func SellerShare(gross int64, kind SaleKind) int64 {
	bp := int64(purchaseSellerBP)
	if kind == SaleSubscription {
		bp = subscriptionSellerBP
	}
	return divRoundHalfEven(gross*bp, basisPointDivisor)
}

// divRoundHalfEven divides n by d (d > 0) rounding half to even.
func divRoundHalfEven(n, d int64) int64 {
	neg := n < 0
	if neg {
		n = -n
	}
	q, r := n/d, n%d
	switch {
	case 2*r > d:
		q++
	case 2*r == d && q%2 == 1:
		q++
	}
	if neg {
		return -q
	}
	return q
}
