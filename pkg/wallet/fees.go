package wallet

import "github.com/shopspring/decimal"

// FeeQuote breaks down the ancillary fees charged on top of a transfer. Only
// the service fee is debited by this client; the network fee is taken by the
// node itself but still counts toward the default-account cover check.
type FeeQuote struct {
	ServiceFee decimal.Decimal
	NetworkFee decimal.Decimal
}

// Total returns the ancillary fees the default account must cover.
func (quote FeeQuote) Total() decimal.Decimal {
	return quote.ServiceFee.Add(quote.NetworkFee)
}

// QuoteFees computes the fee schedule for a transfer of amount in the given
// token. Native transfers pay a rate-scaled service fee floored at a minimum;
// non-native transfers pay a flat service fee regardless of amount.
func QuoteFees(amount decimal.Decimal, token string) FeeQuote {
	if IsNativeToken(token) {
		serviceFee := amount.Mul(nativeFeeRate)
		if serviceFee.LessThan(minimumNativeFee) {
			serviceFee = minimumNativeFee
		}
		return FeeQuote{ServiceFee: serviceFee, NetworkFee: networkFee}
	}
	return FeeQuote{ServiceFee: serviceFeeFlat, NetworkFee: networkFee}
}

// IsNativeToken reports whether a token identifier names the chain's base
// currency. The node uses "0" and "NXS" as sentinels and may omit the field.
func IsNativeToken(token string) bool {
	return token == tokenSentinelZero || token == tokenSentinelNative || token == ""
}
