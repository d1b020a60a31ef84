package wallet

import "github.com/shopspring/decimal"

// DefaultEndpoint is the compiled-in node URL used until one is persisted.
const DefaultEndpoint = "https://api.distordia.com"

const (
	// defaultAccountName is the account that always pays ancillary fees,
	// independent of which account funds a payment.
	defaultAccountName = "default"

	// feeCollectionAddress receives the service fee on every transfer.
	feeCollectionAddress = "8Csmb3RP227N1NHJDH8QZRjZjobe4udaygp7aNv5VLPWDvLDVD7"

	// credentialScope is the secret-store service identifier for the saved
	// login credentials.
	credentialScope = "com.distordia.wallet.credentials"

	tokenSentinelZero   = "0"
	tokenSentinelNative = "NXS"

	pinMinDigits = 4
	pinMaxDigits = 8
)

// Fee schedule. The native service fee scales with the amount and is floored
// so dust transfers still pay something; non-native tokens pay a flat fee
// because their amounts are not comparable to native fee economics.
var (
	networkFee       = decimal.RequireFromString("0.01")
	serviceFeeFlat   = decimal.RequireFromString("0.01")
	nativeFeeRate    = decimal.RequireFromString("0.001")
	minimumNativeFee = decimal.RequireFromString("0.000001")
)

const (
	operationInitialize    = "initialize"
	operationRegister      = "register"
	operationLogin         = "login"
	operationUnlock        = "unlock"
	operationLock          = "lock"
	operationLogout        = "logout"
	operationBalance       = "balance"
	operationAccounts      = "accounts"
	operationTransactions  = "transactions"
	operationSend          = "send"
	operationCreateAccount = "create_account"
	operationEndpoint      = "endpoint"
	operationCredentials   = "credentials"

	operationStatusOK    = "ok"
	operationStatusError = "error"
)
