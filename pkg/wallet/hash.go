package wallet

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/shopspring/decimal"
)

// ThaiTime is the fixed offset used for transaction timestamps and
// reporting periods.
var ThaiTime = time.FixedZone("ICT", 7*60*60)

// HashTransaction fingerprints a money movement at a given instant. The
// instant makes the hash unique per call; it correlates one transfer across
// services and is not a dedupe key across retries.
func HashTransaction(at time.Time, bankAccountNumber, mobileNumber string, amount decimal.Decimal, apiKey string) string {
	plaintext := at.In(ThaiTime).Format(time.RFC3339Nano) + bankAccountNumber + mobileNumber + amount.String() + apiKey
	sum := md5.Sum([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// HashCashback fingerprints a customer's cashback for a period. It carries
// no timestamp, so it is stable across reschedules of the same period.
func HashCashback(mobileNumber, dateStart, dateEnd string) string {
	sum := md5.Sum([]byte(mobileNumber + dateStart + dateEnd))
	return hex.EncodeToString(sum[:])
}

// Hasher stamps transaction hashes with the current time and API key.
type Hasher struct {
	apiKey string
	now    func() time.Time
}

// NewHasher creates a Hasher salted with apiKey.
func NewHasher(apiKey string) *Hasher {
	return &Hasher{apiKey: apiKey, now: time.Now}
}

// NewHasherWithClock creates a Hasher reading time from now.
func NewHasherWithClock(apiKey string, now func() time.Time) *Hasher {
	return &Hasher{apiKey: apiKey, now: now}
}

// Transaction returns a fresh correlation hash and the instant it encodes.
func (h *Hasher) Transaction(bankAccountNumber, mobileNumber string, amount decimal.Decimal) (string, time.Time) {
	at := h.now()
	return HashTransaction(at, bankAccountNumber, mobileNumber, amount, h.apiKey), at
}
