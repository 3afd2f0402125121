package stepup

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/wlhuang/riskgate/internal/store"
	"github.com/wlhuang/riskgate/params"
)

// PendingChallenge is the ephemeral state of one issued step-up code, keyed by
// the caller's session ID. It is read-once on success and must never verify
// after ExpiresAt regardless of store retention.
type PendingChallenge struct {
	ID        string    `redis:"id"`
	Subject   string    `redis:"subject"`
	Code      string    `redis:"code"`
	IssuedAt  time.Time `redis:"issued_at"`
	ExpiresAt time.Time `redis:"expires_at"`
}

func (c *PendingChallenge) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

type challengeStore struct {
	store.Store[PendingChallenge]
}

func newChallengeStore(storage store.Storage) *challengeStore {
	return &challengeStore{
		Store: store.New[PendingChallenge](storage, params.ChallengeKeyPrefix),
	}
}

// generateOTP returns a uniformly random numeric code of the given length with
// a non-zero leading digit, e.g. 100000..999999 for six digits.
func generateOTP(digits int) (string, error) {
	low := int64(1)
	for i := 1; i < digits; i++ {
		low *= 10
	}
	n, err := rand.Int(rand.Reader, big.NewInt(low*9))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(low+n.Int64(), 10), nil
}
