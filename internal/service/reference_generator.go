package service

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// WithdrawalReferencePrefix marks payout references issued by this service.
const WithdrawalReferencePrefix = "WDR-"

// ULIDReferenceGenerator implements ports.ReferenceGenerator.
// References sort by issue time and are unique within a process even when
// issued in the same millisecond.
type ULIDReferenceGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewULIDReferenceGenerator() *ULIDReferenceGenerator {
	return &ULIDReferenceGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ULIDReferenceGenerator) NewWithdrawalReference() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return WithdrawalReferencePrefix + ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}
