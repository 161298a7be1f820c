package asset

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInsufficientAvailable = errors.New("insufficient available balance")
	ErrInsufficientFrozen    = errors.New("insufficient frozen balance")
)

// Kind names one asset of the traded pair, e.g. "USD" or "AAPL".
type Kind string

// TransferMode selects which bucket the debit side is taken from. The
// credit side always lands in the destination's available bucket.
type TransferMode int

const (
	FrozenToAvailable TransferMode = iota
	AvailableToAvailable
)

type key struct {
	user string
	kind Kind
}

// balance is one (user, asset) row. Both buckets stay non-negative;
// available+frozen only grows via Recharge and only shrinks via a
// transfer out.
type balance struct {
	mu        sync.Mutex
	available int64
	frozen    int64
}

// Ledger owns every balance row. Callers never obtain a mutable
// reference to a row; all mutation goes through the atomic operations
// below, which serialize per (user, asset) key and run concurrently
// across distinct keys.
type Ledger struct {
	mu   sync.RWMutex
	rows map[key]*balance
}

func NewLedger() *Ledger {
	return &Ledger{rows: make(map[key]*balance)}
}

// row returns the balance for (user, kind), creating an implicit zero
// row on first reference.
func (l *Ledger) row(user string, kind Kind) *balance {
	k := key{user, kind}

	l.mu.RLock()
	b, ok := l.rows[k]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.rows[k]; !ok {
		b = &balance{}
		l.rows[k] = b
	}
	return b
}

// Recharge credits amount into the user's available bucket.
func (l *Ledger) Recharge(user string, kind Kind, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("recharge %d: %w", amount, ErrInvalidAmount)
	}
	b := l.row(user, kind)
	b.mu.Lock()
	b.available += amount
	b.mu.Unlock()
	return nil
}

// TryFreeze moves amount from available to frozen, failing without any
// mutation if the available bucket cannot cover it.
func (l *Ledger) TryFreeze(user string, kind Kind, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("freeze %d: %w", amount, ErrInvalidAmount)
	}
	b := l.row(user, kind)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.available < amount {
		return fmt.Errorf("freeze %d %s for %s, available %d: %w",
			amount, kind, user, b.available, ErrInsufficientAvailable)
	}
	b.available -= amount
	b.frozen += amount
	return nil
}

// Unfreeze moves amount from frozen back to available.
func (l *Ledger) Unfreeze(user string, kind Kind, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("unfreeze %d: %w", amount, ErrInvalidAmount)
	}
	b := l.row(user, kind)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen < amount {
		return fmt.Errorf("unfreeze %d %s for %s, frozen %d: %w",
			amount, kind, user, b.frozen, ErrInsufficientFrozen)
	}
	b.frozen -= amount
	b.available += amount
	return nil
}

// Transfer debits amount from the source bucket selected by mode and
// credits it into the destination's available bucket. The debit and
// credit are atomic with respect to any concurrent observer of either
// row.
func (l *Ledger) Transfer(mode TransferMode, from, to string, kind Kind, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer %d: %w", amount, ErrInvalidAmount)
	}

	src := l.row(from, kind)
	dst := l.row(to, kind)
	lockPair(key{from, kind}, key{to, kind}, src, dst)
	defer unlockPair(src, dst)

	switch mode {
	case FrozenToAvailable:
		if src.frozen < amount {
			return fmt.Errorf("transfer %d %s from %s to %s, frozen %d: %w",
				amount, kind, from, to, src.frozen, ErrInsufficientFrozen)
		}
		src.frozen -= amount
	case AvailableToAvailable:
		if src.available < amount {
			return fmt.Errorf("transfer %d %s from %s to %s, available %d: %w",
				amount, kind, from, to, src.available, ErrInsufficientAvailable)
		}
		src.available -= amount
	default:
		return fmt.Errorf("transfer mode %d: %w", mode, ErrInvalidAmount)
	}

	dst.available += amount
	return nil
}

// Balance reports the current buckets for (user, kind).
func (l *Ledger) Balance(user string, kind Kind) (available, frozen int64) {
	b := l.row(user, kind)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.available, b.frozen
}

// TotalIssued sums available+frozen across all users for one asset
// kind. Outside of Recharge the total is conserved by every other
// operation.
func (l *Ledger) TotalIssued(kind Kind) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total int64
	for k, b := range l.rows {
		if k.kind != kind {
			continue
		}
		b.mu.Lock()
		total += b.available + b.frozen
		b.mu.Unlock()
	}
	return total
}

// lockPair acquires both row locks in a deterministic key order so two
// opposed transfers on the same pair of rows cannot deadlock.
func lockPair(ka, kb key, a, b *balance) {
	if a == b {
		a.mu.Lock()
		return
	}
	if less(ka, kb) {
		a.mu.Lock()
		b.mu.Lock()
	} else {
		b.mu.Lock()
		a.mu.Lock()
	}
}

func unlockPair(a, b *balance) {
	a.mu.Unlock()
	if a != b {
		b.mu.Unlock()
	}
}

func less(a, b key) bool {
	if a.user != b.user {
		return a.user < b.user
	}
	return a.kind < b.kind
}
