// Package certnum generates certificate numbers and verification codes.
//
// Certificate numbers are human-readable and sequential within a calendar
// month: <prefix>-<year>-<month>-<seq>, e.g. "CERT-2026-08-0042". The
// sequence is allocated optimistically: the generator reads the current
// maximum and proposes the next value; the database uniqueness constraint
// is the real arbiter, and the caller retries on a collision.
//
// Verification codes are opaque random strings drawn from an alphabet
// without lookalike characters (no 0/O, 1/I/L).
package certnum

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/attestly/certify-backend/internal/domain"
)

// codeAlphabet excludes characters that are ambiguous when read aloud or
// retyped from a printed certificate.
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

type sequenceSource interface {
	MaxSequence(ctx context.Context, prefix string, year, month int) (int, error)
}

type codeIndex interface {
	ExistsByVerificationCode(ctx context.Context, code string) (bool, error)
}

// Generator produces certificate numbers and verification codes.
type Generator struct {
	sequences sequenceSource
	codes     codeIndex

	prefix      string
	codeLength  int
	maxAttempts int
}

// NewGenerator creates a Generator. prefix names the number namespace,
// codeLength the verification code length, maxAttempts the retry budget for
// code collisions.
func NewGenerator(sequences sequenceSource, codes codeIndex, prefix string, codeLength, maxAttempts int) *Generator {
	return &Generator{
		sequences:   sequences,
		codes:       codes,
		prefix:      prefix,
		codeLength:  codeLength,
		maxAttempts: maxAttempts,
	}
}

// NextNumber proposes the next certificate number for the month containing
// now. The proposal is not reserved: persisting it may still collide with a
// concurrent issuance, in which case the caller calls NextNumber again.
func (g *Generator) NextNumber(ctx context.Context, now time.Time) (domain.CertificateNumber, error) {
	year, month := now.UTC().Year(), int(now.UTC().Month())

	seq, err := g.sequences.MaxSequence(ctx, g.prefix, year, month)
	if err != nil {
		return domain.CertificateNumber{}, fmt.Errorf("next certificate number: %w", err)
	}

	n := domain.CertificateNumber{
		Prefix: g.prefix,
		Year:   year,
		Month:  month,
		Seq:    seq + 1,
	}
	n.Rendered = fmt.Sprintf("%s-%d-%02d-%04d", n.Prefix, n.Year, n.Month, n.Seq)
	return n, nil
}

// NewVerificationCode returns a fresh random code that is not yet in use.
// After maxAttempts collisions it gives up with domain.ErrResourceExhausted;
// with a reasonable code length that practically never happens.
func (g *Generator) NewVerificationCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := randomCode(g.codeLength)
		if err != nil {
			return "", fmt.Errorf("generate verification code: %w", err)
		}

		exists, err := g.codes.ExistsByVerificationCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check verification code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}

	return "", fmt.Errorf("verification code space exhausted after %d attempts: %w",
		g.maxAttempts, domain.ErrResourceExhausted)
}

func randomCode(length int) (string, error) {
	out := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(codeAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		out[i] = codeAlphabet[idx.Int64()]
	}
	return string(out), nil
}
