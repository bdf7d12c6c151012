package certnum

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/attestly/certify-backend/internal/domain"
)

type sequenceSourceMock struct {
	MaxSequenceFunc func(ctx context.Context, prefix string, year, month int) (int, error)
}

func (m *sequenceSourceMock) MaxSequence(ctx context.Context, prefix string, year, month int) (int, error) {
	return m.MaxSequenceFunc(ctx, prefix, year, month)
}

type codeIndexMock struct {
	ExistsFunc func(ctx context.Context, code string) (bool, error)
}

func (m *codeIndexMock) ExistsByVerificationCode(ctx context.Context, code string) (bool, error) {
	return m.ExistsFunc(ctx, code)
}

func TestGenerator_NextNumber_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		now      time.Time
		maxSeq   int
		want     string
		wantSeq  int
	}{
		{
			name:    "first of the month",
			now:     time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC),
			maxSeq:  0,
			want:    "CERT-2026-08-0001",
			wantSeq: 1,
		},
		{
			name:    "sequence continues",
			now:     time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
			maxSeq:  41,
			want:    "CERT-2026-08-0042",
			wantSeq: 42,
		},
		{
			name:    "sequence wider than four digits",
			now:     time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
			maxSeq:  12344,
			want:    "CERT-2026-12-12345",
			wantSeq: 12345,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			seqs := &sequenceSourceMock{
				MaxSequenceFunc: func(_ context.Context, prefix string, year, month int) (int, error) {
					if prefix != "CERT" {
						t.Errorf("prefix mismatch: got %s", prefix)
					}
					if year != tt.now.Year() || month != int(tt.now.Month()) {
						t.Errorf("segment mismatch: got %d-%d", year, month)
					}
					return tt.maxSeq, nil
				},
			}

			g := NewGenerator(seqs, nil, "CERT", 10, 10)
			n, err := g.NextNumber(context.Background(), tt.now)
			if err != nil {
				t.Fatalf("NextNumber: unexpected error: %v", err)
			}
			if n.Rendered != tt.want {
				t.Errorf("Rendered mismatch: got %s, want %s", n.Rendered, tt.want)
			}
			if n.Seq != tt.wantSeq {
				t.Errorf("Seq mismatch: got %d, want %d", n.Seq, tt.wantSeq)
			}
		})
	}
}

func TestGenerator_NextNumber_UsesUTCMonth(t *testing.T) {
	t.Parallel()

	// Local time is already September, UTC still August.
	loc := time.FixedZone("UTC+14", 14*3600)
	now := time.Date(2026, time.September, 1, 2, 0, 0, 0, loc)

	seqs := &sequenceSourceMock{
		MaxSequenceFunc: func(_ context.Context, _ string, year, month int) (int, error) {
			if year != 2026 || month != 8 {
				t.Errorf("expected UTC segment 2026-08, got %d-%02d", year, month)
			}
			return 0, nil
		},
	}

	g := NewGenerator(seqs, nil, "CERT", 10, 10)
	if _, err := g.NextNumber(context.Background(), now); err != nil {
		t.Fatalf("NextNumber: unexpected error: %v", err)
	}
}

func TestGenerator_NewVerificationCode(t *testing.T) {
	t.Parallel()

	codes := &codeIndexMock{
		ExistsFunc: func(_ context.Context, _ string) (bool, error) { return false, nil },
	}

	g := NewGenerator(nil, codes, "CERT", 10, 10)
	code, err := g.NewVerificationCode(context.Background())
	if err != nil {
		t.Fatalf("NewVerificationCode: unexpected error: %v", err)
	}

	if len(code) != 10 {
		t.Errorf("length mismatch: got %d, want 10", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			t.Errorf("character %q outside the code alphabet", r)
		}
	}
}

func TestGenerator_NewVerificationCode_RetriesCollisions(t *testing.T) {
	t.Parallel()

	calls := 0
	codes := &codeIndexMock{
		ExistsFunc: func(_ context.Context, _ string) (bool, error) {
			calls++
			return calls < 3, nil // first two codes are taken
		},
	}

	g := NewGenerator(nil, codes, "CERT", 10, 10)
	code, err := g.NewVerificationCode(context.Background())
	if err != nil {
		t.Fatalf("NewVerificationCode: unexpected error: %v", err)
	}
	if code == "" {
		t.Error("expected a non-empty code")
	}
	if calls != 3 {
		t.Errorf("expected 3 uniqueness checks, got %d", calls)
	}
}

func TestGenerator_NewVerificationCode_Exhausted(t *testing.T) {
	t.Parallel()

	calls := 0
	codes := &codeIndexMock{
		ExistsFunc: func(_ context.Context, _ string) (bool, error) {
			calls++
			return true, nil // every code is taken
		},
	}

	g := NewGenerator(nil, codes, "CERT", 10, 4)
	_, err := g.NewVerificationCode(context.Background())
	if !errors.Is(err, domain.ErrResourceExhausted) {
		t.Fatalf("expected ErrResourceExhausted, got: %v", err)
	}
	if calls != 4 {
		t.Errorf("expected exactly 4 attempts, got %d", calls)
	}
}

func TestGenerator_NewVerificationCode_CheckError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("connection lost")
	codes := &codeIndexMock{
		ExistsFunc: func(_ context.Context, _ string) (bool, error) { return false, wantErr },
	}

	g := NewGenerator(nil, codes, "CERT", 10, 10)
	_, err := g.NewVerificationCode(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped repo error, got: %v", err)
	}
}
