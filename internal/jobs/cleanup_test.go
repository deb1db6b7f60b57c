package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/foyerhq/foyer-server/internal/model"
)

type mockSessionRepo struct {
	deleteExpiredCount int64
	deleteExpiredCalls int
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	m.deleteExpiredCalls++
	return m.deleteExpiredCount, nil
}

type mockMagicLinkRepo struct {
	deleteExpiredCount int64
	deleteExpiredCalls int
}

func (m *mockMagicLinkRepo) Create(ctx context.Context, params model.CreateMagicLinkTokenParams) (*model.MagicLinkToken, error) {
	return nil, nil
}

func (m *mockMagicLinkRepo) Consume(ctx context.Context, tokenHash string) (*model.MagicLinkToken, error) {
	return nil, nil
}

func (m *mockMagicLinkRepo) DeleteExpired(ctx context.Context) (int64, error) {
	m.deleteExpiredCalls++
	return m.deleteExpiredCount, nil
}

func TestCleanupJob(t *testing.T) {
	t.Run("creates job with correct interval", func(t *testing.T) {
		job := NewCleanupJob(nil, nil, 5*time.Minute)

		assert.NotNil(t, job)
		assert.Equal(t, 5*time.Minute, job.interval)
	})

	t.Run("starts and stops without panic", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{}
		magicLinkRepo := &mockMagicLinkRepo{}

		job := NewCleanupJob(sessionRepo, magicLinkRepo, 100*time.Millisecond)

		job.Start()
		time.Sleep(50 * time.Millisecond)
		job.Stop()
	})

	t.Run("runs cleanup on start", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{deleteExpiredCount: 2}
		magicLinkRepo := &mockMagicLinkRepo{deleteExpiredCount: 3}

		job := NewCleanupJob(sessionRepo, magicLinkRepo, 1*time.Hour)

		job.Start()
		time.Sleep(10 * time.Millisecond)
		job.Stop()

		assert.GreaterOrEqual(t, sessionRepo.deleteExpiredCalls, 1)
		assert.GreaterOrEqual(t, magicLinkRepo.deleteExpiredCalls, 1)
	})
}
