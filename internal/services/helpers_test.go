package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/rentdesk/internal/database"
	"github.com/example/rentdesk/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func insertAccount(t *testing.T, db *gorm.DB, phone string, mutate ...func(*models.Account)) *models.Account {
	t.Helper()
	account := &models.Account{Name: "Landlord " + phone, Phone: &phone}
	for _, m := range mutate {
		m(account)
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("insert account: %v", err)
	}
	return account
}

func insertProperties(t *testing.T, db *gorm.DB, accountID uuid.UUID, n int, deleted bool) {
	t.Helper()
	for i := 0; i < n; i++ {
		property := models.Property{
			AccountID:  accountID,
			Name:       "Flat",
			Address:    "MG Road",
			City:       "Pune",
			State:      "MH",
			ZipCode:    "411001",
			Type:       "residential",
			RentAmount: 1500000,
			Status:     "available",
			IsDeleted:  deleted,
		}
		if err := db.Create(&property).Error; err != nil {
			t.Fatalf("insert property: %v", err)
		}
	}
}

func reloadAccount(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Account {
	t.Helper()
	var account models.Account
	if err := db.First(&account, "id = ?", id).Error; err != nil {
		t.Fatalf("reload account: %v", err)
	}
	return &account
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (n *recordingNotifier) NotifyOTP(_ context.Context, _ *models.Account, code string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.codes = append(n.codes, code)
	return nil
}

func (n *recordingNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.codes) == 0 {
		return ""
	}
	return n.codes[len(n.codes)-1]
}

type stubTokens struct{}

func (stubTokens) Issue(accountID uuid.UUID) (string, error) {
	return "session-" + accountID.String(), nil
}

func (stubTokens) IssueChallenge(accountID uuid.UUID, _ time.Time) (string, error) {
	return "challenge-" + accountID.String(), nil
}

func (stubTokens) VerifyChallengeToken(token string) (uuid.UUID, error) {
	switch {
	case token == "expired":
		return uuid.Nil, jwt.ErrTokenExpired
	case strings.HasPrefix(token, "challenge-"):
		return uuid.Parse(strings.TrimPrefix(token, "challenge-"))
	}
	return uuid.Nil, jwt.ErrTokenMalformed
}

func fixedCodes(codes ...string) CodeGenerator {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}
