package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"shopfront/internal/config"
	"shopfront/internal/domain"
	"shopfront/internal/mail"
	"shopfront/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserRepo) addAdmin(email string) *domain.User {
	u := &domain.User{ID: uuid.New(), Email: email, Role: "admin"}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) ListAdmins(ctx context.Context) ([]*domain.User, error) {
	var admins []*domain.User
	for _, u := range f.users {
		if u.IsAdmin() {
			admins = append(admins, u)
		}
	}
	return admins, nil
}

type recordingMailer struct {
	mu         sync.Mutex
	recipients []string
	reports    []mail.LowStockReport
}

func (m *recordingMailer) SendLowStockAlert(recipient string, report mail.LowStockReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipients = append(m.recipients, recipient)
	m.reports = append(m.reports, report)
	return nil
}

func newLowStockFixture(t *testing.T) (LowStockService, *fakeProductRepo, *fakeUserRepo, *recordingMailer, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	products := newFakeProductRepo()
	users := newFakeUserRepo()
	mailer := &recordingMailer{}
	shop := config.ShopConfig{LowStockThreshold: 10, CriticalStockThreshold: 5}

	svc := NewLowStockService(products, users, client, mailer, shop, zap.NewNop())
	return svc, products, users, mailer, mr
}

func TestLowStock_NoLowProductsIsNoop(t *testing.T) {
	svc, products, users, mailer, mr := newLowStockFixture(t)
	products.add("Plenty", 100, "1.00")
	users.addAdmin("admin@example.com")

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(mailer.recipients) != 0 {
		t.Error("no mail should be sent when nothing is low")
	}
	if mr.Exists("low_stock_notification_sent") {
		t.Error("flag must not be set when nothing is low")
	}
}

func TestLowStock_NotifiesEveryAdminOnce(t *testing.T) {
	svc, products, users, mailer, mr := newLowStockFixture(t)
	products.add("Low", 3, "1.00")
	products.add("Critical", 1, "1.00")
	products.add("Fine", 50, "1.00")
	users.addAdmin("first@example.com")
	users.addAdmin("second@example.com")

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(mailer.recipients) != 2 {
		t.Fatalf("expected 2 recipients, got %d", len(mailer.recipients))
	}

	report := mailer.reports[0]
	if len(report.Products) != 2 {
		t.Errorf("expected 2 low products in the report, got %d", len(report.Products))
	}
	if report.CriticalCount != 2 {
		// Both 3 and 1 are at or below the critical threshold of 5
		t.Errorf("expected critical count 2, got %d", report.CriticalCount)
	}

	if !mr.Exists("low_stock_notification_sent") {
		t.Error("flag must be set after sending")
	}

	// A second run inside the hour is suppressed by the flag
	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if len(mailer.recipients) != 2 {
		t.Errorf("second run must not send again, got %d recipients", len(mailer.recipients))
	}
}

func TestLowStock_FlagExpiryReenablesNotifications(t *testing.T) {
	svc, products, users, mailer, mr := newLowStockFixture(t)
	products.add("Low", 2, "1.00")
	users.addAdmin("admin@example.com")

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(mailer.recipients) != 1 {
		t.Fatalf("expected 1 send, got %d", len(mailer.recipients))
	}

	mr.FastForward(time.Hour + time.Minute)

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run after expiry failed: %v", err)
	}
	if len(mailer.recipients) != 2 {
		t.Errorf("expected a second send after the flag expired, got %d", len(mailer.recipients))
	}
}

func TestLowStock_NoAdminsSkipsFlag(t *testing.T) {
	svc, products, _, mailer, mr := newLowStockFixture(t)
	products.add("Low", 2, "1.00")

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(mailer.recipients) != 0 {
		t.Error("no recipients means no sends")
	}
	// Without recipients nothing was notified, so the window must not open
	if mr.Exists("low_stock_notification_sent") {
		t.Error("flag must not be set when there are no admins")
	}
}
