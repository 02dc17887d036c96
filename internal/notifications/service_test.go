package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stakeline/stakeline-backend/pkg/db/models"
	"github.com/stakeline/stakeline-backend/pkg/enums"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
	"github.com/stakeline/stakeline-backend/pkg/pagination"
	"gorm.io/gorm"
)

type fakeNotificationsRepo struct {
	created    []models.Notification
	listRows   []models.Notification
	markResult notificationMarkResult
	markedAll  int64
}

func (f *fakeNotificationsRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeNotificationsRepo) Create(_ context.Context, notification *models.Notification) error {
	f.created = append(f.created, *notification)
	return nil
}

func (f *fakeNotificationsRepo) List(_ context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	return f.listRows, nil, nil
}

func (f *fakeNotificationsRepo) MarkRead(_ context.Context, _, _ uuid.UUID, _ time.Time) (notificationMarkResult, error) {
	return f.markResult, nil
}

func (f *fakeNotificationsRepo) MarkAllRead(_ context.Context, _ uuid.UUID, _ time.Time) (int64, error) {
	return f.markedAll, nil
}

func TestNotifyCreatesRow(t *testing.T) {
	repo := &fakeNotificationsRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	userID := uuid.New()
	err = svc.Notify(context.Background(), NotifyInput{
		UserID:  userID,
		Type:    enums.NotificationTypeBetWon,
		Title:   "Bet Won!",
		Message: "Your new balance is 0.011 BTC.",
		Payload: map[string]string{"balance": "0.011"},
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(repo.created))
	}
	created := repo.created[0]
	if created.UserID != userID || created.Type != enums.NotificationTypeBetWon {
		t.Fatalf("unexpected notification %+v", created)
	}
	if len(created.Payload) == 0 {
		t.Fatal("payload not encoded")
	}
}

func TestNotifyRejectsInvalidType(t *testing.T) {
	svc, _ := NewService(&fakeNotificationsRepo{})
	err := svc.Notify(context.Background(), NotifyInput{
		UserID:  uuid.New(),
		Type:    enums.NotificationType("bogus"),
		Title:   "t",
		Message: "m",
	})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkReadNotFound(t *testing.T) {
	repo := &fakeNotificationsRepo{markResult: notificationMarkResult{Found: false}}
	svc, _ := NewService(repo)

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestListRequiresUser(t *testing.T) {
	svc, _ := NewService(&fakeNotificationsRepo{})
	if _, err := svc.List(context.Background(), ListParams{}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
