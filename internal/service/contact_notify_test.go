package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/notify"
	"github.com/visualizer/internal/service"
	"github.com/visualizer/internal/service/mocks"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openContactDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(fmt.Sprintf("file:contact-notify-%d?mode=memory&cache=shared", time.Now().UnixNano()), logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func TestContactSubmitNotifies(t *testing.T) {
	gdb := openContactDB(t)
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockContactNotifier(ctrl)
	notifier.EXPECT().
		NotifyContact(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event notify.ContactEvent) error {
			if event.ID == 0 || event.Email != "client@example.com" {
				t.Errorf("unexpected event %+v", event)
			}
			return nil
		})

	svc := service.NewContactService(gdb, notifier, nil)
	if _, err := svc.Submit(context.Background(), service.ContactInput{
		Name: "Client", Email: "client@example.com", Message: "Hello",
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
}

func TestContactSubmitSucceedsWhenNotifyFails(t *testing.T) {
	gdb := openContactDB(t)
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockContactNotifier(ctrl)
	notifier.EXPECT().
		NotifyContact(gomock.Any(), gomock.Any()).
		Return(errors.New("broker down"))

	svc := service.NewContactService(gdb, notifier, nil)
	if _, err := svc.Submit(context.Background(), service.ContactInput{
		Name: "Client", Email: "client@example.com", Message: "Hello",
	}); err != nil {
		t.Fatalf("expected submit to succeed, got %v", err)
	}

	rows, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 stored contact, got %d", len(rows))
	}
}

func TestContactSubmitSkipsNotifyOnInvalidInput(t *testing.T) {
	gdb := openContactDB(t)
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockContactNotifier(ctrl)

	svc := service.NewContactService(gdb, notifier, nil)
	if _, err := svc.Submit(context.Background(), service.ContactInput{Name: "x"}); err == nil {
		t.Fatal("expected validation error")
	}
}
