package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/logger"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/importer"
)

func TestPermanentEventErrorClassification(t *testing.T) {
	permanent := []error{
		ErrNoMembers,
		ErrUnknownTrigger,
		importer.ErrJobNotFound,
		fmt.Errorf("resolving members: %w", importer.ErrJobNotFound),
	}
	for _, err := range permanent {
		if !permanentEventError(err) {
			t.Fatalf("expected %v to be permanent", err)
		}
	}

	transient := []error{
		errors.New("dial tcp: connection refused"),
		context.DeadlineExceeded,
	}
	for _, err := range transient {
		if permanentEventError(err) {
			t.Fatalf("expected %v to be retried", err)
		}
	}
}

func TestDropIfPermanent(t *testing.T) {
	logger.Init()
	svc := &Service{}
	event := models.Event{ID: "evt-1", Type: importer.EventImportComplete}

	if err := svc.dropIfPermanent(event, nil); err != nil {
		t.Fatalf("expected nil passthrough, got %v", err)
	}
	if err := svc.dropIfPermanent(event, importer.ErrJobNotFound); err != nil {
		t.Fatalf("expected permanent failure dropped, got %v", err)
	}
	transient := errors.New("storage unavailable")
	if err := svc.dropIfPermanent(event, transient); !errors.Is(err, transient) {
		t.Fatalf("expected transient failure returned for retry, got %v", err)
	}
}

func TestHandleImportEventIgnoresOtherTypes(t *testing.T) {
	logger.Init()
	svc := &Service{}
	event := models.Event{ID: "evt-2", Type: "something.else"}
	if err := svc.HandleImportEvent(context.Background(), event); err != nil {
		t.Fatalf("expected foreign event types ignored, got %v", err)
	}
}

func TestHandleImportEventEmptyMemberList(t *testing.T) {
	logger.Init()
	svc := &Service{}
	event := models.Event{
		ID:   "evt-3",
		Type: importer.EventImportComplete,
		Data: map[string]interface{}{"member_ids": []interface{}{}},
	}
	if err := svc.HandleImportEvent(context.Background(), event); err != nil {
		t.Fatalf("expected empty import event to be a no-op, got %v", err)
	}
}
