package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/clubcouncil/registration-engine/internal/core/domain"
	"github.com/clubcouncil/registration-engine/internal/core/ports/mocks"
	"github.com/clubcouncil/registration-engine/internal/core/services"
)

func pendingMerchRegistration(eventID uuid.UUID) *domain.Registration {
	return &domain.Registration{
		ID:            uuid.New(),
		EventID:       eventID,
		ParticipantID: uuid.New(),
		TicketID:      "TICK-A1B2C3D4",
		Status:        domain.RegistrationPending,
		PaymentProof:  "upi-ref-1142",
		Items: []domain.PurchasedItem{
			{ItemName: "Shirt", Size: "M", Quantity: 1, Price: 350},
		},
		CreatedAt: time.Now().Add(-time.Hour),
	}
}

func TestResolve_Approve_Success(t *testing.T) {
	mockEventRepo := mocks.NewEventRepository(t)
	mockRegRepo := mocks.NewRegistrationRepository(t)
	mockInventory := mocks.NewInventoryRepository(t)
	mockNotifier := mocks.NewNotifier(t)
	db, mockRedis := redismock.NewClientMock()

	service := services.NewApprovalService(mockEventRepo, mockRegRepo, mockInventory, mockNotifier, db)

	ctx := context.Background()
	event := merchEvent(150, 5)
	reg := pendingMerchRegistration(event.ID)
	reservation := domain.StockRequest([]domain.ItemRequest{{ItemName: "Shirt", Size: "M", Quantity: 1}})

	mockRegRepo.On("GetByID", ctx, reg.ID).Return(reg, nil)
	mockEventRepo.On("GetByID", ctx, event.ID).Return(event, nil)
	mockInventory.On("TryReserve", ctx, event.ID, reg.ID, reservation).Return(nil)
	mockRegRepo.On("Finalize", ctx, reg.ID, "QR-TICK-A1B2C3D4").Return(true, nil)
	mockNotifier.On("NotifyTicketIssued", ctx, mock.AnythingOfType("domain.TicketNotification")).Return(nil)
	mockRedis.ExpectDel(fmt.Sprintf("availability:%s", event.ID)).SetVal(1)

	resolved, err := service.Resolve(ctx, reg.ID, event.OrganizerID, domain.DecisionApprove)

	assert.NoError(t, err)
	if assert.NotNil(t, resolved) {
		assert.Equal(t, domain.RegistrationSuccessful, resolved.Status)
		assert.Equal(t, "QR-TICK-A1B2C3D4", resolved.CheckInCode)
	}

	if err := mockRedis.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestResolve_Approve_OutOfStockLeavesPending(t *testing.T) {
	mockEventRepo := mocks.NewEventRepository(t)
	mockRegRepo := mocks.NewRegistrationRepository(t)
	mockInventory := mocks.NewInventoryRepository(t)
	mockNotifier := mocks.NewNotifier(t)
	db, _ := redismock.NewClientMock()

	service := services.NewApprovalService(mockEventRepo, mockRegRepo, mockInventory, mockNotifier, db)

	ctx := context.Background()
	event := merchEvent(150, 0)
	reg := pendingMerchRegistration(event.ID)

	mockRegRepo.On("GetByID", ctx, reg.ID).Return(reg, nil)
	mockEventRepo.On("GetByID", ctx, event.ID).Return(event, nil)
	mockInventory.On("TryReserve", ctx, event.ID, reg.ID, mock.AnythingOfType("domain.ReservationRequest")).
		Return(&domain.OutOfStockError{ItemName: "Shirt", Size: "M"})

	resolved, err := service.Resolve(ctx, reg.ID, event.OrganizerID, domain.DecisionApprove)

	assert.Nil(t, resolved)
	var outOfStock *domain.OutOfStockError
	assert.ErrorAs(t, err, &outOfStock)
	mockRegRepo.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything, mock.Anything)
	mockNotifier.AssertNotCalled(t, "NotifyTicketIssued", mock.Anything, mock.Anything)
}

func TestResolve_Approve_ReleasesWhenFinalizeLosesRace(t *testing.T) {
	mockEventRepo := mocks.NewEventRepository(t)
	mockRegRepo := mocks.NewRegistrationRepository(t)
	mockInventory := mocks.NewInventoryRepository(t)
	mockNotifier := mocks.NewNotifier(t)
	db, _ := redismock.NewClientMock()

	service := services.NewApprovalService(mockEventRepo, mockRegRepo, mockInventory, mockNotifier, db)

	ctx := context.Background()
	event := merchEvent(150, 5)
	reg := pendingMerchRegistration(event.ID)
	reservation := domain.StockRequest([]domain.ItemRequest{{ItemName: "Shirt", Size: "M", Quantity: 1}})

	mockRegRepo.On("GetByID", ctx, reg.ID).Return(reg, nil)
	mockEventRepo.On("GetByID", ctx, event.ID).Return(event, nil)
	mockInventory.On("TryReserve", ctx, event.ID, reg.ID, reservation).Return(nil)
	mockRegRepo.On("Finalize", ctx, reg.ID, "QR-TICK-A1B2C3D4").Return(false, nil)
	mockInventory.On("Release", mock.Anything, event.ID, reg.ID, reservation).Return(nil)

	resolved, err := service.Resolve(ctx, reg.ID, event.OrganizerID, domain.DecisionApprove)

	assert.Nil(t, resolved)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	mockInventory.AssertCalled(t, "Release", mock.Anything, event.ID, reg.ID, reservation)
}

func TestResolve_Reject(t *testing.T) {
	mockEventRepo := mocks.NewEventRepository(t)
	mockRegRepo := mocks.NewRegistrationRepository(t)
	mockInventory := mocks.NewInventoryRepository(t)
	mockNotifier := mocks.NewNotifier(t)
	db, _ := redismock.NewClientMock()

	service := services.NewApprovalService(mockEventRepo, mockRegRepo, mockInventory, mockNotifier, db)

	ctx := context.Background()
	event := merchEvent(150, 5)
	reg := pendingMerchRegistration(event.ID)

	mockRegRepo.On("GetByID", ctx, reg.ID).Return(reg, nil)
	mockEventRepo.On("GetByID", ctx, event.ID).Return(event, nil)
	mockRegRepo.On("Transition", ctx, reg.ID, domain.RegistrationPending, domain.RegistrationRejected).
		Return(true, nil)

	resolved, err := service.Resolve(ctx, reg.ID, event.OrganizerID, domain.DecisionReject)

	assert.NoError(t, err)
	if assert.NotNil(t, resolved) {
		assert.Equal(t, domain.RegistrationRejected, resolved.Status)
	}
	mockInventory.AssertNotCalled(t, "TryReserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockInventory.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_Unauthorized(t *testing.T) {
	mockEventRepo := mocks.NewEventRepository(t)
	mockRegRepo := mocks.NewRegistrationRepository(t)
	mockInventory := mocks.NewInventoryRepository(t)
	mockNotifier := mocks.NewNotifier(t)
	db, _ := redismock.NewClientMock()

	service := services.NewApprovalService(mockEventRepo, mockRegRepo, mockInventory, mockNotifier, db)

	ctx := context.Background()
	event := merchEvent(150, 5)
	reg := pendingMerchRegistration(event.ID)

	mockRegRepo.On("GetByID", ctx, reg.ID).Return(reg, nil)
	mockEventRepo.On("GetByID", ctx, event.ID).Return(event, nil)

	resolved, err := service.Resolve(ctx, reg.ID, uuid.New(), domain.DecisionApprove)

	assert.Nil(t, resolved)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestResolve_NotPending(t *testing.T) {
	mockEventRepo := mocks.NewEventRepository(t)
	mockRegRepo := mocks.NewRegistrationRepository(t)
	mockInventory := mocks.NewInventoryRepository(t)
	mockNotifier := mocks.NewNotifier(t)
	db, _ := redismock.NewClientMock()

	service := services.NewApprovalService(mockEventRepo, mockRegRepo, mockInventory, mockNotifier, db)

	ctx := context.Background()
	event := merchEvent(150, 5)
	reg := pendingMerchRegistration(event.ID)
	reg.Status = domain.RegistrationSuccessful

	mockRegRepo.On("GetByID", ctx, reg.ID).Return(reg, nil)
	mockEventRepo.On("GetByID", ctx, event.ID).Return(event, nil)

	resolved, err := service.Resolve(ctx, reg.ID, event.OrganizerID, domain.DecisionApprove)

	assert.Nil(t, resolved)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestResolve_RegistrationNotFound(t *testing.T) {
	mockEventRepo := mocks.NewEventRepository(t)
	mockRegRepo := mocks.NewRegistrationRepository(t)
	mockInventory := mocks.NewInventoryRepository(t)
	mockNotifier := mocks.NewNotifier(t)
	db, _ := redismock.NewClientMock()

	service := services.NewApprovalService(mockEventRepo, mockRegRepo, mockInventory, mockNotifier, db)

	ctx := context.Background()
	missing := uuid.New()

	mockRegRepo.On("GetByID", ctx, missing).Return(nil, domain.ErrRegistrationNotFound)

	resolved, err := service.Resolve(ctx, missing, uuid.New(), domain.DecisionApprove)

	assert.Nil(t, resolved)
	assert.ErrorIs(t, err, domain.ErrRegistrationNotFound)
}

func TestPendingApprovals(t *testing.T) {
	mockEventRepo := mocks.NewEventRepository(t)
	mockRegRepo := mocks.NewRegistrationRepository(t)
	mockInventory := mocks.NewInventoryRepository(t)
	mockNotifier := mocks.NewNotifier(t)
	db, _ := redismock.NewClientMock()

	service := services.NewApprovalService(mockEventRepo, mockRegRepo, mockInventory, mockNotifier, db)

	ctx := context.Background()
	organizerID := uuid.New()
	pending := []domain.Registration{*pendingMerchRegistration(uuid.New())}

	mockRegRepo.On("ListPendingByOrganizer", ctx, organizerID).Return(pending, nil)

	got, err := service.PendingApprovals(ctx, organizerID)

	assert.NoError(t, err)
	assert.Len(t, got, 1)
}
