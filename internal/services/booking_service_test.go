package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"hirelyBack/internal/booking/fsm"
	"hirelyBack/internal/models"
)

const (
	testCustomer = 10
	testProvider = 20
	testService  = 1
	leadTime     = 3 * time.Hour
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newBookingFixture() (*BookingService, *memStore, *recordingNotifier) {
	store := newMemStore()
	store.services[testService] = models.Service{
		ID:           testService,
		ProviderID:   testProvider,
		ServiceName:  "apartment cleaning",
		PricePerHour: 50,
		IsActive:     true,
	}
	notifier := &recordingNotifier{}
	svc := &BookingService{
		BookingRepo:    store,
		ChatRepo:       store,
		ServiceRepo:    store,
		Notifier:       notifier,
		CancelLeadTime: leadTime,
		Clock:          func() time.Time { return testNow },
	}
	return svc, store, notifier
}

func reservationIn(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

func TestCreateBookingHappyPath(t *testing.T) {
	svc, store, notifier := newBookingFixture()

	b, err := svc.CreateBooking(context.Background(), testCustomer, models.CreateBookingRequest{
		ServiceID:       testService,
		BookingType:     models.BookingReservation,
		ReservationDate: reservationIn(5 * time.Hour),
		HoursBooked:     3,
		CustomerDetails: models.CustomerDetails{Name: "Aset", PhoneNumber: "+77001234567"},
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if b.Status != fsm.StatusPending {
		t.Errorf("status = %s, want pending", b.Status)
	}
	if b.TotalAmount != 150 {
		t.Errorf("total = %v, want 150", b.TotalAmount)
	}
	if !b.CanCancel {
		t.Error("expected can_cancel for a reservation 5h out")
	}
	if b.ConversationID == nil {
		t.Fatal("booking has no linked conversation")
	}
	chat := store.chats[*b.ConversationID]
	if chat.Status != fsm.ChatPending {
		t.Errorf("chat status = %s, want pending", chat.Status)
	}
	if chat.BookingID == nil || *chat.BookingID != b.ID {
		t.Error("chat not pointing at the new booking")
	}
	if store.services[testService].TotalBookings != 1 {
		t.Error("service booking counter not incremented")
	}
	if notifier.last() != "created" {
		t.Errorf("notifier event = %q, want created", notifier.last())
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc, _, _ := newBookingFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		req  models.CreateBookingRequest
		want error
	}{
		{"zero hours", models.CreateBookingRequest{ServiceID: testService, HoursBooked: 0}, models.ErrInvalidRequest},
		{"missing reservation date", models.CreateBookingRequest{ServiceID: testService, BookingType: models.BookingReservation, HoursBooked: 1}, models.ErrInvalidRequest},
		{"too soon", models.CreateBookingRequest{ServiceID: testService, BookingType: models.BookingReservation, ReservationDate: reservationIn(time.Hour), HoursBooked: 1}, models.ErrInvalidRequest},
		{"unknown service", models.CreateBookingRequest{ServiceID: 999, HoursBooked: 1, BookingType: models.BookingImmediate}, models.ErrServiceNotFound},
	}
	for _, tc := range cases {
		if _, err := svc.CreateBooking(ctx, testCustomer, tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}

	if _, err := svc.CreateBooking(ctx, testProvider, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingImmediate, HoursBooked: 1,
	}); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("booking own service: err = %v, want invalid request", err)
	}
}

func TestCreateBookingReusesExistingChat(t *testing.T) {
	svc, store, _ := newBookingFixture()
	ctx := context.Background()

	first, err := svc.CreateBooking(ctx, testCustomer, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingImmediate, HoursBooked: 1,
	})
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	second, err := svc.CreateBooking(ctx, testCustomer, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingImmediate, HoursBooked: 2,
	})
	if err != nil {
		t.Fatalf("second booking: %v", err)
	}
	if *first.ConversationID != *second.ConversationID {
		t.Fatalf("pair got two chats: %d and %d", *first.ConversationID, *second.ConversationID)
	}
	chat := store.chats[*second.ConversationID]
	if chat.BookingID == nil || *chat.BookingID != second.ID {
		t.Error("chat not repointed at the newest booking")
	}
	if len(store.chats) != 1 {
		t.Errorf("chat count = %d, want 1", len(store.chats))
	}
}

func TestCreateBookingReopensClosedChat(t *testing.T) {
	svc, store, _ := newBookingFixture()
	ctx := context.Background()

	first, err := svc.CreateBooking(ctx, testCustomer, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingImmediate, HoursBooked: 1,
	})
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := svc.Accept(ctx, first.ID, testProvider); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := svc.InitiateCompletion(ctx, first.ID, testCustomer); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if _, err := svc.ConfirmCompletion(ctx, first.ID, testProvider); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if store.chats[*first.ConversationID].Status != fsm.ChatClosed {
		t.Fatal("chat should be closed after completion")
	}

	second, err := svc.CreateBooking(ctx, testCustomer, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingImmediate, HoursBooked: 1,
	})
	if err != nil {
		t.Fatalf("second booking: %v", err)
	}
	if *second.ConversationID != *first.ConversationID {
		t.Fatal("repeat booking created a new chat instead of reopening")
	}
	chat := store.chats[*second.ConversationID]
	if chat.Status != fsm.ChatPending {
		t.Errorf("reopened chat status = %s, want pending", chat.Status)
	}
	if chat.ClosedAt != nil || chat.ClosedReason != "" {
		t.Error("reopened chat still carries closed bookkeeping")
	}
}

func TestAcceptActivatesChat(t *testing.T) {
	svc, store, notifier := newBookingFixture()
	ctx := context.Background()

	b, _ := svc.CreateBooking(ctx, testCustomer, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingImmediate, HoursBooked: 1,
	})

	if _, err := svc.Accept(ctx, b.ID, testCustomer); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("customer accept: err = %v, want forbidden", err)
	}

	accepted, err := svc.Accept(ctx, b.ID, testProvider)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != fsm.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", accepted.Status)
	}
	if accepted.AcceptedAt == nil {
		t.Error("accepted_at not stamped")
	}
	if store.chats[*accepted.ConversationID].Status != fsm.ChatActive {
		t.Error("chat not activated on acceptance")
	}
	if notifier.last() != "accepted" {
		t.Errorf("notifier event = %q, want accepted", notifier.last())
	}

	if _, err := svc.Accept(ctx, b.ID, testProvider); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("double accept: err = %v, want invalid state", err)
	}
}

func TestRejectClosesChatWithoutActivation(t *testing.T) {
	svc, store, _ := newBookingFixture()
	ctx := context.Background()

	b, _ := svc.CreateBooking(ctx, testCustomer, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingImmediate, HoursBooked: 1,
	})
	rejected, err := svc.Reject(ctx, b.ID, testProvider, "fully booked that day")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != fsm.StatusCancelled {
		t.Errorf("status = %s, want cancelled", rejected.Status)
	}
	if rejected.CancelledBy != models.RoleProvider {
		t.Errorf("cancelled_by = %s, want provider", rejected.CancelledBy)
	}
	chat := store.chats[*rejected.ConversationID]
	if chat.Status != fsm.ChatClosed {
		t.Errorf("chat status = %s, want closed", chat.Status)
	}
	if chat.ClosedReason != models.ClosedCancelled {
		t.Errorf("closed reason = %s, want cancelled", chat.ClosedReason)
	}
}

func TestCancelRespectsLeadTime(t *testing.T) {
	svc, store, _ := newBookingFixture()
	ctx := context.Background()

	near, _ := svc.CreateBooking(ctx, testCustomer, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingReservation,
		ReservationDate: reservationIn(3 * time.Hour), HoursBooked: 1,
	})
	if _, err := svc.Cancel(ctx, near.ID, testCustomer, "changed plans"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("cancel inside window: err = %v, want forbidden", err)
	}

	far, _ := svc.CreateBooking(ctx, testCustomer, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingReservation,
		ReservationDate: reservationIn(6 * time.Hour), HoursBooked: 1,
	})
	cancelled, err := svc.Cancel(ctx, far.ID, testCustomer, "changed plans")
	if err != nil {
		t.Fatalf("cancel outside window: %v", err)
	}
	if cancelled.CancelledBy != models.RoleCustomer {
		t.Errorf("cancelled_by = %s, want customer", cancelled.CancelledBy)
	}
	if store.chats[*cancelled.ConversationID].ClosedReason != models.ClosedCancelled {
		t.Error("chat not closed as cancelled")
	}
	if _, err := svc.Cancel(ctx, far.ID, testCustomer, "again"); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("cancel of cancelled booking: err = %v, want invalid state", err)
	}
}

// closeFailingStore simulates a chat store whose close write is down.
type closeFailingStore struct {
	*memStore
}

func (s *closeFailingStore) CloseChat(context.Context, int, models.ChatClosedReason, time.Time) error {
	return errors.New("chat store unavailable")
}

func TestCancelSucceedsWhenChatCloseFails(t *testing.T) {
	svc, store, notifier := newBookingFixture()
	svc.ChatRepo = &closeFailingStore{memStore: store}
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, testCustomer, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingReservation,
		ReservationDate: reservationIn(6 * time.Hour), HoursBooked: 1,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	// the booking transition is the source of truth; a failed chat close is
	// logged, not surfaced
	cancelled, err := svc.Cancel(ctx, b.ID, testCustomer, "changed plans")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != fsm.StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if store.chats[*b.ConversationID].Status == fsm.ChatClosed {
		t.Fatal("fixture should have left the chat open")
	}
	if notifier.last() != "cancelled" {
		t.Errorf("notifier event = %q, want cancelled", notifier.last())
	}
}

func TestGuardedWritesRejectStalePreconditions(t *testing.T) {
	svc, store, _ := newBookingFixture()
	ctx := context.Background()

	b, _ := svc.CreateBooking(ctx, testCustomer, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingReservation,
		ReservationDate: reservationIn(6 * time.Hour), HoursBooked: 1,
	})
	if _, err := svc.Accept(ctx, b.ID, testProvider); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// a canceller that read the booking as pending loses the race
	if err := store.MarkCancelled(ctx, b.ID, fsm.StatusPending, models.RoleCustomer, ""); !errors.Is(err, models.ErrConflict) {
		t.Errorf("stale cancel: err = %v, want conflict", err)
	}
	if err := store.MarkAccepted(ctx, b.ID, testNow); !errors.Is(err, models.ErrConflict) {
		t.Errorf("second accept: err = %v, want conflict", err)
	}
	if store.bookings[b.ID].Status != fsm.StatusConfirmed {
		t.Error("losing writes must not change status")
	}
}

func TestCompletionHandshake(t *testing.T) {
	svc, store, notifier := newBookingFixture()
	ctx := context.Background()

	b, _ := svc.CreateBooking(ctx, testCustomer, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingImmediate, HoursBooked: 2,
	})
	if _, err := svc.ConfirmCompletion(ctx, b.ID, testProvider); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("confirm before accept: err = %v, want invalid state", err)
	}
	if _, err := svc.Accept(ctx, b.ID, testProvider); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := svc.ConfirmCompletion(ctx, b.ID, testProvider); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("confirm before initiation: err = %v, want invalid state", err)
	}

	initiated, err := svc.InitiateCompletion(ctx, b.ID, testCustomer)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if initiated.Status != fsm.StatusConfirmed {
		t.Errorf("status after initiation = %s, want confirmed", initiated.Status)
	}
	if initiated.CompletionInitiatedBy != models.RoleCustomer {
		t.Errorf("initiated_by = %s, want customer", initiated.CompletionInitiatedBy)
	}
	if notifier.last() != "completion_requested" {
		t.Errorf("notifier event = %q, want completion_requested", notifier.last())
	}

	if _, err := svc.InitiateCompletion(ctx, b.ID, testProvider); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("second initiation: err = %v, want invalid state", err)
	}
	if _, err := svc.ConfirmCompletion(ctx, b.ID, testCustomer); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("self-confirmation: err = %v, want invalid state", err)
	}

	done, err := svc.ConfirmCompletion(ctx, b.ID, testProvider)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if done.Status != fsm.StatusCompleted {
		t.Errorf("status = %s, want completed", done.Status)
	}
	if done.CompletionConfirmedBy != models.RoleProvider {
		t.Errorf("confirmed_by = %s, want provider", done.CompletionConfirmedBy)
	}
	chat := store.chats[*done.ConversationID]
	if chat.Status != fsm.ChatClosed || chat.ClosedReason != models.ClosedCompleted {
		t.Errorf("chat = %s/%s, want closed/completed", chat.Status, chat.ClosedReason)
	}
	if notifier.last() != "completed" {
		t.Errorf("notifier event = %q, want completed", notifier.last())
	}
}

func TestLegacyCompleteInitiatesThenConfirms(t *testing.T) {
	svc, _, _ := newBookingFixture()
	ctx := context.Background()

	b, _ := svc.CreateBooking(ctx, testCustomer, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingImmediate, HoursBooked: 1,
	})
	if _, err := svc.Accept(ctx, b.ID, testProvider); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, needsPeer, err := svc.Complete(ctx, b.ID, testProvider)
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if !needsPeer {
		t.Error("first complete should require peer confirmation")
	}
	if _, _, err := svc.Complete(ctx, b.ID, testProvider); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("same-party second complete: err = %v, want invalid state", err)
	}
	done, needsPeer, err := svc.Complete(ctx, b.ID, testCustomer)
	if err != nil {
		t.Fatalf("peer complete: %v", err)
	}
	if needsPeer {
		t.Error("peer complete should finish the handshake")
	}
	if done.Status != fsm.StatusCompleted {
		t.Errorf("status = %s, want completed", done.Status)
	}
}

func TestStartRequiresConfirmedAndProvider(t *testing.T) {
	svc, _, _ := newBookingFixture()
	ctx := context.Background()

	b, _ := svc.CreateBooking(ctx, testCustomer, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingImmediate, HoursBooked: 1,
	})
	if _, err := svc.Start(ctx, b.ID, testProvider); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("start pending: err = %v, want invalid state", err)
	}
	if _, err := svc.Accept(ctx, b.ID, testProvider); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := svc.Start(ctx, b.ID, testCustomer); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("customer start: err = %v, want forbidden", err)
	}
	started, err := svc.Start(ctx, b.ID, testProvider)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != fsm.StatusInProgress {
		t.Errorf("status = %s, want in_progress", started.Status)
	}
}

func TestGetBookingRecomputesCancelWindow(t *testing.T) {
	svc, _, _ := newBookingFixture()
	ctx := context.Background()

	b, _ := svc.CreateBooking(ctx, testCustomer, models.CreateBookingRequest{
		ServiceID: testService, BookingType: models.BookingReservation,
		ReservationDate: reservationIn(4 * time.Hour), HoursBooked: 1,
	})
	got, err := svc.GetBooking(ctx, b.ID, testCustomer)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CanCancel {
		t.Error("expected can_cancel 4h before the reservation")
	}

	// same booking read 2h later sits inside the window
	svc.Clock = func() time.Time { return testNow.Add(2 * time.Hour) }
	got, err = svc.GetBooking(ctx, b.ID, testCustomer)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CanCancel {
		t.Error("can_cancel must drop once inside the lead-time window")
	}

	if _, err := svc.GetBooking(ctx, b.ID, 99); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("outsider read: err = %v, want forbidden", err)
	}
}
