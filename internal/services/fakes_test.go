package services

import (
	"context"
	"sync"
	"time"

	"hirelyBack/internal/booking/fsm"
	"hirelyBack/internal/models"
)

// memStore backs all store interfaces for tests. Guarded writes mirror the
// SQL repositories: a failed precondition returns models.ErrConflict.
type memStore struct {
	mu       sync.Mutex
	bookings map[int]models.Booking
	chats    map[int]models.Chat
	messages []models.Message
	services map[int]models.Service
	users    map[int]models.User
	blocks   map[[2]int]bool
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{
		bookings: map[int]models.Booking{},
		chats:    map[int]models.Chat{},
		services: map[int]models.Service{},
		users:    map[int]models.User{},
		blocks:   map[[2]int]bool{},
	}
}

func (m *memStore) next() int {
	m.nextID++
	return m.nextID
}

func (m *memStore) CreateBooking(_ context.Context, b models.Booking) (models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.next()
	b.Status = fsm.StatusPending
	m.bookings[b.ID] = b
	return b, nil
}

func (m *memStore) GetBookingByID(_ context.Context, id int) (models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return models.Booking{}, models.ErrBookingNotFound
	}
	return b, nil
}

func (m *memStore) ListBookingsByUser(_ context.Context, userID int, status string, _, _ int) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if b.CustomerID != userID && b.ProviderID != userID {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *memStore) LinkConversation(_ context.Context, bookingID, chatID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bookings[bookingID]
	b.ConversationID = &chatID
	m.bookings[bookingID] = b
	return nil
}

func (m *memStore) MarkAccepted(_ context.Context, id int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bookings[id]
	if b.Status != fsm.StatusPending {
		return models.ErrConflict
	}
	b.Status = fsm.StatusConfirmed
	b.AcceptedAt = &at
	m.bookings[id] = b
	return nil
}

func (m *memStore) MarkCancelled(_ context.Context, id int, from string, by models.Role, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bookings[id]
	if b.Status != from || !fsm.CanTransition(from, fsm.StatusCancelled) {
		return models.ErrConflict
	}
	b.Status = fsm.StatusCancelled
	b.CancelledBy = by
	b.CancellationReason = reason
	m.bookings[id] = b
	return nil
}

func (m *memStore) MarkCompletionInitiated(_ context.Context, id int, by models.Role, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bookings[id]
	if b.CompletionInitiatedBy != "" {
		return models.ErrConflict
	}
	if b.Status != fsm.StatusConfirmed && b.Status != fsm.StatusInProgress {
		return models.ErrConflict
	}
	b.CompletionInitiatedBy = by
	b.CompletionInitiatedAt = &at
	m.bookings[id] = b
	return nil
}

func (m *memStore) MarkCompleted(_ context.Context, id int, by models.Role, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bookings[id]
	if b.CompletionInitiatedBy == "" || b.CompletionInitiatedBy == by {
		return models.ErrConflict
	}
	if b.Status != fsm.StatusConfirmed && b.Status != fsm.StatusInProgress {
		return models.ErrConflict
	}
	b.Status = fsm.StatusCompleted
	b.CompletionConfirmedBy = by
	b.CompletionConfirmedAt = &at
	m.bookings[id] = b
	return nil
}

func (m *memStore) MarkInProgress(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bookings[id]
	if b.Status != fsm.StatusConfirmed {
		return models.ErrConflict
	}
	b.Status = fsm.StatusInProgress
	m.bookings[id] = b
	return nil
}

func (m *memStore) CreateChat(_ context.Context, chat models.Chat) (models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat.ID = m.next()
	chat.CreatedAt = time.Now()
	m.chats[chat.ID] = chat
	return chat, nil
}

func (m *memStore) GetChatByID(_ context.Context, id int) (models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.chats[id]
	if !ok {
		return models.Chat{}, models.ErrChatNotFound
	}
	return chat, nil
}

func (m *memStore) GetChatByParticipants(_ context.Context, a, b int) (models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	best := models.Chat{}
	found := false
	for _, chat := range m.chats {
		pair := (chat.User1ID == a && chat.User2ID == b) || (chat.User1ID == b && chat.User2ID == a)
		if pair && (!found || chat.ID > best.ID) {
			best = chat
			found = true
		}
	}
	if !found {
		return models.Chat{}, models.ErrChatNotFound
	}
	return best, nil
}

func (m *memStore) ListChatsByUser(_ context.Context, userID int) ([]models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Chat
	for _, chat := range m.chats {
		if chat.HasParticipant(userID) {
			out = append(out, chat)
		}
	}
	return out, nil
}

func (m *memStore) AttachBooking(_ context.Context, chatID, bookingID int, serviceID *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat := m.chats[chatID]
	chat.BookingID = &bookingID
	if serviceID != nil {
		chat.ServiceID = serviceID
	}
	m.chats[chatID] = chat
	return nil
}

func (m *memStore) ReopenChat(_ context.Context, chatID, bookingID int, serviceID *int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat := m.chats[chatID]
	if chat.Status != fsm.ChatClosed {
		return models.ErrConflict
	}
	chat.Status = status
	chat.BookingID = &bookingID
	if serviceID != nil {
		chat.ServiceID = serviceID
	}
	chat.ClosedAt = nil
	chat.ClosedReason = ""
	m.chats[chatID] = chat
	return nil
}

func (m *memStore) ActivateChat(_ context.Context, chatID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat := m.chats[chatID]
	if chat.Status == fsm.ChatClosed {
		return models.ErrConflict
	}
	chat.Status = fsm.ChatActive
	m.chats[chatID] = chat
	return nil
}

func (m *memStore) PromoteIfPending(_ context.Context, chatID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat := m.chats[chatID]
	if chat.Status != fsm.ChatPending {
		return false, nil
	}
	chat.Status = fsm.ChatActive
	m.chats[chatID] = chat
	return true, nil
}

func (m *memStore) CloseChat(_ context.Context, chatID int, reason models.ChatClosedReason, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat := m.chats[chatID]
	if chat.Status == fsm.ChatClosed {
		return nil
	}
	chat.Status = fsm.ChatClosed
	chat.ClosedAt = &at
	chat.ClosedReason = reason
	m.chats[chatID] = chat
	return nil
}

func (m *memStore) TouchLastMessage(_ context.Context, chatID int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat := m.chats[chatID]
	chat.LastMessageAt = at
	m.chats[chatID] = chat
	return nil
}

func (m *memStore) AppendMessage(_ context.Context, msg models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memStore) GetMessagesForChat(_ context.Context, chatID, _, _ int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memStore) MarkDelivered(_ context.Context, chatID, receiverID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	n := 0
	for i := range m.messages {
		msg := &m.messages[i]
		if msg.ChatID == chatID && msg.ReceiverID == receiverID && msg.DeliveredAt == nil {
			msg.DeliveredAt = &now
			n++
		}
	}
	return n, nil
}

func (m *memStore) MarkRead(_ context.Context, chatID, receiverID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	n := 0
	for i := range m.messages {
		msg := &m.messages[i]
		if msg.ChatID == chatID && msg.ReceiverID == receiverID && !msg.IsRead {
			msg.IsRead = true
			msg.ReadAt = &now
			if msg.DeliveredAt == nil {
				msg.DeliveredAt = &now
			}
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountUnread(_ context.Context, chatID, receiverID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.messages {
		if msg.ChatID == chatID && msg.ReceiverID == receiverID && !msg.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetServiceByID(_ context.Context, id int) (models.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.services[id]
	if !ok {
		return models.Service{}, models.ErrServiceNotFound
	}
	return s, nil
}

func (m *memStore) IncrementBookings(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.services[id]
	s.TotalBookings++
	m.services[id] = s
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id int) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, models.ErrUserNotFound
	}
	return u, nil
}

func (m *memStore) GetBlockStatus(_ context.Context, callerID, peerID int) (models.BlockStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.BlockStatus{
		CallerBlockedPeer: m.blocks[[2]int{callerID, peerID}],
		PeerBlockedCaller: m.blocks[[2]int{peerID, callerID}],
	}, nil
}

func (m *memStore) block(blocker, blocked int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[[2]int{blocker, blocked}] = true
}

// recordingNotifier captures event names in order.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(ev string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) BookingCreated(context.Context, models.Booking)   { n.record("created") }
func (n *recordingNotifier) BookingAccepted(context.Context, models.Booking)  { n.record("accepted") }
func (n *recordingNotifier) BookingCancelled(context.Context, models.Booking) { n.record("cancelled") }
func (n *recordingNotifier) BookingCompleted(context.Context, models.Booking) { n.record("completed") }
func (n *recordingNotifier) CompletionRequested(context.Context, models.Booking) {
	n.record("completion_requested")
}
func (n *recordingNotifier) NewMessage(context.Context, models.Message) { n.record("message") }

func (n *recordingNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return ""
	}
	return n.events[len(n.events)-1]
}

// memCounter is an in-process stand-in for the redis unread counter.
type memCounter struct {
	mu     sync.Mutex
	counts map[[2]int]int
}

func newMemCounter() *memCounter {
	return &memCounter{counts: map[[2]int]int{}}
}

func (c *memCounter) Increment(_ context.Context, userID, chatID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[[2]int{userID, chatID}]++
	return nil
}

func (c *memCounter) Reset(_ context.Context, userID, chatID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, [2]int{userID, chatID})
	return nil
}

func (c *memCounter) Get(_ context.Context, userID, chatID int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[[2]int{userID, chatID}], nil
}

// fakePusher simulates live websocket connections.
type fakePusher struct {
	online    map[int]bool
	delivered []models.Message
}

func (p *fakePusher) Push(receiverID int, msg models.Message) bool {
	if !p.online[receiverID] {
		return false
	}
	p.delivered = append(p.delivered, msg)
	return true
}
