package services

import (
	"hirelyBack/internal/repositories"
)

// The SQL repositories must keep satisfying the store interfaces the
// services are wired with in cmd/initializer.go.
var (
	_ BookingStore  = (*repositories.BookingRepository)(nil)
	_ ChatStore     = (*repositories.ChatRepository)(nil)
	_ MessageStore  = (*repositories.MessageRepository)(nil)
	_ ServiceStore  = (*repositories.ServiceRepository)(nil)
	_ UserDirectory = (*repositories.UserRepository)(nil)
	_ UnreadCounter = (*repositories.UnreadCache)(nil)
	_ TokenStore    = (*repositories.NotifyTokenRepository)(nil)
	_ Notifier      = (*NotificationService)(nil)
)
