package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(""))
	providerMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("provider"))

	mux := pat.New()

	// Users
	mux.Post("/user/sign_up", standardMiddleware.ThenFunc(app.userHandler.SignUp))
	mux.Post("/user/sign_in", standardMiddleware.ThenFunc(app.userHandler.SignIn))
	mux.Get("/user/me", authMiddleware.ThenFunc(app.userHandler.GetMe))
	mux.Get("/user/:id", authMiddleware.ThenFunc(app.userHandler.GetUser))
	mux.Post("/user/block", authMiddleware.ThenFunc(app.userHandler.BlockUser))
	mux.Post("/user/unblock", authMiddleware.ThenFunc(app.userHandler.UnblockUser))

	// Services
	mux.Post("/service", providerMiddleware.ThenFunc(app.serviceHandler.CreateService))
	mux.Get("/service/my", providerMiddleware.ThenFunc(app.serviceHandler.ListMyServices))
	mux.Get("/service/:id", authMiddleware.ThenFunc(app.serviceHandler.GetService))

	// Bookings
	mux.Post("/bookings", authMiddleware.ThenFunc(app.bookingHandler.CreateBooking))
	mux.Get("/bookings", authMiddleware.ThenFunc(app.bookingHandler.ListBookings))
	mux.Get("/bookings/:id", authMiddleware.ThenFunc(app.bookingHandler.GetBooking))
	mux.Post("/bookings/:id/accept", authMiddleware.ThenFunc(app.bookingHandler.AcceptBooking))
	mux.Post("/bookings/:id/reject", authMiddleware.ThenFunc(app.bookingHandler.RejectBooking))
	mux.Post("/bookings/:id/cancel", authMiddleware.ThenFunc(app.bookingHandler.CancelBooking))
	mux.Post("/bookings/:id/start", authMiddleware.ThenFunc(app.bookingHandler.StartBooking))
	mux.Post("/bookings/:id/initiate-completion", authMiddleware.ThenFunc(app.bookingHandler.InitiateCompletion))
	mux.Post("/bookings/:id/confirm-completion", authMiddleware.ThenFunc(app.bookingHandler.ConfirmCompletion))
	mux.Post("/bookings/:id/complete", authMiddleware.ThenFunc(app.bookingHandler.CompleteBooking))

	// Chats
	mux.Get("/chats", authMiddleware.ThenFunc(app.chatHandler.ListChats))
	mux.Get("/chats/:id", authMiddleware.ThenFunc(app.chatHandler.GetChat))
	mux.Get("/chats/:id/messages", authMiddleware.ThenFunc(app.chatHandler.GetMessages))
	mux.Post("/chats/:id/messages", authMiddleware.ThenFunc(app.chatHandler.SendMessage))
	mux.Post("/chats/:id/read", authMiddleware.ThenFunc(app.chatHandler.MarkRead))
	mux.Post("/chats/:id/delivered", authMiddleware.ThenFunc(app.chatHandler.MarkDelivered))
	mux.Post("/chats/:id/reopen", authMiddleware.ThenFunc(app.chatHandler.ReopenChat))
	mux.Get("/chats/:id/unread", authMiddleware.ThenFunc(app.chatHandler.UnreadCount))

	// Media
	mux.Post("/media/upload", authMiddleware.ThenFunc(app.messageHandler.UploadMedia))

	// Push tokens
	mux.Post("/notify/token", authMiddleware.ThenFunc(app.fcmHandler.CreateToken))
	mux.Del("/notify/token/:token", authMiddleware.ThenFunc(app.fcmHandler.DeleteToken))

	// WebSocket
	mux.Get("/ws", http.HandlerFunc(app.WebSocketHandler))

	return mux
}
