package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"hirelyBack/utils"
)

// MessageHandler owns media uploads for chat messages. The returned URL goes
// into the message content on a follow-up SendMessage call.
type MessageHandler struct {
	Uploader *utils.Uploader
}

const maxUploadSize = 32 << 20

var allowedMediaTypes = map[string]string{
	"image/jpeg": "images",
	"image/png":  "images",
	"image/webp": "images",
	"audio/ogg":  "voice",
	"audio/mpeg": "voice",
	"audio/mp4":  "voice",
}

func (h *MessageHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if h.Uploader == nil {
		http.Error(w, "Media storage is not configured", http.StatusServiceUnavailable)
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	folder, ok := allowedMediaTypes[contentType]
	if !ok {
		http.Error(w, "Unsupported media type", http.StatusUnsupportedMediaType)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	fileName := fmt.Sprintf("%d_%d_%s", userID, time.Now().UnixNano(), header.Filename)
	url, err := h.Uploader.UploadFile(data, fileName, "messages/"+folder, contentType)
	if err != nil {
		http.Error(w, "Failed to store file", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
