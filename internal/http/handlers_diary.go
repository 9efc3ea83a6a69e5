package http

import (
	"net/http"

	"github.com/huy7715/money-tracker/internal/storage"
)

type diaryRequest struct {
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type diaryView struct {
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) handleGetDiary(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date is required"})
		return
	}
	entry, err := s.diary.Get(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, diaryView{Date: date, Title: entry.Title, Content: entry.Content})
}

func (s *Server) handleSaveDiary(w http.ResponseWriter, r *http.Request) {
	var req diaryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	entry := storage.DiaryEntry{
		Date:    req.Date,
		Title:   sanitizeInput(req.Title),
		Content: sanitizeInput(req.Content),
	}
	if err := s.diary.Save(r.Context(), entry); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, diaryView{Date: entry.Date, Title: entry.Title, Content: entry.Content})
}

func (s *Server) handleDiaryDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.diary.Dates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, dates)
}
