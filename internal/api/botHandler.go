package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"persona-chat/internal/repository"
	"persona-chat/internal/types"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func CreateBotHandler(bots *repository.BotRegistry, history *repository.ConversationLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload types.CreateBotRequest

		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Printf("[API] Create bot decode error: %v", err)
			writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "Invalid request body"})
			return
		}

		bot, err := bots.Create(payload.Name, payload.Description, payload.ImageURL)
		if err != nil {
			var vErr *repository.ValidationError
			if errors.As(err, &vErr) {
				log.Printf("[API] Create bot rejected: %v", vErr)
				writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: vErr.Error()})
				return
			}
			log.Printf("[API] Create bot failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, types.ErrorResponse{Error: "Internal server error"})
			return
		}

		history.Ensure(bot.ID)

		writeJSON(w, http.StatusOK, types.CreateBotResponse{
			Success: true,
			BotID:   bot.ID,
			BotURL:  "/bot/" + bot.ID,
			Bot:     bot,
		})
	}
}

func GetBotHandler(bots *repository.BotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		botID := r.PathValue("botId")

		bot, err := bots.Get(botID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, types.ErrorResponse{Error: "Bot not found"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, types.ErrorResponse{Error: "Internal server error"})
			return
		}

		writeJSON(w, http.StatusOK, bot)
	}
}

func ListBotsHandler(bots *repository.BotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, bots.List())
	}
}
