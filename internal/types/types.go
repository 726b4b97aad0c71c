package types

import (
	"persona-chat/internal/models"
)

type CreateBotRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type CreateBotResponse struct {
	Success bool        `json:"success"`
	BotID   string      `json:"botId"`
	BotURL  string      `json:"botUrl"`
	Bot     *models.Bot `json:"bot"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
