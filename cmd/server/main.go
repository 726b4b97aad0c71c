package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"persona-chat/internal/api"
	"persona-chat/internal/chat"
	"persona-chat/internal/config"
	"persona-chat/internal/persona"
	"persona-chat/internal/repository"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func serveWS(h *chat.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Upgrade error: %v", err)
			return
		}

		client := chat.NewClient(h, conn)
		h.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}

func main() {

	cfg := config.Load()

	bots := repository.NewBotRegistry()
	history := repository.NewConversationLog()
	responder := persona.NewClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey, cfg.ResponderTimeout)

	h := chat.NewHub(bots, history, responder, cfg.ResponderTimeout)
	go h.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/create-bot", api.CreateBotHandler(bots, history))
	mux.HandleFunc("GET /api/bot/{botId}", api.GetBotHandler(bots))
	mux.HandleFunc("GET /api/bots", api.ListBotsHandler(bots))
	mux.HandleFunc("/ws", serveWS(h))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Printf("🚀 Persona chat server starting on :%s...\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil {
			if err != http.ErrServerClosed {
				log.Fatalf("ListenAndServe: %v", err)
			}
		}
	}()

	<-stop

	fmt.Println("\nShutdown signal received. Cleaning up...")
	close(h.Quit)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)

	time.Sleep(1 * time.Second)
	fmt.Println("Graceful shutdown complete. Goodnight!")
}
