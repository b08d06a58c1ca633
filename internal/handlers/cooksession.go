package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/snapdish/snapdish-server/internal/services"
	"github.com/snapdish/snapdish-server/pkg/recipeapi"
)

const (
	sessionReadLimit    = 4 * 1024
	sessionReadTimeout  = 5 * time.Minute
	sessionPingInterval = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The mobile app is the only client; it connects from arbitrary origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type CookSessionHandler struct {
	recipes *services.RecipeService
}

func NewCookSessionHandler(recipes *services.RecipeService) *CookSessionHandler {
	return &CookSessionHandler{recipes: recipes}
}

// sessionMessage is what the server sends for each command.
type sessionMessage struct {
	Type  string   `json:"type"` // step | ingredients | done | error
	Step  int      `json:"step,omitempty"`
	Total int      `json:"total,omitempty"`
	Text  string   `json:"text,omitempty"`
	Items []string `json:"items,omitempty"`
}

// Session runs an interactive cooking walkthrough over a WebSocket. The
// app forwards the user's (voice-transcribed) commands as text frames and
// reads back the step to speak.
// GET /api/v1/recipes/{id}/cook
func (h *CookSessionHandler) Session(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid recipe ID")
		return
	}

	detail, err := h.recipes.GetRecipe(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	steps := SplitInstructions(detail.Instructions)
	if len(steps) == 0 {
		respondError(w, http.StatusUnprocessableEntity, "Recipe has no instructions to walk through")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("CookSession: upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(sessionReadLimit)
	conn.SetReadDeadline(time.Now().Add(sessionReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(sessionReadTimeout))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(sessionPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	log.Info().Int64("recipe_id", id).Int("steps", len(steps)).Msg("Cooking session started")
	h.runSession(conn, detail, steps)
}

func (h *CookSessionHandler) runSession(conn *websocket.Conn, detail *recipeapi.RecipeDetail, steps []string) {
	current := -1 // before "start"

	sendStep := func(i int) {
		conn.WriteJSON(sessionMessage{
			Type:  "step",
			Step:  i + 1,
			Total: len(steps),
			Text:  steps[i],
		})
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(sessionReadTimeout))

		switch ParseCommand(string(msg)) {
		case CommandStart:
			current = 0
			sendStep(current)
		case CommandNext:
			if current+1 >= len(steps) {
				conn.WriteJSON(sessionMessage{Type: "done", Total: len(steps), Text: "That was the last step. Enjoy your meal!"})
				continue
			}
			current++
			sendStep(current)
		case CommandPrevious:
			if current <= 0 {
				current = 0
			} else {
				current--
			}
			sendStep(current)
		case CommandRepeat:
			if current < 0 {
				current = 0
			}
			sendStep(current)
		case CommandIngredients:
			items := make([]string, 0, len(detail.ExtendedIngredients))
			for _, ing := range detail.ExtendedIngredients {
				items = append(items, ing.Original)
			}
			conn.WriteJSON(sessionMessage{Type: "ingredients", Items: items})
		case CommandQuit:
			conn.WriteJSON(sessionMessage{Type: "done", Total: len(steps), Text: "Cooking session ended."})
			return
		default:
			conn.WriteJSON(sessionMessage{Type: "error", Text: "Say next, back, repeat, ingredients, or stop."})
		}
	}
}

// Command is a recognized cooking-session voice command.
type Command int

const (
	CommandUnknown Command = iota
	CommandStart
	CommandNext
	CommandPrevious
	CommandRepeat
	CommandIngredients
	CommandQuit
)

// ParseCommand matches a transcribed utterance against the session's
// keyword set. Matching is on contained keywords, not exact phrases, so
// "okay, next step please" still advances.
func ParseCommand(msg string) Command {
	msg = strings.ToLower(strings.TrimSpace(msg))

	keywords := []struct {
		cmd   Command
		words []string
	}{
		{CommandIngredients, []string{"ingredient"}},
		{CommandPrevious, []string{"previous", "back", "go back"}},
		{CommandNext, []string{"next", "continue", "forward"}},
		{CommandRepeat, []string{"repeat", "again", "say that"}},
		{CommandStart, []string{"start", "begin", "let's cook"}},
		{CommandQuit, []string{"stop", "quit", "exit", "finish"}},
	}

	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(msg, w) {
				return k.cmd
			}
		}
	}
	return CommandUnknown
}

// SplitInstructions turns the upstream's free-text instructions into
// speakable steps. Recipes arrive either newline-separated or as one
// paragraph of sentences.
func SplitInstructions(instructions string) []string {
	instructions = strings.TrimSpace(instructions)
	if instructions == "" {
		return nil
	}

	var parts []string
	if strings.Contains(instructions, "\n") {
		parts = strings.Split(instructions, "\n")
	} else {
		parts = strings.SplitAfter(instructions, ". ")
	}

	var steps []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			steps = append(steps, p)
		}
	}
	return steps
}
