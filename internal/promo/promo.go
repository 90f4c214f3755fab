package promo

import (
	"context"
	"fmt"
	"log/slog"

	"partyflow/models"
)

// Generator is the text-generation surface, satisfied by GeminiClient.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service turns an event into a short promotional blurb. Generation
// failures degrade to a plain announcement so the admin flow never breaks.
type Service struct {
	gen Generator
}

func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

// Blurb returns a promotional message for the event.
func (s *Service) Blurb(ctx context.Context, event models.Event) string {
	prompt := fmt.Sprintf(
		"Write a short, high-energy promotional message (2-3 sentences, with emojis) for a party named %q on %s at %s. Tickets cost %.2f. End with a call to action to buy tickets.",
		event.Name, event.Date, event.Location, event.Price,
	)

	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("promo generation failed, using fallback", "event", event.ID, "error", err)
		return fmt.Sprintf("🎉 %s is happening on %s at %s! Tickets are going fast, grab yours now!",
			event.Name, event.Date, event.Location)
	}
	return text
}
