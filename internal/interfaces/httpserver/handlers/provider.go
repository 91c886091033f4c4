package handlers

import (
	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/app"
)

// Provider wires HTTP handlers.
type Provider struct {
	Tasks *TaskHandler
	GC    *GCHandler
	Media *MediaHandler
	Posts *PostHandler
}

func NewProvider(container *app.Container, log zerolog.Logger) *Provider {
	return &Provider{
		Tasks: NewTaskHandler(container.Tasks, log),
		GC:    NewGCHandler(container.Collector, log),
		Media: NewMediaHandler(container.Media, container.Config.MaxMediaBytes, log),
		Posts: NewPostHandler(container.Content, log),
	}
}
