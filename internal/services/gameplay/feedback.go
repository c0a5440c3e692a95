package gameplay

import (
	"log/slog"

	"github.com/panda19/prisonscore/internal/model"
)

// Feedback delivers cosmetic output to a player
type Feedback interface {
	Message(id model.ProfileID, text string)
	Sound(id model.ProfileID, sound string)
}

// LogFeedback writes feedback to the log, for hosts that pick it up there
type LogFeedback struct {
	logger *slog.Logger
}

// NewLogFeedback creates a LogFeedback
func NewLogFeedback(logger *slog.Logger) *LogFeedback {
	return &LogFeedback{logger: logger}
}

func (f *LogFeedback) Message(id model.ProfileID, text string) {
	f.logger.Info("player message",
		slog.String("profile_id", id.String()),
		slog.String("text", text),
	)
}

func (f *LogFeedback) Sound(id model.ProfileID, sound string) {
	f.logger.Info("player sound",
		slog.String("profile_id", id.String()),
		slog.String("sound", sound),
	)
}
