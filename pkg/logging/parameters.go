package logging

import (
	"fmt"
	"log/slog"
)

// Parameters holds the logger configuration collected from the command line.
type Parameters struct {
	Level slog.Level
	Type  LoggerType
}

// ParseParameters converts textual level and type values into Parameters.
func ParseParameters(level, loggerType string) (Parameters, error) {
	var p Parameters
	var err error
	p.Level, err = p.parseLevel(level)
	if err != nil {
		return Parameters{}, fmt.Errorf("failed to parse logger parameters: %w", err)
	}
	p.Type, err = p.parseType(loggerType)
	if err != nil {
		return Parameters{}, fmt.Errorf("failed to parse logger parameters: %w", err)
	}
	return p, nil
}

func (p Parameters) String() string {
	return fmt.Sprintf("{Level: %s, Type: %s}", p.Level, p.Type)
}

func (p Parameters) parseLevel(l string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l)); err != nil {
		return slog.Level(0), fmt.Errorf("invalid log level: %w", err)
	}
	return level, nil
}

func (p Parameters) parseType(t string) (LoggerType, error) {
	var lt LoggerType
	if err := lt.UnmarshalText([]byte(t)); err != nil {
		return LoggerText, fmt.Errorf("invalid logger type: %w", err)
	}
	return lt, nil
}
