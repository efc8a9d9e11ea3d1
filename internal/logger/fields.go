package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldProvider = "llm_provider"
	FieldModel    = "llm_model"
	// FieldKey carries the label of the API key, never the key itself.
	FieldKey = "llm_key"

	FieldRunID    = "run_id"
	FieldQuery    = "query"
	FieldLocation = "location"
	FieldReviewID = "review_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields, skipping blank keys and values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to the logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// LLMFields describes the language model serving a request.
func LLMFields(provider, model, keyLabel string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
		StringField{Key: FieldKey, Value: keyLabel},
	)
}

// RunFields describes an analysis run.
func RunFields(runID, query, location string) []zap.Field {
	return StringFields(
		StringField{Key: FieldRunID, Value: runID},
		StringField{Key: FieldQuery, Value: query},
		StringField{Key: FieldLocation, Value: location},
	)
}
