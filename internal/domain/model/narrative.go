package model

import "context"

// NarrativeClient определяет интерфейс для взаимодействия с сервисом генерации текста
type NarrativeClient interface {
	// Generate returns free text for a structured fact prompt. The caller owns
	// the timeout and treats the output as untrusted text.
	Generate(ctx context.Context, prompt string) (string, error)
}
