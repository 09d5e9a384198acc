// Package extract turns statement documents into raw (name, amount) lines
// using a generative vision model.
package extract

import (
	"context"
	"errors"
)

// ErrNoContent is returned when the model answers with no text.
var ErrNoContent = errors.New("model returned no content")

// Document is one statement file sent to the model.
type Document struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Request is one generation call.
type Request struct {
	Prompt   string
	Document Document
	JSON     bool // ask for a JSON response body
}

// Provider is the model port.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) (string, error)

func (f ProviderFunc) Generate(ctx context.Context, req Request) (string, error) { return f(ctx, req) }
