package driven

import "context"

// VisionService answers text prompts about a single image.
// Used by the icon classifier; implementations must be safe to call sequentially
// with many small PNG crops.
type VisionService interface {
	// Describe sends the image and prompt to the model and returns its raw text reply.
	Describe(ctx context.Context, image Image, prompt string) (string, error)

	// ModelName returns the name of the vision model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Image is an encoded image passed to a vision model.
type Image struct {
	// Data is the encoded image bytes.
	Data []byte

	// MIMEType is the encoding, e.g. "image/png".
	MIMEType string
}
