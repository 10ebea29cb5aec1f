package avatar

import "context"

const BillingURL = "https://replicate.com/account/billing"

// Request pairs driving audio with the face to animate.
type Request struct {
	AudioURI       string
	SourceImageURL string
}

// Synthesizer renders a talking-head clip and returns the URL where the
// provider hosts it.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (string, error)
}

// InsufficientCreditsError means the provider refused the job for billing
// reasons. It is the only provider failure with its own message.
type InsufficientCreditsError struct {
	Provider string
	Err      error
}

func (e *InsufficientCreditsError) Error() string {
	return "Insufficient " + e.Provider + " credits. Please add billing at " + BillingURL
}

func (e *InsufficientCreditsError) Unwrap() error {
	return e.Err
}
