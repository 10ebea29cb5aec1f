package speech

import (
	"context"
	"encoding/base64"
)

const (
	MIMETypeMPEG = "audio/mpeg"
	MIMETypeWAV  = "audio/wav"
)

// Audio is a synthesized clip held in memory.
type Audio struct {
	Data     []byte
	MIMEType string
}

// DataURI encodes the clip as data:<mime>;base64,<payload>.
func (a *Audio) DataURI() string {
	return "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

type Provider interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
}
