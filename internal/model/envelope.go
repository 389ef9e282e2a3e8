package model

// Encoding tags how an envelope body is represented on the wire. It must
// always travel with the payload; receivers never sniff compression.
type Encoding string

const (
	EncodingNone       Encoding = "none"
	EncodingGzipBase64 Encoding = "gzip-base64"
)

// Envelope is the wire form of a draft after rewriting and codec application.
type Envelope struct {
	Title           string   `json:"title"`
	Body            string   `json:"content"`
	PrimaryImageURL *string  `json:"image_url"`
	Encoding        Encoding `json:"encoding,omitempty"`
}

func (e Envelope) ImageURL() string {
	if e.PrimaryImageURL == nil {
		return ""
	}
	return *e.PrimaryImageURL
}
