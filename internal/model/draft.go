package model

import "unicode/utf8"

// LocalAsset is an image file attached to a draft that has not been uploaded
// yet.
type LocalAsset struct {
	Filename string
	Data     []byte
	MimeType string
}

func (a LocalAsset) Size() int64 {
	return int64(len(a.Data))
}

// ResolvedAsset ties an original filename to the durable URL it was uploaded
// to. There is at most one per filename per draft.
type ResolvedAsset struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Draft is in-progress authored content plus its local image files.
type Draft struct {
	Title  string
	Body   string
	Assets []LocalAsset
}

// BodyChars counts characters, not bytes, since the content cap is expressed
// in characters.
func (d *Draft) BodyChars() int {
	return utf8.RuneCountInString(d.Body)
}

// AssetNames returns the distinct asset filenames in draft order.
func (d *Draft) AssetNames() []string {
	seen := make(map[string]struct{}, len(d.Assets))
	names := make([]string, 0, len(d.Assets))
	for _, a := range d.Assets {
		if _, ok := seen[a.Filename]; ok {
			continue
		}
		seen[a.Filename] = struct{}{}
		names = append(names, a.Filename)
	}
	return names
}
