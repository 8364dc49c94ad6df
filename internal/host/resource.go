package host

import (
	"encoding/base64"
	"fmt"
)

// Resource describes the content a renderer mounts into the isolated
// surface: inline markup, a remote reference, or an encoded payload.
// Exactly one of HTML, URL, or Blob is set.
type Resource struct {
	// HTML is inline markup delivered directly to the surface.
	HTML string

	// URL is a remote reference the surface loads itself.
	URL string

	// Blob is a decoded payload with its MIME type.
	Blob     []byte
	MIMEType string

	// Origin is the origin associated with the mounted surface. Inbound
	// messages from any other origin are discarded.
	Origin string
}

// InlineResource wraps inline markup.
func InlineResource(html, origin string) Resource {
	return Resource{HTML: html, Origin: origin}
}

// RemoteResource references content by URL.
func RemoteResource(url, origin string) Resource {
	return Resource{URL: url, Origin: origin}
}

// EncodedResource decodes a base64 payload.
func EncodedResource(encoded, mimeType, origin string) (Resource, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Resource{}, fmt.Errorf("decode resource payload: %w", err)
	}

	return Resource{Blob: blob, MIMEType: mimeType, Origin: origin}, nil
}

// Document returns the markup to deliver into the surface, or "" for a
// remote resource the surface loads itself.
func (r Resource) Document() string {
	switch {
	case r.HTML != "":
		return r.HTML
	case len(r.Blob) > 0:
		return string(r.Blob)
	default:
		return ""
	}
}

// IsRemote reports whether the surface loads the content by reference.
func (r Resource) IsRemote() bool {
	return r.URL != "" && r.HTML == "" && len(r.Blob) == 0
}
