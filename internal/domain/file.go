package domain

import "io"

// FileUpload is an incoming file body with the metadata the client sent.
// ContentType is advisory; services sniff the bytes before trusting it.
type FileUpload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.ReadSeeker
}
