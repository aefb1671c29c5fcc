package domain

// StagedImage is a local, short-lived copy of a stored image handed to an extraction backend.
type StagedImage struct {
	Path     string
	Filename string
	MIMEType string
}

// BackendFile is the backend-side reference returned by an upload.
// Backends fill only the fields they need.
type BackendFile struct {
	Name     string
	URI      string
	MIMEType string
	Data     []byte
}

// ExtractionPrompt is the versioned instruction sent alongside the image.
type ExtractionPrompt struct {
	Version string
	Text    string
}
