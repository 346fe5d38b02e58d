package epub

import "errors"

// Sentinel errors returned by the epub package.
var (
	// ErrArchiveRead indicates the archive is missing, corrupt, or an entry
	// could not be read. Extraction may be retried.
	ErrArchiveRead = errors.New("epub: archive read failed")

	// ErrAssetWrite indicates the asset directory or an extracted image
	// could not be written.
	ErrAssetWrite = errors.New("epub: asset write failed")

	// ErrParse indicates a content document could not be decoded.
	// Callers paginating a whole archive skip such documents.
	ErrParse = errors.New("epub: content document parse failed")

	// ErrNoCover indicates no cover image entry was found in the archive.
	ErrNoCover = errors.New("epub: no cover image found")
)
