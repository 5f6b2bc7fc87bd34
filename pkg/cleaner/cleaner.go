// Package cleaner turns rendered profile pages into bounded text for
// model-assisted extraction.
package cleaner

// Cleaner transforms HTML content into the text handed to the extractor.
type Cleaner interface {
	// Clean transforms the input HTML. Implementations must be safe for
	// concurrent use since pages in a chunk are cleaned in parallel.
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging.
	Name() string
}
