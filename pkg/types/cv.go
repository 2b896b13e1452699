package types

// CV is a controlled vocabulary: a named, versioned terminology source.
// Label is the natural key. Instruments and Properties reference a CV by ID.
type CV struct {
	CVID    string `json:"cv_id"`
	Label   string `json:"label"`
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Version string `json:"version"`
}

// Key returns the natural key of the CV.
func (c *CV) Key() NaturalKey {
	return CVKey(c.Label)
}
