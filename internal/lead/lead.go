package lead

import "time"

// Status is the pipeline stage of a lead
type Status string

const (
	// StatusDiscovered marks a lead written by discovery, awaiting enrichment
	StatusDiscovered Status = "discovered"
	// StatusProcessed marks a lead handled by the downstream pipeline
	StatusProcessed Status = "processed"
)

// Engine identifiers recorded in engine_used
const (
	EngineChromedp = "google_maps_chromedp"
	EngineRod      = "google_maps_rod"
)

// Lead is a persisted business record keyed by its normalized website URL
type Lead struct {
	Niche       string    `json:"niche"`
	Location    string    `json:"location"`
	CompanyName string    `json:"company_name"`
	WebsiteURL  string    `json:"website_url"`
	Rating      *float64  `json:"rating"`
	ReviewCount *int      `json:"review_count"`
	Status      Status    `json:"status"`
	EngineUsed  string    `json:"engine_used"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// NewDiscovered builds a freshly discovered lead. Rating and review count
// are left unset.
func NewDiscovered(niche, location, company, website, engine string) Lead {
	return Lead{
		Niche:       niche,
		Location:    location,
		CompanyName: company,
		WebsiteURL:  website,
		Status:      StatusDiscovered,
		EngineUsed:  engine,
		CreatedAt:   time.Now().UTC(),
	}
}

// ParseStatus converts a user-supplied status string
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusDiscovered, StatusProcessed:
		return Status(s), true
	default:
		return "", false
	}
}
