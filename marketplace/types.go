package marketplace

// Currency describes a project's listing currency.
type Currency struct {
	Code string `json:"code"`

	// ExchangeRate converts one unit of this currency to USD.
	ExchangeRate float64 `json:"exchange_rate"`
}

// Budget is the client's stated budget range in the listing currency.
type Budget struct {
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
}

// Upgrades carries the listing upgrade flags relevant to bidding.
type Upgrades struct {
	NDA bool `json:"NDA"`
}

// Project types reported by the feed.
const (
	ProjectTypeFixed  = "fixed"
	ProjectTypeHourly = "hourly"
)

// ProjectStatusActive is the only status open for bidding.
const ProjectStatusActive = "active"

// RawProject is a candidate project as returned by the search feed.
// It carries only the summary fields; the full description and final
// budget bounds come from a ProjectDetails lookup.
type RawProject struct {
	ID                 int64    `json:"id"`
	OwnerID            int64    `json:"owner_id"`
	Title              string   `json:"title"`
	PreviewDescription string   `json:"preview_description"`
	Status             string   `json:"status"`
	Type               string   `json:"type"`
	Currency           Currency `json:"currency"`
	Budget             Budget   `json:"budget"`
	Upgrades           Upgrades `json:"upgrades"`
	SubmitDate         int64    `json:"submitdate"`
	SEOURL             string   `json:"seo_url"`
}

// ProjectDetail is the full project record from a details lookup.
type ProjectDetail struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Budget      Budget `json:"budget"`
}

// Country identifies a user's country.
type Country struct {
	Name string `json:"name"`
}

// Location is a user's reported location.
type Location struct {
	Country Country `json:"country"`
}

// User is the owner record for a project listing.
type User struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Location Location `json:"location"`
}

// SearchFilter selects which projects the feed returns.
type SearchFilter struct {
	// SkillIDs restricts results to listings tagged with any of these skills.
	SkillIDs []int

	// LanguageCodes restricts results to listings in these languages.
	LanguageCodes []string
}

// BidRequest describes a bid to place on a project.
type BidRequest struct {
	ProjectID           int64   `json:"project_id"`
	BidderID            int64   `json:"bidder_id"`
	Amount              float64 `json:"amount"`
	Period              int     `json:"period"`
	MilestonePercentage int     `json:"milestone_percentage"`
	Description         string  `json:"description"`
}

// Bid is the marketplace's record of a placed bid.
type Bid struct {
	ID        int64   `json:"id"`
	ProjectID int64   `json:"project_id"`
	BidderID  int64   `json:"bidder_id"`
	Amount    float64 `json:"amount"`
	Period    int     `json:"period"`
}
