package types

// RequirementRow is one normalized row of the vendor's recommended-version table.
type RequirementRow struct {
	ProductFamily      string `json:"product_family"`
	RecommendedVersion string `json:"recommended_version"`
	JoinKey            string `json:"join_key"`
	// Columns holds every scraped cell keyed by header label; nil marks an absent cell.
	Columns map[string]*string `json:"columns,omitempty"`
}
