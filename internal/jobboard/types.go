package jobboard

const (
	DefaultLocation = "Remote"
	DefaultResults  = 10
)

// SearchParams describe one logical search across all configured boards.
type SearchParams struct {
	Query      string
	Location   string
	Results    int
	RemoteOnly bool
}

func (p SearchParams) withDefaults() SearchParams {
	if p.Location == "" {
		p.Location = DefaultLocation
	}
	if p.Results <= 0 {
		p.Results = DefaultResults
	}
	return p
}

// Posting is one normalized job record. Board identity is not preserved;
// records from every board share this shape.
type Posting struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	URL         string   `json:"job_url"`
	Description string   `json:"description"`
	SalaryMin   *float64 `json:"salary_min,omitempty"`
	SalaryMax   *float64 `json:"salary_max,omitempty"`
}

// rawPosting mirrors the bridge's per-job payload. Boards expose uneven
// field sets; everything here is optional.
type rawPosting struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	JobURL       string   `json:"jobUrl"`
	JobURLDirect string   `json:"jobUrlDirect"`
	Description  string   `json:"description"`
	MinAmount    *float64 `json:"minAmount"`
	MaxAmount    *float64 `json:"maxAmount"`
}

func (r *rawPosting) normalize() Posting {
	url := r.JobURL
	if url == "" {
		url = r.JobURLDirect
	}

	return Posting{
		ID:          r.ID,
		Title:       r.Title,
		Company:     r.Company,
		Location:    r.Location,
		URL:         url,
		Description: r.Description,
		SalaryMin:   r.MinAmount,
		SalaryMax:   r.MaxAmount,
	}
}
