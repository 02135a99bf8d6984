package dataforseo

// Provider status codes carried in response bodies. The transport layer
// reports 200 even for failed tasks; these are the codes that matter.
const (
	StatusOK          = 20000
	StatusRateLimited = 40202
	StatusInvalidKeys = 40501
)

// TaskParams carries the per-task targeting parameters.
type TaskParams struct {
	LocationCode int    `json:"location_code,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// MonthlySearch is one month of historical volume as returned by the API.
type MonthlySearch struct {
	Year   int   `json:"year"`
	Month  int   `json:"month"`
	Volume int64 `json:"search_volume"`
}

// KeywordResult is one keyword metric row from any endpoint.
type KeywordResult struct {
	Keyword         string          `json:"keyword"`
	SearchVolume    *int64          `json:"search_volume"`
	CPC             *float64        `json:"cpc"`
	Competition     *float64        `json:"competition"`
	MonthlySearches []MonthlySearch `json:"monthly_searches"`
}

// envelope is the outer response shape shared by all endpoints.
type envelope struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	TasksCount    int    `json:"tasks_count"`
	TasksError    int    `json:"tasks_error"`
	Tasks         []task `json:"tasks"`
}

type task struct {
	ID            string       `json:"id"`
	StatusCode    int          `json:"status_code"`
	StatusMessage string       `json:"status_message"`
	Result        []taskResult `json:"result"`
}

// taskResult covers both flat endpoints (search_volume) and nested ones
// (related_keywords, keywords_for_site) that wrap rows in items.
type taskResult struct {
	Keyword         string          `json:"keyword"`
	SearchVolume    *int64          `json:"search_volume"`
	CPC             *float64        `json:"cpc"`
	Competition     *float64        `json:"competition"`
	MonthlySearches []MonthlySearch `json:"monthly_searches"`
	Items           []nestedItem    `json:"items"`
}

type nestedItem struct {
	KeywordData keywordData `json:"keyword_data"`
}

type keywordData struct {
	Keyword     string         `json:"keyword"`
	KeywordInfo *KeywordResult `json:"keyword_info"`
}
