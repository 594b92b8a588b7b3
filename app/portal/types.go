package portal

// Portal describes one remote badge-in portal: where to log in, where the
// visit history lives, and the CSS selectors the extractor drives.
type Portal struct {
	Info      Info      `yaml:"portal"`
	Selectors Selectors `yaml:"selectors"`
	Markers   Markers   `yaml:"markers"`
	Settings  Settings  `yaml:"settings"`
}

type Info struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	LoginURL   string `yaml:"login_url"`
	HistoryURL string `yaml:"history_url"`
	LogoutURL  string `yaml:"logout_url"`
}

type Selectors struct {
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Submit      string `yaml:"submit"`
	LoginError  string `yaml:"login_error"`
	HistoryRows string `yaml:"history_rows"`
	Logout      string `yaml:"logout"`
}

type Markers struct {
	// SignedOut is literal page text whose presence after submitting the
	// login form means authentication silently failed.
	SignedOut string `yaml:"signed_out"`
}

type Settings struct {
	NavigationTimeout int `yaml:"navigation_timeout"` // seconds
	LoginTimeout      int `yaml:"login_timeout"`      // seconds
	TableTimeout      int `yaml:"table_timeout"`      // seconds
	SettleDelay       int `yaml:"settle_delay"`       // seconds
}
