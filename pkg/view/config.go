package view

// Config holds the options an Engine is created with.
type Config struct {
	// Layout and Page are the logical names loaded on creation. Empty
	// names load "default".
	Layout string `json:"layout"`
	Page   string `json:"page"`

	// Extension is the file extension used by file backed stores.
	Extension string `json:"extension"`

	// Compress enables the output filter. It can be changed later with SetCompress.
	Compress bool `json:"compress"`

	// StrictVariables makes snippets that read undefined variables fail.
	StrictVariables bool `json:"strict_variables"`

	// OpenDelim and CloseDelim override the "<?" and "?>" snippet delimiters.
	OpenDelim  string `json:"open_delim,omitempty"`
	CloseDelim string `json:"close_delim,omitempty"`
}

// DefaultConfig returns a Config that loads the default layout and page,
// with compression off and lenient variables.
func DefaultConfig() *Config {
	return &Config{
		Layout:          "",
		Page:            "",
		Extension:       ".html",
		Compress:        false,
		StrictVariables: false,
	}
}
