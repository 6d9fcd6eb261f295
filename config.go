package gosharepoint

import (
	"net/http"
	"os"
	path "path/filepath"
	"strings"
	"time"

	toml "github.com/BurntSushi/toml"
)

// Config holds the connection settings of a Client.
type Config struct {
	SiteURL     string        // base URL of the SharePoint site, e.g. https://host/sites/team
	Application string        // application name reported in the User-Agent header
	Timeout     time.Duration // per-round request timeout. 0 means no timeout

	// PageSize is the row limit compiled into paged requests when a
	// Request doesn't set one. 0 falls back to defaultPageSize.
	PageSize int

	// Transporter replaces the default HTTP transport. Authentication
	// and retry policy belong here.
	Transporter http.RoundTripper
}

func (cfg *Config) validate() error {
	if cfg.SiteURL == "" {
		return ErrEmptySiteURL
	}
	return nil
}

// LoadConnectionConfig returns connection configs loaded from the toml file.
// By default, SHAREPOINT_HOME (toml file path) is os.home/.sharepoint
// and SHAREPOINT_DEFAULT_CONNECTION_NAME (profile) is 'default'.
func LoadConnectionConfig() (*Config, error) {
	cfg := &Config{}
	profile := getConnectionProfile(os.Getenv("SHAREPOINT_DEFAULT_CONNECTION_NAME"))
	configDir, err := getTomlFilePath(os.Getenv("SHAREPOINT_HOME"))
	if err != nil {
		return nil, err
	}
	tomlFilePath := path.Join(configDir, "connections.toml")
	tomlInfo := make(map[string]interface{})
	if _, err = toml.DecodeFile(tomlFilePath, &tomlInfo); err != nil {
		return nil, &SPError{
			Number:      ErrCodeTomlFileParsingFailed,
			Message:     errMsgFailedToParseToml,
			MessageArgs: []interface{}{err},
		}
	}
	connection, exist := tomlInfo[profile]
	if !exist {
		return nil, &SPError{
			Number:      ErrCodeFailedToFindProfile,
			Message:     errMsgFailedToFindProfile,
			MessageArgs: []interface{}{profile},
		}
	}
	connectionConfig, ok := connection.(map[string]interface{})
	if !ok {
		return nil, &SPError{
			Number:      ErrCodeTomlFileParsingFailed,
			Message:     errMsgFailedToParseToml,
			MessageArgs: []interface{}{"profile is not a table"},
		}
	}
	if err = parseToml(cfg, connectionConfig); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseToml(cfg *Config, connection map[string]interface{}) error {
	parseErr := &SPError{
		Number:  ErrCodeTomlFileParsingFailed,
		Message: errMsgFailedToParseToml,
	}
	for key, value := range connection {
		var err error
		switch strings.ToLower(key) {
		case "site_url", "siteurl", "url":
			cfg.SiteURL, err = parseTomlString(value)
		case "application":
			cfg.Application, err = parseTomlString(value)
		case "timeout":
			var seconds int64
			seconds, err = parseTomlInt(value)
			cfg.Timeout = time.Duration(seconds) * time.Second
		case "page_size", "pagesize":
			var v int64
			v, err = parseTomlInt(value)
			cfg.PageSize = int(v)
		default:
			logger.Debugf("unknown connection parameter %v. skipping", key)
		}
		if err != nil {
			parseErr.MessageArgs = []interface{}{err}
			return parseErr
		}
	}
	return nil
}

func parseTomlString(value interface{}) (string, error) {
	v, ok := value.(string)
	if !ok {
		return "", &SPError{
			Number:      ErrCodeTomlFileParsingFailed,
			Message:     errMsgFailedToParseToml,
			MessageArgs: []interface{}{"expected a string value"},
		}
	}
	return v, nil
}

func parseTomlInt(value interface{}) (int64, error) {
	v, ok := value.(int64)
	if !ok {
		return 0, &SPError{
			Number:      ErrCodeTomlFileParsingFailed,
			Message:     errMsgFailedToParseToml,
			MessageArgs: []interface{}{"expected an integer value"},
		}
	}
	return v, nil
}

func getConnectionProfile(profile string) string {
	if profile != "" {
		return profile
	}
	return "default"
}

func getTomlFilePath(filePath string) (string, error) {
	if filePath != "" {
		return path.Abs(filePath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return path.Join(homeDir, ".sharepoint"), nil
}
