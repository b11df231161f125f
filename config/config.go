// Package config provides configuration structures for the recorder.
package config

import (
	"time"
)

type Config struct {
	Path        string `json:"path" yaml:"path" mapstructure:"path"`
	ConfigPath  string `json:"configPath" yaml:"configPath" mapstructure:"configPath"`
	Debug       bool   `json:"debug" yaml:"debug" mapstructure:"debug"`
	DisableANSI bool   `json:"disableANSI" yaml:"disableANSI" mapstructure:"disableANSI"`
	DisableTele bool   `json:"disableTele" yaml:"disableTele" mapstructure:"disableTele"`
	// URL is the page opened when a command is not given one.
	URL      string `json:"url" yaml:"url" mapstructure:"url"`
	TestsDir string `json:"testsDir" yaml:"testsDir" mapstructure:"testsDir"`
	// Language is auto, javascript or python.
	Language    string          `json:"language" yaml:"language" mapstructure:"language"`
	Record      Record          `json:"record" yaml:"record" mapstructure:"record"`
	Bridge      Bridge          `json:"bridge" yaml:"bridge" mapstructure:"bridge"`
	Check       Check           `json:"check" yaml:"check" mapstructure:"check"`
	DebugModule map[string]bool `json:"debugModules" yaml:"debugModules" mapstructure:"debugModules"`
}

type Record struct {
	PollInterval time.Duration `json:"pollInterval" yaml:"pollInterval" mapstructure:"pollInterval"`
	DrainGrace   time.Duration `json:"drainGrace" yaml:"drainGrace" mapstructure:"drainGrace"`
	WaitDelay    time.Duration `json:"waitDelay" yaml:"waitDelay" mapstructure:"waitDelay"`
	LiveInsert   bool          `json:"liveInsert" yaml:"liveInsert" mapstructure:"liveInsert"`
	InsertInto   string        `json:"insertInto" yaml:"insertInto" mapstructure:"insertInto"`
	Line         int           `json:"line" yaml:"line" mapstructure:"line"`
}

type Bridge struct {
	ScriptDir string `json:"scriptDir" yaml:"scriptDir" mapstructure:"scriptDir"`
	Locator   string `json:"locator" yaml:"locator" mapstructure:"locator"`
}

type Check struct {
	ProbeTimeout time.Duration `json:"probeTimeout" yaml:"probeTimeout" mapstructure:"probeTimeout"`
}

// TestsDirOrDefault mirrors the settings behaviour: a blank value means "tests".
func (c *Config) TestsDirOrDefault() string {
	if c.TestsDir == "" {
		return "tests"
	}
	return c.TestsDir
}
