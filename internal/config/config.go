// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/validation"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that override config keys, e.g.
// LOAN_TRACKER_PREVIEW_PERIODS.
const EnvPrefix = "LOAN_TRACKER"

// Configuration holds all configuration for loan-tracker.
type Configuration struct {
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
	Preview PreviewConfig `yaml:"preview,omitempty"`
	Loan    LoanConfig    `yaml:"loan,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// PreviewConfig controls the amortization preview.
type PreviewConfig struct {
	Periods int `yaml:"periods,omitempty"`
}

// LoanConfig holds engine policy options.
type LoanConfig struct {
	TenurePolicy string `yaml:"tenurePolicy,omitempty"` // round, truncate
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A missing file yields the defaults.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file, %s", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("preview.periods", constants.DefaultPreviewPeriods)
	v.SetDefault("loan.tenurePolicy", constants.TenurePolicyRound)
}

// Validate rejects settings the engine cannot run with.
func (conf *Configuration) Validate() error {
	if err := validation.ValidateTenurePolicy(conf.Loan.TenurePolicy); err != nil {
		return err
	}
	return validation.ValidateOutputFormat(conf.Output.Format)
}

// ValidateConfiguration corrects out-of-range settings and returns a warning
// for each correction.
func (conf *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if err := validation.ValidatePreviewPeriods(conf.Preview.Periods); err != nil {
		corrected := constants.DefaultPreviewPeriods
		if conf.Preview.Periods > constants.MaxPreviewPeriods {
			corrected = constants.MaxPreviewPeriods
		}
		warnings = append(warnings, fmt.Sprintf("%v; using %d", err, corrected))
		conf.Preview.Periods = corrected
	}

	if conf.Loan.TenurePolicy == constants.TenurePolicyTruncate {
		warnings = append(warnings, "tenure policy truncate drops fractional months from tenures given in years")
	}

	return warnings
}
