package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/qcwatch/internal/paths"
	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
)

// Config keys.
const (
	cfgKeyDataDir      = "data_dir"
	cfgKeyDatabase     = "database"
	cfgKeyWorkers      = "workers"
	cfgKeyScanDir      = "scan.dir"
	cfgKeyExtensions   = "scan.extensions"
	cfgKeyTimezone     = "scan.timezone"
	cfgKeyHelperSource = "helpers.source"
	cfgKeyHelperDir    = "helpers.dir"
	cfgKeyExclusions   = "exclusions"
	cfgKeyCVLabel      = "cv.label"
	cfgKeyCVName       = "cv.name"
	cfgKeyCVURI        = "cv.uri"
	cfgKeyCVVersion    = "cv.version"
	cfgKeyInstruments  = "instruments"
	cfgKeyMetadata     = "metadata"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# qcwatch configuration

# Data directory holding the database and the scan checkpoint
# (overridable by --data-dir).
# data_dir:

# database: qcwatch.db
workers: 4

scan:
  # dir: /srv/instruments/raw
  extensions: [".raw"]
  # IANA zone of the instrument clocks, for sample dates without an
  # offset. Defaults to the local zone.
  # timezone: Europe/Berlin

helpers:
  # Directory holding the packaged helper executables; copied into
  # helpers.dir on first use.
  # source:
  # dir:

# YAML file with statuslog-long, statuslog-short, tunemethod-long and
# tunemethod-short exclusion lists.
# exclusions:

cv:
  label: MS
  name: Proteomics Standards Initiative Mass Spectrometry Ontology
  uri: https://raw.githubusercontent.com/HUPO-PSI/psi-ms-CV/master/psi-ms.obo
  version: "4.1"

# Instrument name by regular expression over the log file path.
instruments: []
#  - name: orbitrap-01
#    pattern: /orbitrap-01/

# Run metadata from the first capture group of a regular expression.
metadata: []
#  - name: project
#    pattern: /projects/([^/]+)/
`

// loadConfig reads config.yaml from configDir using Viper. It creates the
// config directory and a default config.yaml on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyWorkers, types.DefaultWorkers)
	v.SetDefault(cfgKeyDatabase, types.DefaultDatabase)
	v.SetDefault(cfgKeyExtensions, []string{".raw"})
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// buildConfig converts viper state into the engine's Config. dataDirFlag
// takes precedence over data_dir.
func buildConfig(v *viper.Viper, dataDirFlag string) (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(dataDirFlag, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	helperDir, err := paths.ResolveHelperDir(v.GetString(cfgKeyHelperDir), dataDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve helper dir: %w", err)
	}

	cfg := types.Config{
		DataDir:        dataDir,
		Database:       v.GetString(cfgKeyDatabase),
		Workers:        v.GetInt(cfgKeyWorkers),
		ScanDir:        v.GetString(cfgKeyScanDir),
		Extensions:     v.GetStringSlice(cfgKeyExtensions),
		Timezone:       v.GetString(cfgKeyTimezone),
		HelperSource:   v.GetString(cfgKeyHelperSource),
		HelperDir:      helperDir,
		ExclusionsFile: v.GetString(cfgKeyExclusions),
		CV: types.CV{
			Label:   v.GetString(cfgKeyCVLabel),
			Name:    v.GetString(cfgKeyCVName),
			URI:     v.GetString(cfgKeyCVURI),
			Version: v.GetString(cfgKeyCVVersion),
		},
	}
	if err := v.UnmarshalKey(cfgKeyInstruments, &cfg.Instruments); err != nil {
		return types.Config{}, fmt.Errorf("%w: instruments: %v", types.ErrMappingInvalid, err)
	}
	if err := v.UnmarshalKey(cfgKeyMetadata, &cfg.Metadata); err != nil {
		return types.Config{}, fmt.Errorf("%w: metadata: %v", types.ErrMappingInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadRuntimeConfig resolves the config directory from the global flags,
// reads config.yaml and builds the engine Config.
func loadRuntimeConfig() (types.Config, string, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return types.Config{}, "", fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return types.Config{}, "", err
	}
	cfg, err := buildConfig(v, flags.dataDir)
	if err != nil {
		return types.Config{}, "", err
	}
	return cfg, configDir, nil
}
