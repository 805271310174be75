package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// VehicleConfig identifies the vehicle whose guide is being mirrored.
	// ID is either a full 17 character VIN or a UK registration plate which
	// will be resolved to a VIN first. It is kept secret so that neither
	// logs nor configuration dumps ever show it.
	VehicleConfig struct {
		ID       SecretString `yaml:"id"`
		Language string       `yaml:"language" validate:"required"`
	}

	ImagesConfig struct {
		Optimize             bool    `yaml:"optimize"`
		JPEGQuality          int     `yaml:"jpeg_quality_level" validate:"min=40,max=100"`
		ScaleFactor          float64 `yaml:"scale_factor" validate:"gte=0.0"`
		Grayscale            bool    `yaml:"grayscale"`
		RasterizePlaceholder bool    `yaml:"rasterize_placeholder"`
	}

	DocumentConfig struct {
		ExtendMode         PresentationMode `yaml:"extend_mode"`
		TOCPlacement       TOCPlacement     `yaml:"toc_placement"`
		OnFetchError       OnFetchError     `yaml:"on_fetch_error"`
		TemplatesPath      string           `yaml:"templates_path,omitempty" sanitize:"path_clean" validate:"omitempty,dir"`
		OutputNameTemplate string           `yaml:"output_name_template"`
		Images             ImagesConfig     `yaml:"images"`
	}

	NetworkConfig struct {
		BaseURL         string `yaml:"base_url" validate:"required,url"`
		VRMLookupURL    string `yaml:"vrm_lookup_url" validate:"required,url"`
		TimeoutSec      int    `yaml:"timeout_sec" validate:"min=1"`
		FetchWorkers    int    `yaml:"fetch_workers" validate:"min=1,max=16"`
		DownloadWorkers int    `yaml:"download_workers" validate:"min=1,max=16"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Vehicle   VehicleConfig  `yaml:"vehicle"`
		Document  DocumentConfig `yaml:"document"`
		Network   NetworkConfig  `yaml:"network"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

// Dump serializes active configuration. Secrets are masked by their types.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to serialize configuration: %w", err)
	}
	return data, nil
}
