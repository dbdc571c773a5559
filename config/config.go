/*
Package config loads the run configuration of a detlite program from a YAML
file.
*/
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/detlite/go-detlite/detector"
	"github.com/detlite/go-detlite/logging"
	"gopkg.in/yaml.v3"
)

// Config is the complete run configuration
type Config struct {
	// ExecutionProvider is cpu or gpu.  It is checked when the detector
	// initializes, not on load
	ExecutionProvider string `yaml:"execution_provider"`

	ModelVariant        string         `yaml:"model_variant"`
	ConfidenceThreshold float32        `yaml:"confidence_threshold"`
	Models              ModelsConfig   `yaml:"models"`
	Runtime             RuntimeConfig  `yaml:"runtime"`
	Capture             CaptureConfig  `yaml:"capture"`
	Stream              StreamConfig   `yaml:"stream"`
	Log                 logging.Config `yaml:"log"`

	// MetricsAddr is the listen address of the metrics, health and MJPEG
	// HTTP server, empty disables it
	MetricsAddr string `yaml:"metrics_addr"`

	// CPUCores is a cpu list such as 4-7 to pin the process to
	CPUCores string `yaml:"cpu_cores"`
}

// ModelsConfig holds the Model file of each variant
type ModelsConfig struct {
	TinyYOLOv2     string `yaml:"tiny_yolov2"`
	SSDMobileNetV1 string `yaml:"ssd_mobilenet_v1"`
	// ResizeFilter is bilinear, catmullrom or lanczos
	ResizeFilter string `yaml:"resize_filter"`
	// LabelFile optionally names the classes in log output
	LabelFile string `yaml:"label_file"`
}

// RuntimeConfig holds ONNX Runtime settings
type RuntimeConfig struct {
	SharedLibraryPath string `yaml:"shared_library_path"`
	IntraOpThreads    int    `yaml:"intra_op_threads"`
	InterOpThreads    int    `yaml:"inter_op_threads"`
	CUDADevice        int    `yaml:"cuda_device"`
}

// CaptureConfig holds the frame source settings
type CaptureConfig struct {
	// Source is a camera index, video file or stream URL
	Source string `yaml:"source"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// StreamConfig holds the pipeline and display settings
type StreamConfig struct {
	RefreshRate  int `yaml:"refresh_rate"`
	FPSFrequency int `yaml:"fps_frequency"`

	// Display is window or mjpeg
	Display string `yaml:"display"`

	// OverlayColor is a color name, #RRGGBB or palette to give every box
	// its own color
	OverlayColor   string `yaml:"overlay_color"`
	Label          string `yaml:"label"`
	LabelAlignment string `yaml:"label_alignment"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		ExecutionProvider:   "cpu",
		ModelVariant:        detector.GridBased.String(),
		ConfidenceThreshold: 0.5,
		Models: ModelsConfig{
			TinyYOLOv2:     detector.TinyYOLOv2ModelFile,
			SSDMobileNetV1: detector.SSDMobileNetV1ModelFile,
			ResizeFilter:   "bilinear",
		},
		Capture: CaptureConfig{
			Source: "0",
			Width:  640,
			Height: 480,
		},
		Stream: StreamConfig{
			RefreshRate:    60,
			FPSFrequency:   10,
			Display:        "window",
			OverlayColor:   "yellow",
			LabelAlignment: "left",
		},
		Log: logging.Config{
			Level: "info",
		},
		MetricsAddr: "localhost:8080",
	}
}

// Load reads a YAML configuration file.  Keys missing from the file keep
// their Default values
func Load(path string) (*Config, error) {

	data, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ModelFile returns the Model file of the configured variant
func (c *Config) ModelFile() string {

	if v, err := detector.ParseVariant(c.ModelVariant); err == nil && v == detector.RegionProposal {
		return c.Models.SSDMobileNetV1
	}

	return c.Models.TinyYOLOv2
}

// Validate checks the configuration values
func (c *Config) Validate() error {

	var errs []error

	if _, err := detector.ParseVariant(c.ModelVariant); err != nil {
		errs = append(errs, err)
	}

	if !(c.ConfidenceThreshold >= 0 && c.ConfidenceThreshold <= 1) {
		errs = append(errs, fmt.Errorf("confidence_threshold %v must be within [0,1]",
			c.ConfidenceThreshold))
	}

	if c.ModelFile() == "" {
		errs = append(errs, fmt.Errorf("no model file for variant %s", c.ModelVariant))
	}

	if c.Capture.Source == "" {
		errs = append(errs, errors.New("capture source is required"))
	}

	if c.Capture.Width < 0 || c.Capture.Height < 0 {
		errs = append(errs, errors.New("capture size must not be negative"))
	}

	if c.Stream.RefreshRate <= 0 {
		errs = append(errs, fmt.Errorf("refresh_rate %d must be positive", c.Stream.RefreshRate))
	}

	if c.Stream.FPSFrequency <= 0 {
		errs = append(errs, fmt.Errorf("fps_frequency %d must be positive", c.Stream.FPSFrequency))
	}

	switch c.Stream.Display {
	case "window", "mjpeg":
	default:
		errs = append(errs, fmt.Errorf("unknown display %q, use window or mjpeg", c.Stream.Display))
	}

	if c.Stream.Display == "mjpeg" && c.MetricsAddr == "" {
		errs = append(errs, errors.New("mjpeg display needs metrics_addr to serve on"))
	}

	if c.Runtime.IntraOpThreads < 0 || c.Runtime.InterOpThreads < 0 {
		errs = append(errs, errors.New("runtime thread counts must not be negative"))
	}

	return errors.Join(errs...)
}
