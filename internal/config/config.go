package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"camfusion/internal/fusion"
)

type Config struct {
	CameraID    int     `validate:"gte=0"`
	VideoSource string  // file or stream URL; overrides CameraID when set
	FrameScale  float64 `validate:"gt=0"`
	MaxFPS      float64 `validate:"gte=0"` // 0 = as fast as frames arrive

	PrimaryCascade string `validate:"required"`
	HueCascade     string `validate:"required"`
	RangeCascade   string `validate:"required"`

	ScaleContainer  float64 `validate:"gt=0"`
	NumFrames       int     `validate:"min=1"`
	NumLimCasc      int     `validate:"min=1"`
	SelectionPolicy string  `validate:"oneof=literal prefer-exact"`

	WindowTitle string
	ShowRaw     bool // also draw every raw detector box

	LogDirectory string `validate:"required"`
	LogLevel     string `validate:"oneof=trace debug info warning error"`
	ResetLogs    bool
}

var validate = validator.New()

// Load reads .env from the working directory, if present, and builds the
// configuration from the environment.
func Load() (*Config, error) {
	return LoadFrom()
}

// LoadFrom is Load with explicit env files. Variables already set in the
// environment win over the files. Missing files are ignored.
func LoadFrom(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		CameraID:    getEnvAsInt("CAMERA_ID", 1),
		VideoSource: getEnv("VIDEO_SOURCE", ""),
		FrameScale:  getEnvAsFloat("FRAME_SCALE", 1.0),
		MaxFPS:      getEnvAsFloat("MAX_FPS", 0),

		PrimaryCascade: getEnv("CASCADE_PRIMARY", "18N.xml"),
		HueCascade:     getEnv("CASCADE_HUE", "19H.xml"),
		RangeCascade:   getEnv("CASCADE_RANGE", "20In.xml"),

		ScaleContainer:  getEnvAsFloat("SCALE_CONTAINER", fusion.DefaultScaleContainer),
		NumFrames:       getEnvAsInt("NUM_FRAMES", fusion.DefaultWindowSize),
		NumLimCasc:      getEnvAsInt("NUM_LIM_CASC", fusion.DefaultMinSources),
		SelectionPolicy: getEnv("SELECTION_POLICY", string(fusion.PolicyLiteral)),

		WindowTitle: getEnv("WINDOW_TITLE", "camfusion"),
		ShowRaw:     getEnvAsBool("SHOW_RAW", false),

		LogDirectory: getEnv("LOG_DIR", "logs"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		ResetLogs:    getEnvAsBool("RESET_LOGS", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Fusion returns the engine constants.
func (c *Config) Fusion() fusion.Config {
	return fusion.Config{
		ScaleContainer: c.ScaleContainer,
		WindowSize:     c.NumFrames,
		MinSources:     c.NumLimCasc,
		Policy:         fusion.Policy(c.SelectionPolicy),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
