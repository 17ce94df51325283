package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
	"github.com/oshokin/fall-alarm/internal/logger"
)

// Config holds everything a monitoring session needs.
type Config struct {
	// ListenAddress is the gRPC control API address.
	ListenAddress string `yaml:"listen_addr"`
	// Timeout bounds control API calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// JournalFile is the SQLite incident journal path.
	JournalFile string `yaml:"journal_file"`
	// EmergencyContact is the number called and texted after a fall.
	EmergencyContact string `yaml:"emergency_contact"`
	// Location is reported in the emergency SMS when set.
	Location *fall.Location `yaml:"location,omitempty"`
	// Detection holds the classifier thresholds and timing windows.
	Detection fall.Thresholds `yaml:"detection"`
	// Escalation holds the call and SMS delays.
	Escalation Escalation `yaml:"escalation"`
	// Sensor selects the sample source.
	Sensor Sensor `yaml:"sensor"`
	// Speech configures the text-to-speech tool.
	Speech Speech `yaml:"speech"`
	// Twilio configures direct emergency calls and SMS.
	Twilio Twilio `yaml:"twilio"`
}

// Escalation holds the delays of the call-then-SMS chain.
type Escalation struct {
	// CallDelay is the time from alert to call.
	CallDelay time.Duration `yaml:"call_delay"`
	// SMSDelay is the time from call to SMS.
	SMSDelay time.Duration `yaml:"sms_delay"`
}

// Sensor selects where samples come from. Exactly one of SerialPort and ReplayFile is set.
type Sensor struct {
	// SerialPort is the accelerometer device path.
	SerialPort string `yaml:"serial_port,omitempty"`
	// BaudRate is the serial line speed.
	BaudRate int `yaml:"baud_rate,omitempty"`
	// ReplayFile is a recorded CSV stream.
	ReplayFile string `yaml:"replay_file,omitempty"`
	// Realtime replays with the recorded pacing.
	Realtime bool `yaml:"realtime,omitempty"`
	// BufferSize is the sample buffer between the source and the engine.
	BufferSize int `yaml:"buffer_size,omitempty"`
}

// Speech configures the text-to-speech tool.
type Speech struct {
	// Disabled logs messages instead of speaking them.
	Disabled bool `yaml:"disabled,omitempty"`
	// Command overrides the platform default tool.
	Command string `yaml:"command,omitempty"`
	// Args are passed before the text.
	Args []string `yaml:"args,omitempty"`
}

// Twilio holds the account used for direct calls and SMS.
type Twilio struct {
	// AccountSID identifies the account.
	AccountSID string `yaml:"account_sid,omitempty"`
	// AuthToken authenticates requests.
	AuthToken string `yaml:"auth_token,omitempty"`
	// From is the caller number.
	From string `yaml:"from,omitempty"`
}

// Enabled reports whether credentials are present.
func (t Twilio) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != ""
}

const (
	// DefaultConfigFilename is the default settings filename.
	DefaultConfigFilename = "fall-alarm-settings.yaml"

	// DefaultEnvFilename is the default dotenv filename.
	DefaultEnvFilename = ".env"

	// DefaultJournalFilename is the default incident journal filename.
	DefaultJournalFilename = "fall-alarm-journal.db"

	// DefaultListenAddress is the default control API address.
	DefaultListenAddress = "127.0.0.1:50551"

	// DefaultTimeout is the default duration for control API calls.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default permission for settings files.
	DefaultFilePermissions = 0o600
)

// Environment variables that override the YAML file.
const (
	EnvEmergencyContact = "FALL_ALARM_EMERGENCY_CONTACT"
	EnvTwilioAccountSID = "TWILIO_ACCOUNT_SID"
	EnvTwilioAuthToken  = "TWILIO_AUTH_TOKEN"
	EnvTwilioFrom       = "TWILIO_FROM_NUMBER"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errContactRequired is returned when no emergency contact is configured.
	errContactRequired = errors.New("emergency contact must be provided")
	// errSensorRequired is returned when no sample source is configured.
	errSensorRequired = errors.New("either sensor.serial_port or sensor.replay_file must be provided")
	// errSensorAmbiguous is returned when both sample sources are configured.
	errSensorAmbiguous = errors.New("sensor.serial_port and sensor.replay_file are mutually exclusive")
	// errUnknownLogLevel is returned for unparseable log levels.
	errUnknownLogLevel = errors.New("unknown log level")
	// errNegativeDelay is returned for negative escalation delays.
	errNegativeDelay = errors.New("escalation delays must not be negative")
	// errTwilioFromRequired is returned when credentials lack a caller number.
	errTwilioFromRequired = errors.New("twilio.from must be provided with twilio credentials")
)

// Load reads configuration from path, applies environment overrides and validates it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Read reads configuration from path and applies environment overrides without
// validating, so callers can apply their own overrides before Validate.
func Read(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	ApplyEnv(&cfg)

	return &cfg, nil
}

// LoadEnvFile seeds the process environment from a dotenv file.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFilename
	}

	if err := godotenv.Load(filepath.Clean(path)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("load env file: %w", err)
	}

	return nil
}

// ApplyEnv overrides secrets and the contact with non-empty environment values.
func ApplyEnv(cfg *Config) {
	overrides := map[string]*string{
		EnvEmergencyContact: &cfg.EmergencyContact,
		EnvTwilioAccountSID: &cfg.Twilio.AccountSID,
		EnvTwilioAuthToken:  &cfg.Twilio.AuthToken,
		EnvTwilioFrom:       &cfg.Twilio.From,
	}

	for key, target := range overrides {
		if value := os.Getenv(key); value != "" {
			*target = value
		}
	}
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may hold credentials.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults.
//
//nolint:cyclop // A flat list of field checks reads best.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.EmergencyContact == "" {
		return errContactRequired
	}

	cfg.Detection = cfg.Detection.WithDefaults()
	if err := cfg.Detection.Validate(); err != nil {
		return fmt.Errorf("invalid detection settings: %w", err)
	}

	if cfg.Escalation.CallDelay < 0 || cfg.Escalation.SMSDelay < 0 {
		return errNegativeDelay
	}

	if cfg.Escalation.CallDelay == 0 {
		cfg.Escalation.CallDelay = fall.DefaultCallDelay
	}

	if cfg.Escalation.SMSDelay == 0 {
		cfg.Escalation.SMSDelay = fall.DefaultSMSDelay
	}

	switch {
	case cfg.Sensor.SerialPort == "" && cfg.Sensor.ReplayFile == "":
		return errSensorRequired
	case cfg.Sensor.SerialPort != "" && cfg.Sensor.ReplayFile != "":
		return errSensorAmbiguous
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.JournalFile == "" {
		cfg.JournalFile = DefaultJournalFilename
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	if cfg.Twilio.Enabled() && cfg.Twilio.From == "" {
		return errTwilioFromRequired
	}

	return nil
}
