package config

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"bobbystable/internal/slots"
)

type Config struct {
	Port           string
	RestaurantName string
	PhoneNumber    string
	CallAddress    string
	CORSOrigins    []string
	Location       *time.Location

	// capacity
	SlotsFile    string
	MaxPerSlot   int
	MaxPartySize int

	// background work
	EventBuffer        int
	SessionIdleTimeout time.Duration
	CancelledRetention time.Duration

	// auth
	JWTSecret         []byte
	AdminUser         string
	AdminPasswordHash string
	CookieHashKey     []byte
	CookieBlockKey    []byte

	// notifications
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFromNumber  string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	ManagerEmail      string
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded settings from .env")
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "5000"),
		RestaurantName:    getenv("RESTAURANT_NAME", "Bobby's Table"),
		PhoneNumber:       os.Getenv("PHONE_NUMBER"),
		CallAddress:       os.Getenv("CALL_ADDRESS"),
		SlotsFile:         os.Getenv("SLOTS_FILE"),
		AdminUser:         getenv("ADMIN_USER", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		JWTSecret:         []byte(os.Getenv("JWT_SECRET")),
		TwilioAccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:  os.Getenv("TWILIO_FROM_NUMBER"),
		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail: os.Getenv("SENDGRID_FROM_EMAIL"),
		SendGridFromName:  getenv("SENDGRID_FROM_NAME", "Bobby's Table"),
		ManagerEmail:      os.Getenv("MANAGER_EMAIL"),
	}

	var err error
	if cfg.MaxPerSlot, err = getint("MAX_PER_SLOT", slots.DefaultCapacity); err != nil {
		return Config{}, err
	}
	if cfg.MaxPartySize, err = getint("MAX_PARTY_SIZE", slots.DefaultMaxPartySize); err != nil {
		return Config{}, err
	}
	if cfg.EventBuffer, err = getint("EVENT_BUFFER", 64); err != nil {
		return Config{}, err
	}
	if cfg.SessionIdleTimeout, err = getduration("SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.CancelledRetention, err = getduration("CANCELLED_RETENTION", 30*24*time.Hour); err != nil {
		return Config{}, err
	}

	for _, origin := range strings.Split(getenv("CORS_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	cfg.Location, err = time.LoadLocation(getenv("TIMEZONE", "Local"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if cfg.CookieHashKey, err = decodeKey("COOKIE_HASH_KEY"); err != nil {
		return Config{}, err
	}
	if cfg.CookieBlockKey, err = decodeKey("COOKIE_BLOCK_KEY"); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type scheduleFile struct {
	MaxPartySize int          `yaml:"max_party_size"`
	Slots        []slots.Slot `yaml:"slots"`
}

// LoadSchedule builds the slot schedule, from SLOTS_FILE when set and from
// the default evening slots otherwise. Slots in the file without a
// capacity get MAX_PER_SLOT.
func (c Config) LoadSchedule() (*slots.Schedule, error) {
	if c.SlotsFile == "" {
		return slots.NewSchedule(slots.UniformSlots(slots.DefaultTimes, c.MaxPerSlot), c.MaxPartySize)
	}

	raw, err := os.ReadFile(c.SlotsFile)
	if err != nil {
		return nil, fmt.Errorf("read slots file: %w", err)
	}
	var file scheduleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse slots file %s: %w", c.SlotsFile, err)
	}
	if file.MaxPartySize == 0 {
		file.MaxPartySize = c.MaxPartySize
	}
	for i := range file.Slots {
		if file.Slots[i].Capacity == 0 {
			file.Slots[i].Capacity = c.MaxPerSlot
		}
	}
	return slots.NewSchedule(file.Slots, file.MaxPartySize)
}

// NotificationsEnabled reports whether any outbound channel is configured.
func (c Config) NotificationsEnabled() bool {
	return c.TwilioAccountSID != "" || c.SendGridAPIKey != ""
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getint(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return n, nil
}

func getduration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return d, nil
}

// decodeKey reads a base64 key, or nothing when the variable is unset.
func decodeKey(k string) ([]byte, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return key, nil
}
