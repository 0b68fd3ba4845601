package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rohmanhakim/soundfetch/pkg/hashutil"
	"github.com/spf13/viper"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

type Config struct {
	//===============
	// Resolution
	//===============
	// Host (and its subdomains) whose pages are scraped for an audio URL
	sharingDomain string
	// Origin used to absolutize site-relative "media/..." references
	siteRoot url.URL
	// How long a successful page extraction is remembered. Zero disables the memo
	resolveMemoTTL time.Duration

	//===============
	// Fetch
	//===============
	// User agent sent with every page and audio request
	userAgent string
	// Deadline of a single HTTP request. Zero leaves it to the caller's context
	timeout time.Duration
	// Audio bodies larger than this are rejected
	maxAudioSize int64
	// Page requests per second allowed per host. Zero means unlimited
	pageRate float64
	// Page requests allowed in a burst per host
	pageBurst int

	//===============
	// Retry
	//===============
	// Fixed delay before every retry
	baseDelay time.Duration
	// Upper bound of the random delay added to each retry
	jitter time.Duration
	// Seed for the jitter generator
	randomSeed int64
	// Total attempts per request, including the first one
	maxAttempt int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration

	//===============
	// Cache
	//===============
	// Parallel downloads used by precache
	precacheConcurrency int
	// Algorithm for Payload.Digest
	hashAlgo hashutil.HashAlgo

	//===============
	// Runtime
	//===============
	// Address the HTTP API listens on
	listenAddr string
	// debug, info, warn or error
	logLevel string
}

type configDTO struct {
	SharingDomain          string        `mapstructure:"sharingDomain"`
	SiteRoot               string        `mapstructure:"siteRoot"`
	ResolveMemoTTL         time.Duration `mapstructure:"resolveMemoTTL"`
	UserAgent              string        `mapstructure:"userAgent"`
	Timeout                time.Duration `mapstructure:"timeout"`
	MaxAudioSize           int64         `mapstructure:"maxAudioSize"`
	PageRate               float64       `mapstructure:"pageRate"`
	PageBurst              int           `mapstructure:"pageBurst"`
	BaseDelay              time.Duration `mapstructure:"baseDelay"`
	Jitter                 time.Duration `mapstructure:"jitter"`
	RandomSeed             int64         `mapstructure:"randomSeed"`
	MaxAttempt             int           `mapstructure:"maxAttempt"`
	BackoffInitialDuration time.Duration `mapstructure:"backoffInitialDuration"`
	BackoffMultiplier      float64       `mapstructure:"backoffMultiplier"`
	BackoffMaxDuration     time.Duration `mapstructure:"backoffMaxDuration"`
	PrecacheConcurrency    int           `mapstructure:"precacheConcurrency"`
	HashAlgo               string        `mapstructure:"hashAlgo"`
	ListenAddr             string        `mapstructure:"listenAddr"`
	LogLevel               string        `mapstructure:"logLevel"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	builder := WithDefault()

	// Only non-zero values override the defaults
	if dto.SharingDomain != "" {
		builder.WithSharingDomain(dto.SharingDomain)
	}
	if dto.SiteRoot != "" {
		siteRoot, err := url.Parse(dto.SiteRoot)
		if err != nil {
			return Config{}, fmt.Errorf("%w: siteRoot: %s", ErrInvalidConfig, err.Error())
		}
		builder.WithSiteRoot(*siteRoot)
	}
	if dto.ResolveMemoTTL != 0 {
		builder.WithResolveMemoTTL(dto.ResolveMemoTTL)
	}
	if dto.UserAgent != "" {
		builder.WithUserAgent(dto.UserAgent)
	}
	if dto.Timeout != 0 {
		builder.WithTimeout(dto.Timeout)
	}
	if dto.MaxAudioSize != 0 {
		builder.WithMaxAudioSize(dto.MaxAudioSize)
	}
	if dto.PageRate != 0 {
		builder.WithPageRate(dto.PageRate)
	}
	if dto.PageBurst != 0 {
		builder.WithPageBurst(dto.PageBurst)
	}
	if dto.BaseDelay != 0 {
		builder.WithBaseDelay(dto.BaseDelay)
	}
	if dto.Jitter != 0 {
		builder.WithJitter(dto.Jitter)
	}
	if dto.RandomSeed != 0 {
		builder.WithRandomSeed(dto.RandomSeed)
	}
	if dto.MaxAttempt != 0 {
		builder.WithMaxAttempt(dto.MaxAttempt)
	}
	if dto.BackoffInitialDuration != 0 {
		builder.WithBackoffInitialDuration(dto.BackoffInitialDuration)
	}
	if dto.BackoffMultiplier != 0 {
		builder.WithBackoffMultiplier(dto.BackoffMultiplier)
	}
	if dto.BackoffMaxDuration != 0 {
		builder.WithBackoffMaxDuration(dto.BackoffMaxDuration)
	}
	if dto.PrecacheConcurrency != 0 {
		builder.WithPrecacheConcurrency(dto.PrecacheConcurrency)
	}
	if dto.HashAlgo != "" {
		builder.WithHashAlgo(hashutil.HashAlgo(dto.HashAlgo))
	}
	if dto.ListenAddr != "" {
		builder.WithListenAddr(dto.ListenAddr)
	}
	if dto.LogLevel != "" {
		builder.WithLogLevel(dto.LogLevel)
	}

	return builder.Build()
}

// WithConfigFile loads a JSON, YAML or TOML file (chosen by extension) on top of the defaults.
// Durations are written as strings such as "10s" or "250ms".
func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var parseErr viper.ConfigParseError
		var unsupportedErr viper.UnsupportedConfigError
		if errors.As(err, &parseErr) || errors.As(err, &unsupportedErr) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
		}
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	cfgDTO := configDTO{}
	if err := v.Unmarshal(&cfgDTO); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault returns a builder preloaded with defaults for every field.
func WithDefault() *Config {
	defaultConfig := Config{
		sharingDomain: "myinstants.com",
		siteRoot: url.URL{
			Scheme: "https",
			Host:   "www.myinstants.com",
		},
		resolveMemoTTL:         10 * time.Minute,
		userAgent:              DefaultUserAgent,
		timeout:                15 * time.Second,
		maxAudioSize:           10 << 20,
		pageRate:               2,
		pageBurst:              2,
		baseDelay:              200 * time.Millisecond,
		jitter:                 100 * time.Millisecond,
		randomSeed:             time.Now().UnixNano(),
		maxAttempt:             3,
		backoffInitialDuration: 100 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     5 * time.Second,
		precacheConcurrency:    4,
		hashAlgo:               hashutil.HashAlgoSHA256,
		listenAddr:             ":8080",
		logLevel:               "info",
	}
	return &defaultConfig
}

func (c *Config) WithSharingDomain(domain string) *Config {
	c.sharingDomain = domain
	return c
}

func (c *Config) WithSiteRoot(root url.URL) *Config {
	c.siteRoot = root
	return c
}

func (c *Config) WithResolveMemoTTL(ttl time.Duration) *Config {
	c.resolveMemoTTL = ttl
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithMaxAudioSize(size int64) *Config {
	c.maxAudioSize = size
	return c
}

func (c *Config) WithPageRate(perSecond float64) *Config {
	c.pageRate = perSecond
	return c
}

func (c *Config) WithPageBurst(burst int) *Config {
	c.pageBurst = burst
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithPrecacheConcurrency(n int) *Config {
	c.precacheConcurrency = n
	return c
}

func (c *Config) WithHashAlgo(algo hashutil.HashAlgo) *Config {
	c.hashAlgo = algo
	return c
}

func (c *Config) WithListenAddr(addr string) *Config {
	c.listenAddr = addr
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) Build() (Config, error) {
	c.sharingDomain = strings.ToLower(strings.TrimSpace(c.sharingDomain))
	if c.sharingDomain == "" {
		return Config{}, fmt.Errorf("%w: sharingDomain cannot be empty", ErrInvalidConfig)
	}
	if c.siteRoot.Scheme == "" || c.siteRoot.Host == "" {
		return Config{}, fmt.Errorf("%w: siteRoot must be an absolute url, got %q", ErrInvalidConfig, c.siteRoot.String())
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}
	if c.timeout < 0 || c.resolveMemoTTL < 0 {
		return Config{}, fmt.Errorf("%w: durations cannot be negative", ErrInvalidConfig)
	}
	if c.maxAudioSize <= 0 {
		return Config{}, fmt.Errorf("%w: maxAudioSize must be positive", ErrInvalidConfig)
	}
	if c.pageRate < 0 {
		return Config{}, fmt.Errorf("%w: pageRate cannot be negative", ErrInvalidConfig)
	}
	if c.pageBurst < 1 {
		c.pageBurst = 1
	}
	if c.precacheConcurrency < 1 {
		return Config{}, fmt.Errorf("%w: precacheConcurrency must be at least 1", ErrInvalidConfig)
	}

	algo, err := hashutil.ParseHashAlgo(string(c.hashAlgo))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	c.hashAlgo = algo

	if _, err := log.ParseLevel(c.logLevel); err != nil {
		return Config{}, fmt.Errorf("%w: logLevel: %s", ErrInvalidConfig, err.Error())
	}

	return *c, nil
}

func (c Config) SharingDomain() string {
	return c.sharingDomain
}

func (c Config) SiteRoot() url.URL {
	return c.siteRoot
}

func (c Config) ResolveMemoTTL() time.Duration {
	return c.resolveMemoTTL
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) MaxAudioSize() int64 {
	return c.maxAudioSize
}

func (c Config) PageRate() float64 {
	return c.pageRate
}

func (c Config) PageBurst() int {
	return c.pageBurst
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) PrecacheConcurrency() int {
	return c.precacheConcurrency
}

func (c Config) HashAlgo() hashutil.HashAlgo {
	return c.hashAlgo
}

func (c Config) ListenAddr() string {
	return c.listenAddr
}

func (c Config) LogLevel() string {
	return c.logLevel
}
