package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rohmanhakim/soundfetch/internal/build"
	"github.com/rohmanhakim/soundfetch/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	userAgent     string
	timeout       time.Duration
	maxAttempt    int
	sharingDomain string
	logLevel      string
	listenAddr    string

	// httpClient replaces the direct client when set, for tests.
	httpClient *http.Client
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "soundfetch",
	Short: "Resolve sound references and fetch them as ready-to-send payloads.",
	Long: `soundfetch turns a sound reference (a direct audio URL or a link to a
sound-sharing page) into a direct audio URL, downloads it once, and keeps it
in memory as a base64 data URI that any transport can deliver.

Concurrent requests for the same audio share a single download.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = build.FullVersion()
	rootCmd.SetVersionTemplate(build.Summary() + "\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path, JSON, YAML or TOML (e.g., /home/myuser/soundfetch.yaml)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for a single HTTP request")
	rootCmd.PersistentFlags().IntVar(&maxAttempt, "max-attempt", 0, "attempts per HTTP request, including the first")
	rootCmd.PersistentFlags().StringVar(&sharingDomain, "sharing-domain", "", "domain whose pages are scraped for audio (default myinstants.com)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&listenAddr, "listen", "", "address for the serve command (default :8080)")

	rootCmd.AddCommand(resolveCmd, fetchCmd, precacheCmd, serveCmd)
}

// InitConfigWithError builds the config from the config file when one is given,
// otherwise from the defaults overridden by CLI flags.
func InitConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	configBuilder := config.WithDefault()

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if maxAttempt > 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}

	if sharingDomain != "" {
		configBuilder = configBuilder.WithSharingDomain(sharingDomain)
	}

	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	if listenAddr != "" {
		configBuilder = configBuilder.WithListenAddr(listenAddr)
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func ResetFlags() {
	cfgFile = ""
	userAgent = ""
	timeout = 0
	maxAttempt = 0
	sharingDomain = ""
	logLevel = ""
	listenAddr = ""
	printPayload = false
	httpClient = nil
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetMaxAttemptForTest(attempts int) {
	maxAttempt = attempts
}

func SetSharingDomainForTest(domain string) {
	sharingDomain = domain
}

func SetLogLevelForTest(level string) {
	logLevel = level
}

func SetListenAddrForTest(addr string) {
	listenAddr = addr
}

func SetHTTPClientForTest(client *http.Client) {
	httpClient = client
}

// ExecuteForTest runs the root command with args and returns what it wrote to stdout and stderr.
func ExecuteForTest(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}
