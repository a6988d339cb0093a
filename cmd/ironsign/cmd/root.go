package cmd

import (
	"log/slog"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/jmcleod/ironsign/internal/config"
)

var (
	envFile       string
	logLevel      string
	hashScheme    string
	storageDriver string
	storagePath   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ironsign",
	Short: "IronSign derives deterministic signing identities from passkey credentials",
	Long: `Derives a secp256k1 signing key from a passkey credential ID and user ID,
caches it in an encrypted local vault, and signs messages with recoverable
RFC 6979 signatures. The same credential and user always yield the same key.
Complete documentation is available at https://github.com/jmcleod/ironsign`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	Run: func(cmd *cobra.Command, args []string) {
		printBanner(cmd.OutOrStdout())
		_ = cmd.Help()
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		memguard.SafeExit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", ".env", "Path to a .env file with IRONSIGN_* settings")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&hashScheme, "hash", "", "Message hash scheme (sha256, keccak256)")
	pf.StringVar(&storageDriver, "storage", "", "Vault storage driver (memory, bbolt, postgres, redis)")
	pf.StringVar(&storagePath, "storage-path", "", "Path to the bbolt vault file")
}

func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(envFile)
	if err != nil {
		return err
	}
	applyOverrides(c, cmd)
	if err := c.Validate(); err != nil {
		return err
	}
	lvl, _ := c.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	cfg = c
	return nil
}

// applyOverrides copies explicitly set persistent flags over the loaded config.
func applyOverrides(c *config.Config, cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("hash") {
		c.HashScheme = hashScheme
	}
	if flags.Changed("storage") {
		c.Storage.Driver = storageDriver
	}
	if flags.Changed("storage-path") {
		c.Storage.Path = storagePath
	}
}
