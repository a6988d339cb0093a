package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmcleod/ironsign/crypto"
	"github.com/jmcleod/ironsign/identity"
	"github.com/jmcleod/ironsign/internal/config"
	"github.com/jmcleod/ironsign/internal/util"
	"github.com/jmcleod/ironsign/vault"
)

var (
	credentialID string
	userID       string
	saltHex      string
	revealKey    bool
	messageHex   bool
)

type deriveResult struct {
	CredentialID string `json:"credentialId"`
	UserID       string `json:"userId"`
	PublicKey    string `json:"publicKey"`
	PrivateKey   string `json:"privateKey,omitempty"`
}

type signResult struct {
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
	Hash      string `json:"hash"`
	Scheme    string `json:"scheme"`
}

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive the signing identity for a credential and user",
	Long: `Derives the signing key for --credential-id and --user-id, stores it in the
encrypted vault, and prints the public key. The private key is printed only
with --reveal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd.Context(), func(m *identity.Manager) error {
			return runDerive(cmd.Context(), cmd.OutOrStdout(), m, credentialID, userID, revealKey)
		})
	},
}

var pubkeyCmd = &cobra.Command{
	Use:   "pubkey",
	Short: "Print the compressed public key for a credential and user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd.Context(), func(m *identity.Manager) error {
			return runDerive(cmd.Context(), cmd.OutOrStdout(), m, credentialID, userID, false)
		})
	},
}

var signCmd = &cobra.Command{
	Use:   "sign [message]",
	Short: "Sign a message with the derived identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message, err := decodeMessage(args[0], messageHex)
		if err != nil {
			return err
		}
		scheme, err := cfg.Hash()
		if err != nil {
			return err
		}
		return withManager(cmd.Context(), func(m *identity.Manager) error {
			return runSign(cmd.Context(), cmd.OutOrStdout(), m, credentialID, userID, message, scheme)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{deriveCmd, pubkeyCmd, signCmd} {
		c.Flags().StringVar(&credentialID, "credential-id", "", "Passkey credential ID (base64url)")
		c.Flags().StringVar(&userID, "user-id", "", "User identifier")
		c.Flags().StringVar(&saltHex, "salt", "", "Optional HKDF salt (hex)")
		_ = c.MarkFlagRequired("credential-id")
		_ = c.MarkFlagRequired("user-id")
		rootCmd.AddCommand(c)
	}
	deriveCmd.Flags().BoolVar(&revealKey, "reveal", false, "Also print the private key")
	signCmd.Flags().BoolVar(&messageHex, "hex", false, "Treat the message argument as hex")
}

func withManager(ctx context.Context, fn func(m *identity.Manager) error) error {
	v, closeFn, err := openVault(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	m, err := newManager(v, cfg, saltHex)
	if err != nil {
		return err
	}
	defer m.EndSession()
	return fn(m)
}

func newManager(v *vault.Vault, c *config.Config, salt string) (*identity.Manager, error) {
	scheme, err := c.Hash()
	if err != nil {
		return nil, err
	}
	opts := []identity.Option{
		identity.WithPasswordTTL(c.PasswordTTL),
		identity.WithSignOptions(crypto.WithHashScheme(scheme)),
	}
	if salt != "" {
		b, err := util.HexDecode(salt)
		if err != nil {
			return nil, fmt.Errorf("invalid salt: %w", err)
		}
		opts = append(opts, identity.WithDeriveOptions(crypto.WithSalt(b)))
	}
	return identity.New(v, opts...), nil
}

func runDerive(ctx context.Context, w io.Writer, m *identity.Manager, credentialID, userID string, reveal bool) error {
	key, err := m.LoadOrRederive(ctx, credentialID, userID)
	if err != nil {
		return err
	}
	defer key.Destroy()

	res := deriveResult{
		CredentialID: credentialID,
		UserID:       userID,
		PublicKey:    util.HexEncode(key.PublicKey()),
	}
	if reveal {
		priv, err := key.Bytes()
		if err != nil {
			return err
		}
		res.PrivateKey = util.HexEncode(priv)
		util.WipeBytes(priv)
	}
	return writeJSON(w, res)
}

func runSign(ctx context.Context, w io.Writer, m *identity.Manager, credentialID, userID string, message []byte, scheme crypto.HashScheme) error {
	sig, err := m.Sign(ctx, credentialID, userID, message)
	if err != nil {
		return err
	}
	pub, err := m.PublicKey(ctx, credentialID, userID)
	if err != nil {
		return err
	}
	return writeJSON(w, signResult{
		Signature: sig.Hex(),
		PublicKey: util.HexEncode(pub),
		Hash:      util.HexEncode(crypto.HashMessage(message, crypto.WithHashScheme(scheme))),
		Scheme:    scheme.String(),
	})
}

func decodeMessage(arg string, isHex bool) ([]byte, error) {
	if !isHex {
		return []byte(arg), nil
	}
	b, err := util.HexDecode(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid hex message: %w", err)
	}
	return b, nil
}
