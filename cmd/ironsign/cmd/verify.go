package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmcleod/ironsign/crypto"
	"github.com/jmcleod/ironsign/internal/util"
)

var (
	signatureHex string
	publicKeyHex string
)

type verifyResult struct {
	Valid bool `json:"valid"`
}

type recoverResult struct {
	PublicKey string `json:"publicKey"`
	V         byte   `json:"v"`
}

var verifyCmd = &cobra.Command{
	Use:   "verify [message]",
	Short: "Verify a signature against a public key",
	Long: `Verifies a 65-byte r||s||v signature (hex, optional 0x prefix) over the
prefixed message hash. Prints {"valid": false} for any malformed input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message, err := decodeMessage(args[0], messageHex)
		if err != nil {
			return err
		}
		scheme, err := cfg.Hash()
		if err != nil {
			return err
		}
		return runVerify(cmd.OutOrStdout(), message, signatureHex, publicKeyHex, scheme)
	},
}

var recoverCmd = &cobra.Command{
	Use:   "recover [message]",
	Short: "Recover the public key that produced a signature",
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
		return runRecover(cmd.OutOrStdout(), message, signatureHex, scheme)
	},
}

func init() {
	for _, c := range []*cobra.Command{verifyCmd, recoverCmd} {
		c.Flags().StringVar(&signatureHex, "signature", "", "Signature as 0x-prefixed hex")
		c.Flags().BoolVar(&messageHex, "hex", false, "Treat the message argument as hex")
		_ = c.MarkFlagRequired("signature")
		rootCmd.AddCommand(c)
	}
	verifyCmd.Flags().StringVar(&publicKeyHex, "public-key", "", "Compressed public key (hex)")
	_ = verifyCmd.MarkFlagRequired("public-key")
}

func runVerify(w io.Writer, message []byte, sig, pub string, scheme crypto.HashScheme) error {
	valid := false
	if pubKey, err := util.HexDecode(pub); err == nil {
		valid = crypto.VerifyHex(message, sig, pubKey, crypto.WithHashScheme(scheme))
	}
	return writeJSON(w, verifyResult{Valid: valid})
}

func runRecover(w io.Writer, message []byte, sigHex string, scheme crypto.HashScheme) error {
	sig, err := crypto.ParseSignature(sigHex)
	if err != nil {
		return err
	}
	pub, err := crypto.RecoverPublicKey(message, sig, crypto.WithHashScheme(scheme))
	if err != nil {
		return fmt.Errorf("recovering public key: %w", err)
	}
	return writeJSON(w, recoverResult{PublicKey: util.HexEncode(pub), V: sig.V()})
}
