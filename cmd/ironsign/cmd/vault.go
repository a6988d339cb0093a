package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmcleod/ironsign/crypto"
	"github.com/jmcleod/ironsign/internal/util"
	"github.com/jmcleod/ironsign/vault"
)

var (
	recordID      string
	keyHex        string
	vaultPassword string
	recordUserID  string
)

type storeResult struct {
	ID       string `json:"id"`
	Password string `json:"password,omitempty"`
}

type getResult struct {
	ID    string `json:"id"`
	Found bool   `json:"found"`
	Key   string `json:"key,omitempty"`
}

type hasResult struct {
	ID     string `json:"id"`
	Exists bool   `json:"exists"`
}

type recordInfo struct {
	ID           string    `json:"id"`
	StoredAt     time.Time `json:"storedAt"`
	UserID       string    `json:"userId,omitempty"`
	CredentialID string    `json:"credentialId,omitempty"`
}

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Inspect and manage the encrypted key vault",
}

var vaultStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Encrypt and store a key under a password",
	Long: `Seals --key (hex) under --password. When --password is omitted a random
password is generated and printed; it is the only way to read the record back.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd.Context(), func(v *vault.Vault) error {
			return runVaultStore(cmd.Context(), cmd.OutOrStdout(), v, recordID, keyHex, vaultPassword, recordUserID)
		})
	},
}

var vaultGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Decrypt a stored key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd.Context(), func(v *vault.Vault) error {
			return runVaultGet(cmd.Context(), cmd.OutOrStdout(), v, recordID, vaultPassword)
		})
	},
}

var vaultHasCmd = &cobra.Command{
	Use:   "has",
	Short: "Report whether a record exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd.Context(), func(v *vault.Vault) error {
			return runVaultHas(cmd.Context(), cmd.OutOrStdout(), v, recordID)
		})
	},
}

var vaultDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd.Context(), func(v *vault.Vault) error {
			if err := v.DeleteKey(cmd.Context(), recordID); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), hasResult{ID: recordID, Exists: false})
		})
	},
}

var vaultClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd.Context(), func(v *vault.Vault) error {
			if err := v.ClearAll(cmd.Context()); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), []recordInfo{})
		})
	},
}

var vaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored records and their metadata",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd.Context(), func(v *vault.Vault) error {
			return runVaultList(cmd.Context(), cmd.OutOrStdout(), v)
		})
	},
}

func init() {
	rootCmd.AddCommand(vaultCmd)
	for _, c := range []*cobra.Command{vaultStoreCmd, vaultGetCmd, vaultHasCmd, vaultDeleteCmd} {
		c.Flags().StringVar(&recordID, "id", "", "Record ID (usually the credential ID)")
		_ = c.MarkFlagRequired("id")
	}
	vaultStoreCmd.Flags().StringVar(&keyHex, "key", "", "Key to store (hex)")
	vaultStoreCmd.Flags().StringVar(&vaultPassword, "password", "", "Vault password (generated when empty)")
	vaultStoreCmd.Flags().StringVar(&recordUserID, "user-id", "", "User ID recorded as metadata")
	_ = vaultStoreCmd.MarkFlagRequired("key")
	vaultGetCmd.Flags().StringVar(&vaultPassword, "password", "", "Vault password")
	_ = vaultGetCmd.MarkFlagRequired("password")

	vaultCmd.AddCommand(vaultStoreCmd, vaultGetCmd, vaultHasCmd, vaultDeleteCmd, vaultClearCmd, vaultListCmd)
}

func withVault(ctx context.Context, fn func(v *vault.Vault) error) error {
	v, closeFn, err := openVault(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(v)
}

func runVaultStore(ctx context.Context, w io.Writer, v *vault.Vault, id, keyHex, password, userID string) error {
	key, err := util.HexDecode(keyHex)
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	defer util.WipeBytes(key)

	res := storeResult{ID: id}
	if password == "" {
		if password, err = crypto.GeneratePassword(crypto.DefaultPasswordLength); err != nil {
			return err
		}
		res.Password = password
	}

	var opts []vault.StoreOption
	if userID != "" {
		opts = append(opts, vault.WithMetadata(userID, id))
	}
	if err := v.StoreKey(ctx, id, key, password, opts...); err != nil {
		return err
	}
	return writeJSON(w, res)
}

func runVaultGet(ctx context.Context, w io.Writer, v *vault.Vault, id, password string) error {
	key, ok := v.RetrieveKey(ctx, id, password)
	res := getResult{ID: id, Found: ok}
	if ok {
		res.Key = util.HexEncode(key)
		util.WipeBytes(key)
	}
	return writeJSON(w, res)
}

func runVaultHas(ctx context.Context, w io.Writer, v *vault.Vault, id string) error {
	exists, err := v.HasKey(ctx, id)
	if err != nil {
		return err
	}
	return writeJSON(w, hasResult{ID: id, Exists: exists})
}

func runVaultList(ctx context.Context, w io.Writer, v *vault.Vault) error {
	ids, err := v.ListIDs(ctx)
	if err != nil {
		return err
	}
	out := make([]recordInfo, 0, len(ids))
	for _, id := range ids {
		rec, err := v.Record(ctx, id)
		if err != nil {
			// Deleted between List and Get.
			continue
		}
		info := recordInfo{ID: id, StoredAt: rec.StoredAt().UTC()}
		if rec.Metadata != nil {
			info.UserID = rec.Metadata.UserID
			info.CredentialID = rec.Metadata.CredentialID
		}
		out = append(out, info)
	}
	return writeJSON(w, out)
}
