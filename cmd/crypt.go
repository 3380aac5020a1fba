package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/cachebox/internal/crypt"
)

var cryptKey string

var cryptCmd = &cobra.Command{
	Use:   "crypt",
	Short: "Encrypt and decrypt asset payloads",
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt <text>",
	Short: "Encrypt text and print base64 ciphertext",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := crypt.EncryptBase64(args[0], []byte(cryptKey))
		if err != nil {
			return err
		}
		cmd.Println(out)
		return nil
	},
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt <base64>",
	Short: "Decrypt base64 ciphertext and print the plaintext",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := crypt.DecryptBase64(args[0], []byte(cryptKey))
		if err != nil {
			return fmt.Errorf("decrypt: %w", err)
		}
		cmd.Println(out)
		return nil
	},
}

func init() {
	cryptCmd.PersistentFlags().StringVarP(&cryptKey, "key", "k", "",
		"cipher key, 16, 24, or 32 bytes (required)")
	_ = cryptCmd.MarkPersistentFlagRequired("key")

	cryptCmd.AddCommand(encryptCmd, decryptCmd)
	rootCmd.AddCommand(cryptCmd)
}
