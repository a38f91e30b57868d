/*
Copyright © 2021 Billy G. Allie <bill.allie@defiant.mug.org>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/bgallie/cipherbox/vault"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var (
	entryUser     string
	entryURL      string
	entryNote     string
	entryPassword string
	pwLength      int
	useClipboard  bool
	useASCII85    bool
	compression   bool
)

var errNoSecret = errors.New("you must supply a master password (set CIPHERBOX_SECRET or run on a terminal)")

// vaultCmd groups the password vault commands.
var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Keep account passwords in a local vault",
	Long: `Keep account passwords in a local vault file (vault.path in the config).
Passwords are sealed with a key derived from the master password, which is
read from CIPHERBOX_SECRET or, failing that, from the terminal.  Every
command except init and import checks it.`,
}

var vaultInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the vault and set its master password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault()
		if err != nil {
			return err
		}
		defer v.Close()

		master, err := masterPassword(true)
		if err != nil {
			return err
		}

		if err := v.Init(master); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "vault created: %s\n", cfg.Vault.Path)
		return nil
	},
}

var vaultAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add an account to the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := unlockVault()
		if err != nil {
			return err
		}
		defer v.Close()

		pw := entryPassword
		if pw == "" {
			if pw, err = readPassword("Enter the account password: "); err != nil {
				return err
			}
		}

		return v.Add(flagEntry(args[0]), pw)
	},
}

var vaultGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show an account with its password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := unlockVault()
		if err != nil {
			return err
		}
		defer v.Close()

		e, pw, err := v.Get(args[0])
		if err != nil {
			return err
		}

		e.Password = pw
		if useClipboard {
			if err := copyPassword(cmd, pw); err != nil {
				return err
			}
			e.Password = ""
		}

		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(e)
	},
}

var vaultDeleteCmd = &cobra.Command{
	Use:     "del <id>",
	Aliases: []string{"delete", "rm"},
	Short:   "Remove an account from the vault",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := unlockVault()
		if err != nil {
			return err
		}
		defer v.Close()

		return v.Delete(args[0])
	},
}

var vaultEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change the fields of an account",
	Long: `Change the fields of an account.  Only the fields given as flags are
changed; the others keep their values.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := unlockVault()
		if err != nil {
			return err
		}
		defer v.Close()

		return v.Edit(args[0], flagEntry(""), entryPassword)
	},
}

var vaultGenerateCmd = &cobra.Command{
	Use:   "gen <id>",
	Short: "Add an account with a generated password",
	Long: `Add an account with a generated password.  The password holds no
character twice, starts with a lowercase letter and holds at least one upper
case letter, one digit and one symbol.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := unlockVault()
		if err != nil {
			return err
		}
		defer v.Close()

		pw, err := v.Generate(flagEntry(args[0]), pwLength)
		if err != nil {
			return err
		}

		if useClipboard {
			return copyPassword(cmd, pw)
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), pw)
		return err
	},
}

var vaultListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the accounts in the vault",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := unlockVault()
		if err != nil {
			return err
		}
		defer v.Close()

		ids, err := v.List()
		if err != nil {
			return err
		}

		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var vaultDisplayCmd = &cobra.Command{
	Use:   "disp <id>",
	Short: "Show an account with its password still sealed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := unlockVault()
		if err != nil {
			return err
		}
		defer v.Close()

		e, err := v.Display(args[0])
		if err != nil {
			return err
		}

		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(e)
	},
}

var vaultExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the whole vault as PEM or ASCII85 text",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := unlockVault()
		if err != nil {
			return err
		}
		defer v.Close()

		_, fout, closeFiles, err := getInputAndOutputFiles(cmd)
		if err != nil {
			return err
		}
		defer closeFiles()

		return v.Export(fout, vault.ExportOptions{ASCII85: useASCII85, Compress: compression})
	},
}

var vaultImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Restore an export into a new vault",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault()
		if err != nil {
			return err
		}
		defer v.Close()

		fin, _, closeFiles, err := getInputAndOutputFiles(cmd)
		if err != nil {
			return err
		}
		defer closeFiles()

		n, err := v.Import(fin)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d entries imported\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(vaultCmd)
	vaultCmd.AddCommand(vaultInitCmd, vaultAddCmd, vaultGetCmd, vaultDeleteCmd, vaultEditCmd,
		vaultGenerateCmd, vaultListCmd, vaultDisplayCmd, vaultExportCmd, vaultImportCmd)

	for _, c := range []*cobra.Command{vaultAddCmd, vaultEditCmd, vaultGenerateCmd} {
		c.Flags().StringVarP(&entryUser, "user", "u", "", "user name of the account")
		c.Flags().StringVar(&entryURL, "url", "", "address of the account")
		c.Flags().StringVar(&entryNote, "note", "", "free text note")
	}
	for _, c := range []*cobra.Command{vaultAddCmd, vaultEditCmd} {
		c.Flags().StringVarP(&entryPassword, "password", "p", "", "password of the account (prompted for when empty)")
	}
	vaultEditCmd.Flags().Lookup("password").Usage = "new password of the account"
	vaultGenerateCmd.Flags().IntVarP(&pwLength, "length", "n", 16, "length of the generated password")

	for _, c := range []*cobra.Command{vaultGetCmd, vaultGenerateCmd} {
		c.Flags().BoolVarP(&useClipboard, "clip", "c", false, "copy the password to the clipboard instead of printing it")
	}

	vaultExportCmd.Flags().BoolVarP(&useASCII85, "useASCII85", "a", false, "use ASCII85 encoding instead of PEM")
	vaultExportCmd.Flags().BoolVarP(&compression, "compress", "c", false, "compress the export using flate")
	vaultExportCmd.Flags().StringVarP(&outputFileName, "outputFile", "o", "-", "Name of the file to write the export to.")
	vaultImportCmd.Flags().StringVarP(&inputFileName, "inputFile", "i", "-", "Name of the file holding the export.")
}

func flagEntry(id string) vault.Entry {
	return vault.Entry{ID: id, User: entryUser, URL: entryURL, Note: entryNote}
}

func openVault() (*vault.Vault, error) {
	return vault.Open(cfg.Vault.Path,
		vault.WithLogger(log.Logger.With().Str("component", "vault").Logger()),
		vault.WithIterations(cfg.Vault.Iterations),
		vault.WithKeySize(cfg.Vault.KeySize))
}

func unlockVault() (*vault.Vault, error) {
	v, err := openVault()
	if err != nil {
		return nil, err
	}

	master, err := masterPassword(false)
	if err == nil {
		err = v.Unlock(master)
	}
	if err != nil {
		v.Close()
		return nil, err
	}

	return v, nil
}

// masterPassword obtains the master password from either:
//  1. The 'CIPHERBOX_SECRET' environment variable or the config file
//  2. User input from the terminal
//
// confirm asks for it twice.
func masterPassword(confirm bool) (string, error) {
	if cfg.Secret != "" {
		return cfg.Secret, nil
	}

	master, err := readPassword("Enter the master password: ")
	if err != nil || !confirm {
		return master, err
	}

	again, err := readPassword("Enter it again: ")
	if err != nil {
		return "", err
	}
	if again != master {
		return "", errors.New("the passwords do not match")
	}

	return master, nil
}

func readPassword(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errNoSecret
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr, "")
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", errNoSecret
	}

	return string(b), nil
}

func copyPassword(cmd *cobra.Command, pw string) error {
	if err := clipboard.WriteAll(pw); err != nil {
		return fmt.Errorf("failed to copy the password: %w", err)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "password copied to the clipboard")
	return nil
}
