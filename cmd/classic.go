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
	"strconv"

	"github.com/bgallie/cipherbox/cryptors/classic"
	"github.com/spf13/cobra"
)

// Modes of the classical cipher commands.
const (
	modeEncrypt = "enc"
	modeDecrypt = "dec"
	modeAnalyze = "anl"
)

var errNoAnalysis = errors.New("analysis is not available for this cipher")

// classicCipher adapts a classical cipher to the command line.  analyze may
// be nil.
type classicCipher struct {
	encrypt func(text, key string) (string, error)
	decrypt func(text, key string) (string, error)
	analyze func(text string) ([]string, error)
}

func init() {
	rootCmd.AddCommand(
		newClassicCmd("caesar", "Shift letters and digits by a fixed amount", caesarCipher),
		newClassicCmd("vigenere", "Shift letters and digits by a repeating key word", vigenereCipher),
		newClassicCmd("subst", "Replace letters using a built-in substitution alphabet (key 1 or 2)", substitutionCipher),
		newClassicCmd("trans", "Reorder blocks of five symbols with a built-in key (key 1 to 4)", transpositionCipher),
	)
}

func newClassicCmd(name, short string, c classicCipher) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <text> <key> [enc|dec|anl]",
		Short: short,
		Long: short + `.
The mode defaults to "enc".  "anl" prints the decryption of the text under
every possible key; the key argument is then ignored.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, key, mode := args[0], args[1], modeEncrypt
			if len(args) == 3 {
				mode = args[2]
			}

			switch mode {
			case modeEncrypt, modeDecrypt:
				f := c.encrypt
				if mode == modeDecrypt {
					f = c.decrypt
				}
				out, err := f(text, key)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			case modeAnalyze:
				if c.analyze == nil {
					return fmt.Errorf("%s: %w", name, errNoAnalysis)
				}
				results, err := c.analyze(text)
				if err != nil {
					return err
				}
				for i, r := range results {
					fmt.Fprintf(cmd.OutOrStdout(), "key %2d: %s\n", i+1, r)
				}
				return nil
			default:
				return fmt.Errorf("unknown mode %q: use enc, dec or anl", mode)
			}
		},
	}
}

func keyNumber(key string) (int, error) {
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("key must be a number: %q", key)
	}
	return n, nil
}

// numbered turns a cipher keyed by number into one keyed by a string.
func numbered(f func(string, int) (string, error)) func(string, string) (string, error) {
	return func(text, key string) (string, error) {
		n, err := keyNumber(key)
		if err != nil {
			return "", err
		}
		return f(text, n)
	}
}

// everyKey decrypts text with every key number from 1 to n.
func everyKey(f func(string, int) (string, error), n int) func(string) ([]string, error) {
	return func(text string) ([]string, error) {
		out := make([]string, 0, n)
		for k := 1; k <= n; k++ {
			s, err := f(text, k)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
}

func infallible(f func(string, int) string) func(string, int) (string, error) {
	return func(text string, key int) (string, error) {
		return f(text, key), nil
	}
}

var caesarCipher = classicCipher{
	encrypt: numbered(infallible(classic.CaesarEncrypt)),
	decrypt: numbered(infallible(classic.CaesarDecrypt)),
	analyze: func(text string) ([]string, error) {
		return classic.CaesarAnalyze(text), nil
	},
}

var vigenereCipher = classicCipher{
	encrypt: classic.VigenereEncrypt,
	decrypt: classic.VigenereDecrypt,
}

var substitutionCipher = classicCipher{
	encrypt: numbered(classic.SubstitutionEncrypt),
	decrypt: numbered(classic.SubstitutionDecrypt),
	analyze: everyKey(classic.SubstitutionDecrypt, len(classic.SubstitutionKeys)),
}

var transpositionCipher = classicCipher{
	encrypt: numbered(classic.TranspositionEncrypt),
	decrypt: numbered(classic.TranspositionDecrypt),
	analyze: everyKey(classic.TranspositionDecrypt, len(classic.TranspositionKeys)),
}
