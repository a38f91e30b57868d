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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bgallie/cipherbox/cryptors/enigma"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	rotorSeeds     [enigma.NumberOfRotors]int64
	lowerCase      bool
	startIndex     int
	inputFileName  string
	outputFileName string
)

// enigmaCmd groups the rotor machine commands.
var enigmaCmd = &cobra.Command{
	Use:   "enigma",
	Short: "Encrypt or decrypt text with the rotor machine",
	Long: `Run text through a three rotor machine with a plugboard and a reflector.
The machine is its own inverse: decrypting is running the ciphertext through
a machine built from the same seeds.  Only the symbols
"abcdefghijklmnopqrstuvwxyz ?.," are accepted; use --lower to fold upper case
letters into the alphabet.`,
}

// enigmaEncryptCmd represents the encrypt command
var enigmaEncryptCmd = &cobra.Command{
	Use:   "encrypt [text...]",
	Short: "Encrypt text with the rotor machine",
	Long: `Encrypt the text given on the command line or, without arguments, the
input file (stdin by default) one line at a time.`,
	RunE: runEnigma,
}

// enigmaEncodeCmd represents the encode command
var enigmaEncodeCmd = &cobra.Command{
	Use:        "encode [text...]",
	Short:      "Encode text with the rotor machine",
	Long:       `[DEPRECATED] Encode text with the rotor machine.`,
	Deprecated: "use \"encrypt\" instead.",
	RunE:       runEnigma,
}

// enigmaDecryptCmd represents the decrypt command
var enigmaDecryptCmd = &cobra.Command{
	Use:   "decrypt [text...]",
	Short: "Decrypt text encrypted with the rotor machine",
	Long: `Decrypt the text given on the command line or, without arguments, the
input file (stdin by default) one line at a time.  The seeds must be the ones
used to encrypt.`,
	RunE: runEnigma,
}

// enigmaDecodeCmd represents the decode command
var enigmaDecodeCmd = &cobra.Command{
	Use:        "decode [text...]",
	Short:      "Decode text with the rotor machine",
	Long:       `[DEPRECATED] Decode text with the rotor machine.`,
	Deprecated: "use \"decrypt\" instead.",
	RunE:       runEnigma,
}

// enigmaStateCmd represents the state command
var enigmaStateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the wiring and position of the rotor machine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine()
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), e.String())
		return err
	},
}

func init() {
	rootCmd.AddCommand(enigmaCmd)
	enigmaCmd.AddCommand(enigmaEncryptCmd, enigmaEncodeCmd, enigmaDecryptCmd, enigmaDecodeCmd, enigmaStateCmd)

	flags := enigmaCmd.PersistentFlags()
	flags.Int64VarP(&rotorSeeds[0], "seed", "s", 0, "seed of the fast rotor and the reflector")
	flags.Int64Var(&rotorSeeds[1], "seed2", 0, "seed of the middle rotor")
	flags.Int64Var(&rotorSeeds[2], "seed3", 0, "seed of the slow rotor")
	flags.IntVarP(&startIndex, "index", "n", 0, "number of symbols the machine has already processed")

	for _, c := range []*cobra.Command{enigmaEncryptCmd, enigmaEncodeCmd, enigmaDecryptCmd, enigmaDecodeCmd} {
		c.Flags().StringVarP(&inputFileName, "inputFile", "i", "-", "Name of the file to encrypt/decrypt.")
		c.Flags().StringVarP(&outputFileName, "outputFile", "o", "-", "Name of the file to write the result to.")
		c.Flags().BoolVarP(&lowerCase, "lower", "l", false, "lower-case the input before it is processed")
	}
}

func newEngine() (*enigma.Engine, error) {
	e, err := enigma.New(rotorSeeds[0], enigma.WithRotorSeeds(rotorSeeds[1], rotorSeeds[2]))
	if err != nil {
		return nil, err
	}
	e.SetIndex(startIndex)
	return e, nil
}

func runEnigma(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer func() {
		log.Debug().Ints64("seeds", rotorSeeds[:]).Int("index", e.Index()).Msg(cmd.Name() + " finished")
	}()

	if len(args) > 0 {
		text := strings.Join(args, " ")
		if lowerCase {
			text = enigma.Normalize(text)
		}

		out, err := e.Process(text)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	}

	fin, fout, closeFiles, err := getInputAndOutputFiles(cmd)
	if err != nil {
		return err
	}
	defer closeFiles()

	rdr := enigma.NewReader(fin, e, lowerCase)
	defer rdr.Close()

	_, err = io.Copy(fout, rdr)
	return err
}

/*
getInputAndOutputFiles returns the input and output to use while
encrypting/decrypting text.  If input and/or output file names were given,
then those files are opened.  Otherwise the command's stdin and stdout are
used.
*/
func getInputAndOutputFiles(cmd *cobra.Command) (io.Reader, io.Writer, func(), error) {
	var fin io.Reader = cmd.InOrStdin()
	var fout io.Writer = cmd.OutOrStdout()
	var closers []io.Closer

	closeAll := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Warn().Err(err).Msg("close failed")
			}
		}
	}

	if len(inputFileName) > 0 && inputFileName != "-" {
		f, err := os.Open(inputFileName)
		if err != nil {
			return nil, nil, nil, err
		}
		fin = f
		closers = append(closers, f)
	}

	if len(outputFileName) > 0 && outputFileName != "-" {
		f, err := os.Create(outputFileName)
		if err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		fout = f
		closers = append(closers, f)
	}

	return fin, fout, closeAll, nil
}
