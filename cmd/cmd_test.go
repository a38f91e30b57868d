package cmd

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/bgallie/cipherbox/cryptors"
	"github.com/bgallie/cipherbox/cryptors/classic"
	"github.com/bgallie/cipherbox/vault"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags puts the flag variables back to their defaults between runs of
// the shared command tree.
func resetFlags() {
	cfgFile = ""
	rotorSeeds = [3]int64{}
	lowerCase = false
	startIndex = 0
	inputFileName, outputFileName = "-", "-"
	entryUser, entryURL, entryNote, entryPassword = "", "", "", ""
	pwLength = 16
	useClipboard, useASCII85, compression = false, false, false
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	viper.Reset()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestEnigmaArgs(t *testing.T) {
	setHome(t)

	out, err := execute(t, "", "enigma", "encrypt", "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, "irah ,nnlst\n", out)

	out, err = execute(t, "", "enigma", "decrypt", "irah ,nnlst")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out)

	out, err = execute(t, "", "enigma", "encrypt", "--seed", "7", "--seed2", "11", "--seed3", "13", "attack at dawn.")
	require.NoError(t, err)
	assert.Equal(t, "lad.xmd dpewldg\n", out)

	out, err = execute(t, "", "enigma", "encrypt", "--lower", "Hello World")
	require.NoError(t, err)
	assert.Equal(t, "irah ,nnlst\n", out)

	out, err = execute(t, "", "enigma", "encode", "hello world")
	require.NoError(t, err)
	assert.Contains(t, out, "irah ,nnlst\n")
}

func TestEnigmaRejectsInvalidSymbols(t *testing.T) {
	setHome(t)

	out, err := execute(t, "", "enigma", "encrypt", "Hello")
	assert.ErrorIs(t, err, cryptors.ErrInvalidSymbol)
	assert.Empty(t, out)

	_, err = execute(t, "ok\nNot ok\n", "enigma", "encrypt")
	require.Error(t, err)
	assert.ErrorIs(t, err, cryptors.ErrInvalidSymbol)
	assert.Contains(t, err.Error(), "line 2")
}

func TestEnigmaStream(t *testing.T) {
	setHome(t)
	plain := "hello\nworld, how are you?\r\n\nfine.\n"

	cipher, err := execute(t, plain, "enigma", "encrypt", "-s", "42")
	require.NoError(t, err)
	assert.Equal(t, strings.Count(plain, "\n"), strings.Count(cipher, "\n"))
	assert.NotEqual(t, plain, cipher)

	back, err := execute(t, cipher, "enigma", "decrypt", "-s", "42")
	require.NoError(t, err)
	assert.Equal(t, plain, back)

	// Line breaks do not advance the rotors.
	first, err := execute(t, "hello\n", "enigma", "encrypt")
	require.NoError(t, err)
	assert.Equal(t, "irah \n", first)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestEnigmaWriteFailureStopsStream(t *testing.T) {
	setHome(t)
	resetFlags()
	viper.Reset()
	defer rootCmd.SetOut(nil)

	before := runtime.NumGoroutine()
	rootCmd.SetOut(failingWriter{})
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(strings.Repeat("the quick brown fox\n", 2000)))
	rootCmd.SetArgs([]string{"enigma", "encrypt"})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), before)
}

func TestEnigmaFiles(t *testing.T) {
	dir := setHome(t)
	in := filepath.Join(dir, "plain.txt")
	enc := filepath.Join(dir, "plain.enc")
	dec := filepath.Join(dir, "plain.dec")
	require.NoError(t, os.WriteFile(in, []byte("hello world\n"), 0600))

	_, err := execute(t, "", "enigma", "encrypt", "-i", in, "-o", enc)
	require.NoError(t, err)
	data, err := os.ReadFile(enc)
	require.NoError(t, err)
	assert.Equal(t, "irah ,nnlst\n", string(data))

	_, err = execute(t, "", "enigma", "decrypt", "-i", enc, "-o", dec)
	require.NoError(t, err)
	data, err = os.ReadFile(dec)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(data))

	_, err = execute(t, "", "enigma", "encrypt", "-i", filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestEnigmaIndex(t *testing.T) {
	setHome(t)

	// Starting at index 6 continues "hello world" from its seventh symbol.
	out, err := execute(t, "", "enigma", "encrypt", "-n", "6", "world")
	require.NoError(t, err)
	assert.Equal(t, "nnlst\n", out)
}

func TestEnigmaState(t *testing.T) {
	setHome(t)

	out, err := execute(t, "", "enigma", "state")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "enigma.New(0, WithRotorSeeds(0, 0)) index: 0\n"))
	assert.Contains(t, out, "plugboard.New(")
	assert.Contains(t, out, "reflector.New(")

	out, err = execute(t, "", "enigma", "state", "--seed", "3", "--seed3", "9", "--index", "901")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "enigma.New(3, WithRotorSeeds(0, 9)) index: 901\n"))
	assert.Contains(t, out, "steps: 901,")
	assert.Contains(t, out, "steps: 30,")
	assert.Contains(t, out, "steps: 1,")
}

func TestClassicCommands(t *testing.T) {
	setHome(t)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"caesar", "Hello, World 2024!", "3"}, "Khoor, Zruog 5357!\n"},
		{[]string{"caesar", "Khoor, Zruog 5357!", "3", "dec"}, "Hello, World 2024!\n"},
		{[]string{"vigenere", "Attack at dawn 1984!", "lemon", "enc"}, "Lxfopv mh oeib 2308!\n"},
		{[]string{"vigenere", "Lxfopv mh oeib 2308!", "lemon", "dec"}, "Attack at dawn 1984!\n"},
		{[]string{"subst", "hello world", "1"}, "GUZZQ PQMZH\n"},
		{[]string{"subst", "hello world", "2"}, "TBIIY AYFIU\n"},
		{[]string{"trans", "hello world", "2"}, "elholwr lod\n"},
		{[]string{"trans", "elholwr lod", "2", "dec"}, "hello world\n"},
	}

	for _, tc := range tests {
		out, err := execute(t, "", tc.args...)
		require.NoError(t, err, "args %q", tc.args)
		assert.Equal(t, tc.want, out, "args %q", tc.args)
	}
}

func TestClassicAnalyze(t *testing.T) {
	setHome(t)

	out, err := execute(t, "", "caesar", "Khoor", "0", "anl")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Len(t, lines, 25)
	assert.Equal(t, "key  3: Hello", lines[2])

	out, err = execute(t, "", "trans", "elholwr lod", "0", "anl")
	require.NoError(t, err)
	assert.Contains(t, out, "key  2: hello world\n")
	assert.Contains(t, out, "key  4: elholwr lod\n")

	_, err = execute(t, "", "vigenere", "text", "key", "anl")
	assert.ErrorIs(t, err, errNoAnalysis)
}

func TestClassicErrors(t *testing.T) {
	setHome(t)

	_, err := execute(t, "", "subst", "hello", "3")
	assert.ErrorIs(t, err, classic.ErrKeyNumber)

	_, err = execute(t, "", "trans", "hello", "0")
	assert.ErrorIs(t, err, classic.ErrKeyNumber)

	_, err = execute(t, "", "vigenere", "hello", "k3y")
	assert.ErrorIs(t, err, classic.ErrInvalidKey)

	_, err = execute(t, "", "caesar", "hello", "three")
	assert.Error(t, err)

	_, err = execute(t, "", "caesar", "hello", "3", "crack")
	assert.Error(t, err)

	_, err = execute(t, "", "caesar", "hello")
	assert.Error(t, err)
}

func setVault(t *testing.T, secret string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.db")
	t.Setenv("CIPHERBOX_VAULT_PATH", path)
	t.Setenv("CIPHERBOX_VAULT_ITERATIONS", "10")
	t.Setenv("CIPHERBOX_SECRET", secret)
	return path
}

func TestVaultCommands(t *testing.T) {
	dir := setHome(t)
	path := setVault(t, "security")

	out, err := execute(t, "", "vault", "init")
	require.NoError(t, err)
	assert.Equal(t, "vault created: "+path+"\n", out)

	_, err = execute(t, "", "vault", "init")
	assert.ErrorIs(t, err, vault.ErrInitialized)

	_, err = execute(t, "", "vault", "add", "mail", "-u", "alice", "-p", "s3cret", "--url", "https://mail.example.com")
	require.NoError(t, err)

	_, err = execute(t, "", "vault", "add", "bad", "-p", "x", "--url", "not a url")
	assert.ErrorIs(t, err, vault.ErrInvalidEntry)

	out, err = execute(t, "", "vault", "get", "mail")
	require.NoError(t, err)
	assert.Contains(t, out, "user: alice\n")
	assert.Contains(t, out, "password: s3cret\n")

	out, err = execute(t, "", "vault", "disp", "mail")
	require.NoError(t, err)
	assert.Contains(t, out, "id: mail\n")
	assert.NotContains(t, out, "s3cret")

	_, err = execute(t, "", "vault", "edit", "mail", "--note", "work")
	require.NoError(t, err)
	out, err = execute(t, "", "vault", "get", "mail")
	require.NoError(t, err)
	assert.Contains(t, out, "note: work\n")
	assert.Contains(t, out, "user: alice\n")

	out, err = execute(t, "", "vault", "gen", "Bank", "-n", "12")
	require.NoError(t, err)
	generated := strings.TrimSuffix(out, "\n")
	assert.Len(t, generated, 12)
	assert.True(t, vault.Strong(generated))

	out, err = execute(t, "", "vault", "list")
	require.NoError(t, err)
	assert.Equal(t, "Bank\nmail\n", out)

	export := filepath.Join(dir, "vault.pem")
	_, err = execute(t, "", "vault", "export", "-c", "-o", export)
	require.NoError(t, err)

	_, err = execute(t, "", "vault", "del", "mail")
	require.NoError(t, err)
	_, err = execute(t, "", "vault", "del", "mail")
	assert.ErrorIs(t, err, vault.ErrNotFound)

	out, err = execute(t, "", "vault", "list")
	require.NoError(t, err)
	assert.Equal(t, "Bank\n", out)

	// Restore the export into a fresh vault.
	setVault(t, "security")
	out, err = execute(t, "", "vault", "import", "-i", export)
	require.NoError(t, err)
	assert.Equal(t, "2 entries imported\n", out)

	out, err = execute(t, "", "vault", "get", "Bank")
	require.NoError(t, err)
	assert.Contains(t, out, "password: "+generated+"\n")
}

func TestVaultWrongMaster(t *testing.T) {
	setHome(t)
	setVault(t, "security")

	_, err := execute(t, "", "vault", "init")
	require.NoError(t, err)
	_, err = execute(t, "", "vault", "add", "mail", "-p", "s3cret")
	require.NoError(t, err)

	t.Setenv("CIPHERBOX_SECRET", "insecurity")
	_, err = execute(t, "", "vault", "get", "mail")
	assert.ErrorIs(t, err, vault.ErrBadPassword)

	for _, args := range [][]string{
		{"vault", "list"},
		{"vault", "disp", "mail"},
		{"vault", "del", "mail"},
		{"vault", "export"},
	} {
		out, err := execute(t, "", args...)
		assert.ErrorIs(t, err, vault.ErrBadPassword, "args %q", args)
		assert.Empty(t, out, "args %q", args)
	}

	// The entry is still there for the right password.
	t.Setenv("CIPHERBOX_SECRET", "security")
	out, err := execute(t, "", "vault", "disp", "mail")
	require.NoError(t, err)
	assert.Contains(t, out, "id: mail\n")
}

func TestVaultExportASCII85(t *testing.T) {
	setHome(t)
	setVault(t, "security")

	_, err := execute(t, "", "vault", "init")
	require.NoError(t, err)
	_, err = execute(t, "", "vault", "add", "mail", "-p", "s3cret")
	require.NoError(t, err)

	out, err := execute(t, "", "vault", "export", "-a")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "+CIPHERBOX|a|false|1\n"))

	setVault(t, "security")
	imported, err := execute(t, out, "vault", "import")
	require.NoError(t, err)
	assert.Equal(t, "1 entries imported\n", imported)
}

func TestConfigFile(t *testing.T) {
	home := setHome(t)
	t.Setenv("CIPHERBOX_VAULT_ITERATIONS", "7")

	config := filepath.Join(home, "custom.yaml")
	require.NoError(t, os.WriteFile(config, []byte(`
log:
  level: warn
  format: json
vault:
  keysize: 32
  iterations: 5000
`), 0600))

	_, err := execute(t, "", "--config", config, "caesar", "abc", "1")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 32, cfg.Vault.KeySize)
	assert.Equal(t, 7, cfg.Vault.Iterations)
	assert.Equal(t, filepath.Join(home, ".cipherbox", "vault.db"), cfg.Vault.Path)

	_, err = execute(t, "", "caesar", "abc", "1")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 16, cfg.Vault.KeySize)
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	setupLogging(LogConfig{Level: "warn", Format: "json"}, &buf)
	log.Info().Msg("hidden")
	log.Warn().Str("component", "test").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"message":"shown"`)

	buf.Reset()
	setupLogging(LogConfig{Level: "debug", Format: "console"}, &buf)
	log.Debug().Msg("console line")
	assert.Contains(t, buf.String(), "console line")
	assert.NotContains(t, buf.String(), `"message"`)
}
