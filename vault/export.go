package vault

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bgallie/filters/ascii85"
	"github.com/bgallie/filters/flate"
	"github.com/bgallie/filters/lines"
	"github.com/bgallie/filters/pem"
	"gopkg.in/yaml.v3"
)

const (
	// pemType is the type of the PEM block holding an exported vault.
	pemType = "CIPHERBOX VAULT"
	// ascii85Header starts the header line of an ASCII85 export.
	ascii85Header = "+CIPHERBOX"
	// documentVersion is the version of the exported YAML document.
	documentVersion = 1
)

// ErrBadExport is returned when an export cannot be read back.
var ErrBadExport = errors.New("malformed vault export")

// document is the YAML form of an exported vault.  Entries keep their sealed
// passwords, so an export is only as readable as the vault itself.
type document struct {
	Version    int     `yaml:"version"`
	Salt       string  `yaml:"salt"`
	Verifier   string  `yaml:"verifier"`
	Iterations int     `yaml:"iterations"`
	KeySize    int     `yaml:"keysize"`
	Entries    []Entry `yaml:"entries"`
}

// ExportOptions selects the armour of an export.
type ExportOptions struct {
	// ASCII85 writes a header line followed by ASCII85 lines instead of a
	// PEM block.
	ASCII85 bool
	// Compress deflates the document before it is armoured.
	Compress bool
}

// Export writes the whole vault, metadata included, to w.  The vault must be
// unlocked.
func (v *Vault) Export(w io.Writer, opts ExportOptions) error {
	if err := v.unlocked(); err != nil {
		return err
	}

	doc, err := v.document()
	if err != nil {
		return err
	}

	if err := writeDocument(w, doc, opts); err != nil {
		return err
	}

	v.log.Info().Int("entries", len(doc.Entries)).Bool("ascii85", opts.ASCII85).
		Bool("compress", opts.Compress).Msg("vault exported")
	return nil
}

// writeDocument encodes doc as YAML and armours it as opts asks.
func writeDocument(w io.Writer, doc document, opts ExportOptions) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode vault: %w", err)
	}

	var rdr io.Reader = bytes.NewReader(data)
	if opts.Compress {
		rdr = flate.ToFlate(rdr)
	}

	if opts.ASCII85 {
		header := fmt.Sprintf("%s|a|%v|%d\n", ascii85Header, opts.Compress, len(doc.Entries))
		if _, err := io.WriteString(w, header); err != nil {
			return err
		}
		_, err = io.Copy(w, lines.SplitToLines(ascii85.ToASCII85(rdr)))
	} else {
		var blck pem.Block
		blck.Type = pemType
		blck.Headers = map[string]string{
			"Entries":     strconv.Itoa(len(doc.Entries)),
			"Compression": strconv.FormatBool(opts.Compress),
			"Version":     strconv.Itoa(documentVersion),
		}
		_, err = io.Copy(w, pem.ToPem(rdr, blck))
	}
	if err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	return nil
}

func (v *Vault) document() (document, error) {
	doc := document{Version: documentVersion}

	meta, err := v.meta()
	if err != nil {
		return doc, err
	}

	doc.Salt = base64.StdEncoding.EncodeToString(meta.salt)
	doc.Verifier = meta.verifier
	doc.Iterations = meta.iterations
	doc.KeySize = meta.keySize

	ids, err := v.List()
	if err != nil {
		return doc, err
	}

	doc.Entries = make([]Entry, 0, len(ids))
	for _, id := range ids {
		e, err := v.Display(id)
		if err != nil {
			return doc, err
		}
		doc.Entries = append(doc.Entries, e)
	}

	return doc, nil
}

// Import restores an export written by Export into an empty, uninitialized
// vault and returns the number of entries restored.  The whole document is
// checked before anything is written and is then written in one transaction,
// so a failed Import leaves the vault as it was.  The format (PEM or
// ASCII85) is detected from the input.
func (v *Vault) Import(r io.Reader) (int, error) {
	ok, err := v.Initialized()
	if err != nil {
		return 0, err
	}
	if ok {
		return 0, ErrInitialized
	}

	data, err := readExport(r)
	if err != nil {
		return 0, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadExport, err)
	}
	if doc.Version != documentVersion {
		return 0, fmt.Errorf("%w: unsupported version %d", ErrBadExport, doc.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(doc.Salt)
	if err != nil || len(salt) == 0 || doc.Verifier == "" {
		return 0, fmt.Errorf("%w: missing vault metadata", ErrBadExport)
	}

	if _, err := NewSealer("", salt, doc.Iterations, doc.KeySize); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadExport, err)
	}

	entries := make(map[string][]byte, len(doc.Entries))
	for _, e := range doc.Entries {
		if err := e.Validate(); err != nil {
			return 0, err
		}
		if _, dup := entries[e.ID]; dup {
			return 0, fmt.Errorf("%w: entry %s appears twice", ErrBadExport, e.ID)
		}
		data, err := json.Marshal(e)
		if err != nil {
			return 0, fmt.Errorf("failed to encode entry %s: %w", e.ID, err)
		}
		entries[e.ID] = data
	}

	err = v.store.restore(entries, map[string][]byte{
		metaSalt:       salt,
		metaVerifier:   []byte(doc.Verifier),
		metaIterations: []byte(strconv.Itoa(doc.Iterations)),
		metaKeySize:    []byte(strconv.Itoa(doc.KeySize)),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to restore vault: %w", err)
	}

	v.log.Info().Int("entries", len(doc.Entries)).Msg("vault imported")
	return len(doc.Entries), nil
}

// readExport strips the armour (and compression) from an export and returns
// the YAML document.
func readExport(r io.Reader) ([]byte, error) {
	bRdr := bufio.NewReader(r)
	b, err := bRdr.Peek(5)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadExport, err)
	}

	var rdr io.Reader
	var compression bool

	if string(b) == "-----" {
		pRdr, blck := pem.FromPem(bRdr)
		if blck.Type != pemType {
			return nil, fmt.Errorf("%w: unexpected block type %q", ErrBadExport, blck.Type)
		}
		compression = blck.Headers["Compression"] == "true"
		rdr = pRdr
	} else {
		line, err := bRdr.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadExport, err)
		}
		fields := strings.Split(strings.TrimSuffix(line, "\n"), "|")
		if len(fields) != 4 || fields[0] != ascii85Header || fields[1] != "a" {
			return nil, fmt.Errorf("%w: bad header line", ErrBadExport)
		}
		compression = fields[2] == "true"
		rdr = ascii85.FromASCII85(lines.CombineLines(bRdr))
	}

	if compression {
		rdr = flate.FromFlate(rdr)
	}

	data, err := io.ReadAll(rdr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadExport, err)
	}

	return data, nil
}
