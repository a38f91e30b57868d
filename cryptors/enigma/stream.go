package enigma

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// NewReader returns a reader that yields the contents of rdr run through e,
// one line at a time.  Line breaks are copied through unchanged and do not
// advance the rotors, so the index carries on from one line to the next.  If
// normalize is true every line is lower-cased before it is processed.
//
// A line holding a symbol outside the alphabet stops the stream: the error
// (wrapping the *cryptors.InvalidSymbolError) is returned by Read and nothing
// of that line is written.
//
// The caller must Close the reader, even after an error, so that the goroutine
// feeding it stops once the line it is working on has been processed.
func NewReader(rdr io.Reader, e *Engine, normalize bool) io.ReadCloser {
	rRdr, rWrtr := io.Pipe()

	go func() {
		bRdr := bufio.NewReader(rdr)
		lineNo := 0

		for {
			line, err := bRdr.ReadString('\n')
			if len(line) > 0 {
				lineNo++
				text, eol := splitEOL(line)
				if normalize {
					text = Normalize(text)
				}

				out, perr := e.Process(text)
				if perr != nil {
					rWrtr.CloseWithError(fmt.Errorf("line %d: %w", lineNo, perr))
					return
				}

				if _, werr := io.WriteString(rWrtr, out+eol); werr != nil {
					rWrtr.CloseWithError(werr)
					return
				}
			}

			if err == io.EOF {
				rWrtr.Close()
				return
			}

			if err != nil {
				rWrtr.CloseWithError(err)
				return
			}
		}
	}()

	return rRdr
}

// splitEOL separates a line from its trailing "\n" or "\r\n".
func splitEOL(line string) (string, string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	default:
		return line, ""
	}
}
