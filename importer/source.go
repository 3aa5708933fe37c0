package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"okvars/archive"
	"okvars/config"
	"okvars/state"
)

// StdinName on command line selects standard input as source.
const StdinName = "-"

// sniffLen is enough for every signature filetype knows.
const sniffLen = 262

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

// source is a loaded stylesheet.
type source struct {
	name string // as given on command line
	path string // absolute, empty for stdin
	data []byte
}

func (s *source) isStdin() bool {
	return s.path == ""
}

// readSource loads stylesheet from file or standard input and converts text
// from requested code page. Zip archive is replaced by its .css files, any
// other binary content is rejected.
func readSource(env *state.LocalEnv, name string) (*source, error) {
	if len(name) == 0 {
		return nil, errors.New("no input source has been specified")
	}

	src := &source{name: name}

	var (
		data []byte
		err  error
	)
	if name == StdinName {
		if data, err = io.ReadAll(stdin); err != nil {
			return nil, fmt.Errorf("unable to read standard input: %w", err)
		}
		env.Rpt.StoreData("input-stdin.css", data)
	} else {
		if src.path, err = filepath.Abs(name); err != nil {
			return nil, err
		}
		if data, err = os.ReadFile(src.path); err != nil {
			return nil, fmt.Errorf("unable to read input source: %w", err)
		}
		if err := env.Rpt.StoreCopy("input-"+config.SafeName(filepath.Base(src.path), "source"), src.path); err != nil {
			env.Log.Warn("Unable to put input source into report", zap.Error(err))
		}
	}

	head := data[:min(len(data), sniffLen)]
	if filetype.Is(head, "zip") && !src.isStdin() {
		var names []string
		if data, names, err = archive.Stylesheets(src.path); err != nil {
			return nil, fmt.Errorf("unable to read stylesheets from archive: %w", err)
		}
		env.Log.Debug("Reading stylesheets from archive", zap.String("archive", src.path), zap.Strings("files", names))
	} else if kind, _ := filetype.Match(head); kind != filetype.Unknown {
		return nil, fmt.Errorf("input source (%s) looks like %s, not a stylesheet", name, kind.MIME.Value)
	}

	if env.CodePage != nil {
		if data, err = env.CodePage.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("unable to decode input source: %w", err)
		}
	}
	src.data = data
	return src, nil
}

// inputCodePage selects source character set: command line first, then configuration.
func inputCodePage(cmd *cli.Command, env *state.LocalEnv, log *zap.Logger) encoding.Encoding {
	name := env.Cfg.Input.Encoding
	if cmd.IsSet("encoding") {
		name = cmd.String("encoding")
	}
	return codePage(name, log)
}

// codePage resolves IANA character set name, unknown names are reported and
// ignored.
func codePage(name string, log *zap.Logger) encoding.Encoding {
	if len(name) == 0 {
		return nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", name), zap.Error(err))
		return nil
	}
	n, _ := ianaindex.IANA.Name(enc)
	log.Debug("Converting input from character set", zap.String("charset", n))
	return enc
}
