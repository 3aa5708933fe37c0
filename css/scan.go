package css

import (
	"bytes"
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Declaration is a custom property declaration as seen by CSS tokenizer.
type Declaration struct {
	Name  string
	Value string
}

func (d Declaration) String() string {
	return d.Name + ": " + d.Value
}

// colorProperties returns all --color-* custom property declarations in
// stylesheet order. Malformed rules are skipped, scanning stops on
// the first tokenizer error.
func colorProperties(data []byte, log *zap.Logger) []Declaration {
	var decls []Declaration

	parser := css.NewParser(parse.NewInputBytes(data), false)
	for {
		gt, _, name := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			// nil error is a malformed rule parser already skipped over
			err := parser.Err()
			if err == nil {
				continue
			}
			if !errors.Is(err, io.EOF) {
				log.Debug("CSS parse error", zap.Error(err))
			}
			return decls
		case css.CustomPropertyGrammar:
			if !bytes.HasPrefix(name, []byte("--color-")) {
				continue
			}
			var sb strings.Builder
			for _, t := range parser.Values() {
				sb.Write(t.Data)
			}
			decls = append(decls, Declaration{Name: string(name), Value: strings.TrimSpace(sb.String())})
		}
	}
}
