// Package process holds the data types a Supervisor binds a child process
// to: argument and environment vectors, file descriptor handles, and the
// producer/consumer/feature adapters that drive them.
package process

import "strings"

// Arguments owns the argv a Supervisor execs. It is immutable after
// construction; the zero value is an empty argument vector.
type Arguments struct {
	raw    string
	tokens []string
}

// ParseArguments splits a single command-line string into tokens. ASCII
// spaces separate tokens; a backslash escapes exactly one following byte,
// copying it verbatim (including a space or another backslash). A trailing,
// unescaped backslash is treated as end of input. Empty input yields an
// empty Arguments.
func ParseArguments(cmdline string) Arguments {
	tokens := make([]string, 0, 8)

	var b strings.Builder
	inToken := false

	for i := 0; i < len(cmdline); i++ {
		c := cmdline[i]

		if c == ' ' {
			if inToken {
				tokens = append(tokens, b.String())
				b.Reset()
				inToken = false
			}
			continue
		}

		if c == '\\' {
			i++
			if i >= len(cmdline) {
				break
			}
			c = cmdline[i]
		}

		b.WriteByte(c)
		inToken = true
	}

	if inToken {
		tokens = append(tokens, b.String())
	}

	return Arguments{raw: cmdline, tokens: tokens}
}

// NewArguments builds an Arguments from an already-split token list, the Go
// equivalent of the original (argc, argv) constructor.
func NewArguments(tokens ...string) Arguments {
	return Arguments{raw: EncodeArguments(tokens), tokens: append([]string(nil), tokens...)}
}

// EncodeArguments is the left-inverse encoder for ParseArguments: it escapes
// spaces and backslashes in each token and joins them with a single space,
// so that ParseArguments(EncodeArguments(tokens)) == tokens for any token
// list made of non-empty strings.
func EncodeArguments(tokens []string) string {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		for j := 0; j < len(tok); j++ {
			c := tok[j]
			if c == ' ' || c == '\\' {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Argc returns the number of tokens.
func (a Arguments) Argc() int {
	return len(a.tokens)
}

// Argv returns the token vector directly suitable for exec; the caller must
// not mutate it.
func (a Arguments) Argv() []string {
	return a.tokens
}

// String returns the original joined command line as given to
// ParseArguments, or the encoded form for Arguments built from tokens.
func (a Arguments) String() string {
	return a.raw
}

// Empty reports whether the argument vector has no tokens, i.e. nothing to
// exec.
func (a Arguments) Empty() bool {
	return len(a.tokens) == 0
}
