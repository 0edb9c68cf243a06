package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmcleod/examflow/api"
	"github.com/jmcleod/examflow/internal/validate"
)

// render prints v as indented JSON when --json is set, otherwise through
// table, which writes tab-separated rows.
func render(cmd *cobra.Command, v any, table func(w io.Writer)) error {
	if jsonOutput {
		enc := json.NewEncoder(out(cmd))
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

// describe turns an API or validation error into something fit for a
// terminal: server detail or field messages where available.
func describe(action string, err error) error {
	var fe validate.FieldErrors
	if errors.As(err, &fe) {
		return fmt.Errorf("%s: %s", action, fe.Error())
	}
	if p := api.PayloadOf(err); p != nil {
		return fmt.Errorf("%s: %s", action, p.String())
	}
	return fmt.Errorf("%s: %w", action, err)
}

// failure renders a failed session Result.
func failure(message string, payload api.ErrorPayload) error {
	if payload == nil {
		return errors.New(message)
	}
	detail := payload.String()
	if detail == "" || detail == message {
		return errors.New(message)
	}
	return fmt.Errorf("%s: %s", message, detail)
}

// prompt reads one line from the command's input, for values not given as
// flags.
func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
	line, err := readLine(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return line, nil
}

// readLine reads up to the next newline without buffering past it, so
// consecutive prompts can share one input.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				break
			}
			return "", err
		}
	}
	return strings.TrimRight(sb.String(), "\r"), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortTime(s string) string {
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}

func userLine(u *api.User) string {
	if u == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", u.FullName(), u.Username)
}
