package cli

import (
	"errors"
	"fmt"
	"io"

	"formflow/internal/domain"
	"formflow/internal/infra/file"
	"github.com/spf13/cobra"
)

// NewValidateCmd checks form documents without starting the service.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate YAML or JSON form definitions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateFiles(cmd.OutOrStdout(), args)
		},
	}
}

var errInvalidForms = errors.New("invalid form definitions")

func validateFiles(out io.Writer, paths []string) error {
	failed := 0
	for _, path := range paths {
		form, err := file.LoadForm(path)
		if err == nil {
			err = domain.ValidateForm(form.Title, form.Questions)
		}
		if err == nil {
			fmt.Fprintf(out, "ok      %s (%d questions)\n", path, len(form.Questions))
			continue
		}
		failed++
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			fmt.Fprintf(out, "error   %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "invalid %s\n", path)
		for _, p := range ve.Problems {
			fmt.Fprintf(out, "        %s: %s\n", p.Path, p.Message)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errInvalidForms, failed, len(paths))
	}
	return nil
}
