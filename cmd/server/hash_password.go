package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/realtyhub/marketplace-api/internal/core/service"
)

func newHashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for seeding an account",
		Long: `Reads a password from stdin and prints its bcrypt hash. The password
must satisfy the same strength rules as self-registration.

	echo -n 'S3cure!Passw0rd' | realtyhub hash-password`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no password on stdin")
			}
			password := strings.TrimRight(line, "\r\n")

			if check := service.ValidatePassword(password); !check.Valid {
				return fmt.Errorf("weak password: %s", strings.Join(check.Errors, "; "))
			}
			hash, err := service.HashPassword(password, cost)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
	cmd.Flags().IntVar(&cost, "cost", service.DefaultBcryptCost, "bcrypt cost factor")
	return cmd
}
