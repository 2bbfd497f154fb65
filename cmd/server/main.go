// Command realtyhub runs the RealtyHub marketplace API.
//
// @title                       RealtyHub Marketplace API
// @version                     1.0
// @description                 Identity, access control and request validation for the RealtyHub marketplace.
// @host                        localhost:8080
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "realtyhub",
	Short:         "RealtyHub marketplace API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(newServeCmd(), newHashPasswordCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "realtyhub: %v\n", err)
		os.Exit(1)
	}
}
