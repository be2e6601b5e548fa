// unitconv converts values between units of measurement and currencies.
package main

import (
	"os"

	"github.com/convertkit/unitconv/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
