package main

import (
	"context"

	"github.com/dnitsch/configure-aws-credentials/cmd"
)

func main() {
	cmd.Execute(context.Background())
}
