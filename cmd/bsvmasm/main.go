package main

import (
	"fmt"
	"os"

	cli "github.com/urfave/cli"

	"bsvm/asm"
)

func main() {
	app := cli.NewApp()
	app.Name = "bsvmasm"
	app.Usage = "Assembles BSVM source into a raw bytecode image"
	app.ArgsUsage = "file.b [file2.b ...]"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "output",
			Value: "a.out",
			Usage: "output image path",
		},
	}
	app.Action = func(c *cli.Context) error {
		if c.Args().Len() == 0 {
			return cli.Exit("no source files given", 1)
		}

		image, err := asm.AssembleFiles([]string(c.Args())...)
		if err != nil {
			return cli.Exit(fmt.Sprintf("assemble: %v", err), 1)
		}

		if err := os.WriteFile(c.String("output"), image, 0644); err != nil {
			return cli.Exit(fmt.Sprintf("write %s: %v", c.String("output"), err), 1)
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
