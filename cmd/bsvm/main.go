package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli"

	"bsvm/vm"
)

func loadVM(path string) (*vm.VM, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := vm.New()
	if err := m.LoadProgram(image); err != nil {
		return nil, err
	}
	return m, nil
}

func printState(m *vm.VM) {
	fmt.Printf("pc=0x%06X cc=%03b r1=%d r2=%d r3=%d sp=%d\n",
		m.PC, m.CC, m.Regs[1], m.Regs[2], m.Regs[3], m.Regs[255])
}

// runDebug mirrors the teacher's single-step loop: "n"/"next" steps one
// instruction, "r"/"run" free-runs to completion.
func runDebug(m *vm.VM) {
	fmt.Printf("Commands:\n\tn or next: execute next instruction\n\tr or run: run to completion\n\n")
	printState(m)

	reader := bufio.NewReader(os.Stdin)
	for m.Running {
		fmt.Print("\n-> ")
		line, _ := reader.ReadString('\n')
		line = strings.ToLower(strings.TrimSpace(line))

		switch line {
		case "n", "next":
			m.Step()
			printState(m)
		case "r", "run":
			m.Run()
		default:
			fmt.Println("unrecognized command")
			continue
		}
	}

	if m.Err != nil {
		fmt.Fprintf(os.Stderr, "fault: %v\n", m.Err)
	}
	fmt.Printf("exit code: %d\n", m.ExitCode)
}

func main() {
	app := cli.NewApp()
	app.Name = "bsvm"
	app.Usage = "Runs a BSVM bytecode image"
	app.ArgsUsage = "image"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "single-step the program interactively",
		},
	}
	app.Action = func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return cli.Exit("expected exactly one image argument", 1)
		}

		m, err := loadVM(c.Args().First())
		if err != nil {
			return cli.Exit(fmt.Sprintf("load: %v", err), 1)
		}

		if c.Bool("debug") {
			runDebug(m)
			os.Exit(m.ExitCode)
		}

		m.Run()
		if m.Err != nil {
			fmt.Fprintf(os.Stderr, "fault: %v\n", m.Err)
		}
		os.Exit(m.ExitCode)
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
